// Package lexer tokenizes route patterns such as
// "deploy {env:string} --force,-f? --tag {*tags}".
//
// The scan is a single left-to-right pass. '{', '-' and whitespace are
// unambiguous token starters, so a small mode switch (top level, option,
// parameter braces) is all the state needed; there is no backtracking.
package lexer

import (
	"log/slog"
	"unicode"
	"unicode/utf8"

	"github.com/aledsdavies/routekit/core/invariant"
)

// lexMode is the lexer's position in the grammar
type lexMode int

const (
	modeTop    lexMode = iota // Between tokens: literals, '{', '-'
	modeOption                // Inside an option token: names, ',', '-', '?'
	modeBrace                 // Inside '{' ... '}'
)

// LexerOpt represents a lexer configuration option
type LexerOpt func(*LexerConfig)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	logger *slog.Logger
}

// WithLogger traces every emitted token at debug level
func WithLogger(logger *slog.Logger) LexerOpt {
	return func(c *LexerConfig) {
		c.logger = logger
	}
}

// Lexer tokenizes a single pattern
type Lexer struct {
	input  string
	pos    int // Byte offset of the next unread rune
	column int // 1-based rune column of pos
	mode   lexMode
	done   bool // EOF already emitted

	logger *slog.Logger
}

// NewLexer creates a lexer over a pattern
func NewLexer(input string, opts ...LexerOpt) *Lexer {
	config := &LexerConfig{}
	for _, opt := range opts {
		opt(config)
	}

	l := &Lexer{logger: config.logger}
	l.Init(input)
	return l
}

// Init resets the lexer with new input (following Go scanner pattern)
func (l *Lexer) Init(input string) {
	l.input = input
	l.pos = 0
	l.column = 1
	l.mode = modeTop
	l.done = false
}

// NextToken returns the next token. After EOF it keeps returning EOF.
func (l *Lexer) NextToken() Token {
	if l.done {
		return Token{Type: EOF, Position: l.position()}
	}

	prev := l.pos
	tok := l.lexToken()
	if tok.Type == EOF {
		l.done = true
	} else {
		invariant.Invariant(l.pos > prev, "lexer must advance past %q at column %d", tok.Text, tok.Position.Column)
	}

	if l.logger != nil {
		l.logger.Debug("token",
			"type", tok.Type.String(),
			"text", tok.Text,
			"column", tok.Position.Column,
			"space_before", tok.HasSpaceBefore)
	}
	return tok
}

// GetTokens returns all remaining tokens, ending with EOF
func (l *Lexer) GetTokens() []Token {
	tokens := make([]Token, 0, len(l.input)/2+1)
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

// lexToken performs the actual tokenization work
func (l *Lexer) lexToken() Token {
	hadSpace := l.skipWhitespace()
	if hadSpace {
		// Whitespace always ends an option token or an unterminated parameter.
		l.mode = modeTop
	}

	start := l.position()
	if l.pos >= len(l.input) {
		return Token{Type: EOF, Position: start, HasSpaceBefore: hadSpace}
	}

	ch := l.peek()
	switch l.mode {
	case modeBrace:
		return l.lexBrace(start, ch, hadSpace)
	case modeOption:
		return l.lexOption(start, ch, hadSpace)
	default:
		return l.lexTop(start, ch, hadSpace)
	}
}

func (l *Lexer) lexTop(start Position, ch rune, space bool) Token {
	switch ch {
	case '{':
		l.advance()
		l.mode = modeBrace
		return Token{Type: LBRACE, Text: "{", Position: start, HasSpaceBefore: space}
	case '}':
		l.advance()
		return Token{Type: ILLEGAL, Text: "}", Position: start, HasSpaceBefore: space}
	case '-':
		return l.lexDash(start, space)
	}

	for l.pos < len(l.input) {
		c := l.peek()
		if isSpace(c) || c == '{' || c == '}' {
			break
		}
		l.advance()
	}
	return Token{Type: WORD, Text: l.input[start.Offset:l.pos], Position: start, HasSpaceBefore: space}
}

func (l *Lexer) lexOption(start Position, ch rune, space bool) Token {
	switch ch {
	case ',':
		l.advance()
		return Token{Type: COMMA, Text: ",", Position: start, HasSpaceBefore: space}
	case '?':
		l.advance()
		return Token{Type: QUESTION, Text: "?", Position: start, HasSpaceBefore: space}
	case '-':
		return l.lexDash(start, space)
	case '{':
		l.advance()
		l.mode = modeBrace
		return Token{Type: LBRACE, Text: "{", Position: start, HasSpaceBefore: space}
	}

	if isIdentPart(ch) {
		return l.lexIdent(start, space)
	}
	l.advance()
	return Token{Type: ILLEGAL, Text: string(ch), Position: start, HasSpaceBefore: space}
}

func (l *Lexer) lexBrace(start Position, ch rune, space bool) Token {
	var typ TokenType
	switch ch {
	case '}':
		l.advance()
		l.mode = modeTop
		return Token{Type: RBRACE, Text: "}", Position: start, HasSpaceBefore: space}
	case '*':
		typ = STAR
	case ':':
		typ = COLON
	case '?':
		typ = QUESTION
	default:
		if isIdentPart(ch) {
			return l.lexIdent(start, space)
		}
		typ = ILLEGAL
	}
	l.advance()
	return Token{Type: typ, Text: string(ch), Position: start, HasSpaceBefore: space}
}

// lexDash emits "--" or "-" and switches to option mode
func (l *Lexer) lexDash(start Position, space bool) Token {
	l.advance()
	l.mode = modeOption
	if l.pos < len(l.input) && l.peek() == '-' {
		l.advance()
		return Token{Type: DASH_DASH, Text: "--", Position: start, HasSpaceBefore: space}
	}
	return Token{Type: DASH, Text: "-", Position: start, HasSpaceBefore: space}
}

func (l *Lexer) lexIdent(start Position, space bool) Token {
	for l.pos < len(l.input) && isIdentPart(l.peek()) {
		l.advance()
	}
	return Token{Type: IDENT, Text: l.input[start.Offset:l.pos], Position: start, HasSpaceBefore: space}
}

func (l *Lexer) skipWhitespace() bool {
	skipped := false
	for l.pos < len(l.input) && isSpace(l.peek()) {
		l.advance()
		skipped = true
	}
	return skipped
}

func (l *Lexer) peek() rune {
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *Lexer) advance() {
	_, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	l.column++
}

func (l *Lexer) position() Position {
	return Position{Column: l.column, Offset: l.pos}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// isIdentPart reports whether r may appear in option, parameter or type names.
// A leading '-' never reaches here: the lexer emits it as DASH first.
func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}
