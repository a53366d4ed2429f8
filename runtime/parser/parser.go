// Package parser turns route patterns into segment sequences.
//
//	pattern   := token (WS token)*
//	token     := literal | parameter | option
//	literal   := any run without space, '{', '-'
//	parameter := '{' ['*'] name [':' type] ['?'] '}'
//	option    := '--' name (',' '-' shortchar)* ['?'] [WS parameter]
//
// A parameter directly following an option is that option's value slot.
// Malformed input is always a ParseError; there is no partial result.
package parser

import (
	"log/slog"
	"unicode"
	"unicode/utf8"

	"github.com/aledsdavies/routekit/core/invariant"
	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/lexer"
)

const (
	// MaxPositional bounds positional segments per route. The matcher tracks
	// positional states in a 64-bit set, one bit per segment plus the end state.
	MaxPositional = 63
	// MaxOptions bounds option segments per route (64-bit seen-set).
	MaxOptions = 64
)

// ParserOpt represents a parser configuration option
type ParserOpt func(*ParserConfig)

// ParserConfig holds parser configuration
type ParserConfig struct {
	logger *slog.Logger
}

// WithLogger traces lexing and parsing at debug level
func WithLogger(logger *slog.Logger) ParserOpt {
	return func(c *ParserConfig) {
		c.logger = logger
	}
}

type parser struct {
	pattern string
	tokens  []lexer.Token
	pos     int

	segments []route.Segment
	starts   []lexer.Token // First token of each segment, for error positions
}

// Parse parses a pattern into its ordered segments
func Parse(pattern string, opts ...ParserOpt) ([]route.Segment, error) {
	config := &ParserConfig{}
	for _, opt := range opts {
		opt(config)
	}

	var lexOpts []lexer.LexerOpt
	if config.logger != nil {
		lexOpts = append(lexOpts, lexer.WithLogger(config.logger))
	}

	p := &parser{
		pattern: pattern,
		tokens:  lexer.NewLexer(pattern, lexOpts...).GetTokens(),
	}
	if err := p.parse(); err != nil {
		if config.logger != nil {
			config.logger.Debug("pattern rejected", "pattern", pattern, "error", err)
		}
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	invariant.Postcondition(len(p.segments) > 0, "parsed pattern %q must have segments", pattern)
	return p.segments, nil
}

// MustParse parses a pattern and panics on error.
// Intended for patterns fixed at compile time, such as test fixtures.
func MustParse(pattern string) []route.Segment {
	segments, err := Parse(pattern)
	invariant.ExpectNoError(err, "parse "+pattern)
	return segments
}

// Print renders segments as canonical pattern text. Parse(Print(s)) == s.
func Print(segments []route.Segment) string {
	return route.Format(segments)
}

// Canonicalize parses a pattern and returns its canonical text
func Canonicalize(pattern string) (string, error) {
	segments, err := Parse(pattern)
	if err != nil {
		return "", err
	}
	return Print(segments), nil
}

func (p *parser) current() lexer.Token {
	return p.tokens[p.pos]
}

func (p *parser) advance() {
	if p.tokens[p.pos].Type != lexer.EOF {
		p.pos++
	}
}

func (p *parser) at(typ lexer.TokenType) bool {
	return p.current().Type == typ
}

// adjacent reports whether the current token has the given type and is not
// separated from the previous token by whitespace
func (p *parser) adjacent(typ lexer.TokenType) bool {
	tok := p.current()
	return tok.Type == typ && !tok.HasSpaceBefore
}

// ended reports whether the current token ends the construct being parsed
func (p *parser) ended() bool {
	tok := p.current()
	return tok.Type == lexer.EOF || tok.HasSpaceBefore
}

func (p *parser) parse() error {
	if p.at(lexer.EOF) {
		return p.newMissingError(p.current(), "empty pattern")
	}

	for !p.at(lexer.EOF) {
		tok := p.current()
		if len(p.segments) > 0 && !tok.HasSpaceBefore {
			return p.newSyntaxError("expected whitespace before %s", describe(tok))
		}

		var seg route.Segment
		var err error
		switch tok.Type {
		case lexer.WORD:
			seg = route.Literal{Value: tok.Text}
			p.advance()
		case lexer.LBRACE:
			seg, err = p.parameter()
		case lexer.DASH_DASH:
			seg, err = p.option()
		case lexer.DASH:
			return p.newInvalidError(tok, "options must start with '--'; short forms are aliases, e.g. --verbose,-v")
		case lexer.ILLEGAL:
			return p.newSyntaxError("unexpected character %q", tok.Text)
		default:
			return p.newUnexpectedError("literal, parameter or option")
		}
		if err != nil {
			return err
		}

		p.segments = append(p.segments, seg)
		p.starts = append(p.starts, tok)
	}
	return nil
}

// parameter parses '{' ['*'] name [':' type] ['?'] '}'
func (p *parser) parameter() (route.Parameter, error) {
	open := p.current()
	p.advance()

	var param route.Parameter
	if p.adjacent(lexer.STAR) {
		param.CatchAll = true
		p.advance()
	}

	switch {
	case p.adjacent(lexer.IDENT):
		name := p.current()
		if !isNameStart(name.Text) {
			return param, p.newInvalidError(name, "parameter name %q must start with a letter or '_'", name.Text)
		}
		param.Name = name.Text
		p.advance()
	case p.adjacent(lexer.RBRACE), p.adjacent(lexer.COLON), p.adjacent(lexer.QUESTION):
		return param, p.newMissingError(p.current(), "empty parameter name")
	case p.adjacent(lexer.STAR):
		return param, p.newInvalidError(p.current(), "only one '*' is allowed, directly after '{'")
	case p.ended():
		return param, p.newMissingError(open, "unterminated '{'")
	default:
		return param, p.newUnexpectedError("parameter name")
	}

	if p.adjacent(lexer.STAR) {
		return param, p.newInvalidError(p.current(), "catch-all marker '*' must directly follow '{'")
	}

	if p.adjacent(lexer.COLON) {
		p.advance()
		switch {
		case p.adjacent(lexer.IDENT):
			param.Type = p.current().Text
			p.advance()
		case p.ended():
			return param, p.newMissingError(open, "unterminated '{'")
		default:
			return param, p.newMissingError(p.current(), "empty type constraint for parameter %q", param.Name)
		}
	}

	if p.adjacent(lexer.QUESTION) {
		param.Optional = true
		p.advance()
		if p.adjacent(lexer.COLON) {
			return param, p.newInvalidError(p.current(), "type constraint must come before '?', e.g. {%s:type?}", param.Name)
		}
	}

	switch {
	case p.adjacent(lexer.RBRACE):
		p.advance()
		return param, nil
	case p.ended():
		return param, p.newMissingError(open, "unterminated '{'")
	case p.adjacent(lexer.STAR):
		return param, p.newInvalidError(p.current(), "catch-all marker '*' must directly follow '{'")
	default:
		return param, p.newUnexpectedError("'}'")
	}
}

// option parses '--' name (',' '-' shortchar)* ['?'] [WS parameter]
func (p *parser) option() (route.Option, error) {
	p.advance()

	var opt route.Option
	if !p.adjacent(lexer.IDENT) {
		return opt, p.newMissingError(p.current(), "missing option name after '--'")
	}
	name := p.current()
	if r, _ := utf8.DecodeRuneInString(name.Text); !unicode.IsLetter(r) && !unicode.IsDigit(r) {
		return opt, p.newInvalidError(name, "option name %q must start with a letter or digit", name.Text)
	}
	opt.Long = name.Text
	p.advance()

	for p.adjacent(lexer.COMMA) {
		p.advance()
		if p.adjacent(lexer.DASH_DASH) {
			return opt, p.newInvalidError(p.current(), "aliases must be short forms like -v")
		}
		if !p.adjacent(lexer.DASH) {
			return opt, p.newUnexpectedError("'-' after ','")
		}
		p.advance()
		if !p.adjacent(lexer.IDENT) {
			return opt, p.newMissingError(p.current(), "missing short alias after '-'")
		}
		alias := p.current()
		r, size := utf8.DecodeRuneInString(alias.Text)
		if size != len(alias.Text) || unicode.IsDigit(r) || r == '.' {
			return opt, p.newInvalidError(alias, "short alias %q must be a single non-digit character", alias.Text)
		}
		if opt.Short == "" {
			opt.Short = alias.Text
		} else {
			opt.Aliases = append(opt.Aliases, alias.Text)
		}
		p.advance()
	}

	if p.adjacent(lexer.QUESTION) {
		opt.Optional = true
		p.advance()
	}

	if !p.ended() {
		if p.at(lexer.LBRACE) {
			return opt, p.newSyntaxError("expected whitespace between --%s and its value", opt.Long)
		}
		return opt, p.newSyntaxError("unexpected %s in option --%s", describe(p.current()), opt.Long)
	}

	if p.at(lexer.LBRACE) {
		value, err := p.parameter()
		if err != nil {
			return opt, err
		}
		opt.Value = &value
	}
	return opt, nil
}

// validate checks the rules that span segments
func (p *parser) validate() error {
	names := make(map[string]bool)
	keys := make(map[string]bool)
	positional, options := 0, 0
	var catchAll *lexer.Token

	claim := func(name string, tok lexer.Token) error {
		if names[name] {
			return p.newInvalidError(tok, "duplicate parameter name %q", name)
		}
		names[name] = true
		return nil
	}

	for i, seg := range p.segments {
		tok := p.starts[i]
		switch s := seg.(type) {
		case route.Literal:
			positional++
			if catchAll != nil {
				return p.newInvalidError(*catchAll, "catch-all parameter must be the last positional segment")
			}
		case route.Parameter:
			positional++
			if catchAll != nil {
				if s.CatchAll {
					return p.newInvalidError(tok, "only one catch-all parameter is allowed")
				}
				return p.newInvalidError(*catchAll, "catch-all parameter must be the last positional segment")
			}
			if s.CatchAll {
				catchAll = &p.starts[i]
			}
			if err := claim(s.Name, tok); err != nil {
				return err
			}
		case route.Option:
			options++
			for _, key := range s.Keys() {
				if keys[key] {
					return p.newInvalidError(tok, "option key %s is declared twice", key)
				}
				keys[key] = true
			}
			if err := claim(s.ParameterName(), tok); err != nil {
				return err
			}
		}
	}

	if positional > MaxPositional {
		return p.newInvalidError(p.starts[0], "too many positional segments: %d (max %d)", positional, MaxPositional)
	}
	if options > MaxOptions {
		return p.newInvalidError(p.starts[0], "too many options: %d (max %d)", options, MaxOptions)
	}
	return nil
}

func isNameStart(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsLetter(r) || r == '_'
}
