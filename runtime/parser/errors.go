package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aledsdavies/routekit/runtime/lexer"
)

// ErrorType represents different categories of pattern errors
type ErrorType int

const (
	ErrorSyntax ErrorType = iota
	ErrorUnexpected
	ErrorMissing
	ErrorInvalid
)

func (e ErrorType) String() string {
	switch e {
	case ErrorSyntax:
		return "syntax error"
	case ErrorUnexpected:
		return "unexpected token"
	case ErrorMissing:
		return "missing"
	case ErrorInvalid:
		return "invalid pattern"
	default:
		return "error"
	}
}

// ParseError represents a malformed pattern with the offending position
type ParseError struct {
	Type    ErrorType
	Message string
	Pattern string
	Token   lexer.Token
}

// Column returns the 1-based column the error points at
func (e ParseError) Column() int {
	return e.Token.Position.Column
}

// Error returns the formatted error message with a caret snippet
func (e ParseError) Error() string {
	snippet := e.createSnippet()
	if snippet == "" {
		return fmt.Sprintf("%s: %s", e.Type.String(), e.Message)
	}
	return fmt.Sprintf("%s: %s\n%s", e.Type.String(), e.Message, snippet)
}

// createSnippet shows the pattern with a caret under the error column
func (e ParseError) createSnippet() string {
	col := e.Column()
	if e.Pattern == "" || col == 0 {
		return ""
	}

	var snippet strings.Builder
	snippet.WriteString(fmt.Sprintf("  --> column %d\n", col))
	snippet.WriteString("   |\n")
	snippet.WriteString(fmt.Sprintf("   | %s\n", e.Pattern))
	snippet.WriteString("   | ")
	if col <= utf8.RuneCountInString(e.Pattern)+1 {
		snippet.WriteString(strings.Repeat(" ", col-1) + "^")
	}

	return snippet.String()
}

func (p *parser) errorAt(typ ErrorType, tok lexer.Token, format string, args ...any) error {
	return ParseError{
		Type:    typ,
		Message: fmt.Sprintf(format, args...),
		Pattern: p.pattern,
		Token:   tok,
	}
}

// newSyntaxError creates a syntax error at the current token
func (p *parser) newSyntaxError(format string, args ...any) error {
	return p.errorAt(ErrorSyntax, p.current(), format, args...)
}

// newUnexpectedError reports an unexpected token where something else was required
func (p *parser) newUnexpectedError(expected string) error {
	return p.errorAt(ErrorUnexpected, p.current(), "expected %s, got %s", expected, describe(p.current()))
}

// newMissingError reports a missing construct, pointing at tok
func (p *parser) newMissingError(tok lexer.Token, format string, args ...any) error {
	return p.errorAt(ErrorMissing, tok, format, args...)
}

// newInvalidError reports a structurally invalid pattern, pointing at tok
func (p *parser) newInvalidError(tok lexer.Token, format string, args ...any) error {
	return p.errorAt(ErrorInvalid, tok, format, args...)
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.EOF {
		return "end of pattern"
	}
	return fmt.Sprintf("%q", tok.Symbol())
}
