package lexer

// TokenType represents lexical tokens of the route pattern grammar
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Top level
	WORD      // deploy, add-user - bare literal text
	DASH_DASH // -- (long option prefix)
	DASH      // - (short alias prefix)
	COMMA     // , (alias separator)

	// Shared by options and parameters
	IDENT    // option names, parameter names, type names
	QUESTION // ?

	// Parameters
	LBRACE // {
	RBRACE // }
	STAR   // * (catch-all marker)
	COLON  // : (type constraint separator)
)

// Token represents a lexical token.
type Token struct {
	Type           TokenType
	Text           string
	Position       Position
	HasSpaceBefore bool // Whitespace preceded this token
}

// String returns the token text
func (t Token) String() string {
	return t.Text
}

// Symbol returns the token text, or a readable form for textless tokens
func (t Token) Symbol() string {
	if t.Text != "" {
		return t.Text
	}
	if t.Type == EOF {
		return "end of pattern"
	}
	return t.Type.String()
}

// Position represents a location in a pattern.
// Patterns are single-line, so there is no line number.
type Position struct {
	Column int // 1-based column, counted in runes
	Offset int // 0-based byte offset
}

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case ILLEGAL:
		return "ILLEGAL"
	case WORD:
		return "WORD"
	case DASH_DASH:
		return "--"
	case DASH:
		return "-"
	case COMMA:
		return ","
	case IDENT:
		return "IDENT"
	case QUESTION:
		return "?"
	case LBRACE:
		return "{"
	case RBRACE:
		return "}"
	case STAR:
		return "*"
	case COLON:
		return ":"
	default:
		return "UNKNOWN"
	}
}
