package matcher

import "strings"

// Terminator ends option processing; every later token is positional.
const Terminator = "--"

// IsOptionLike reports whether tok is read as an option key rather than a
// positional token. "--" alone, "-" alone and negative numbers are not.
func IsOptionLike(tok string) bool {
	switch {
	case tok == Terminator || len(tok) < 2 || tok[0] != '-':
		return false
	case tok[1] == '-':
		return true
	default:
		c := tok[1]
		return (c < '0' || c > '9') && c != '.'
	}
}

// splitInline separates "--key=value" into its key and value.
// Short keys never carry inline values.
func splitInline(tok string) (key, value string, inline bool) {
	if !strings.HasPrefix(tok, "--") {
		return tok, "", false
	}
	key, value, inline = strings.Cut(tok, "=")
	return key, value, inline
}
