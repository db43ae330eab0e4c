package anchor

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes text for comparison: casefold, collapse
// whitespace runs to a single space, and strip characters outside the
// allow-list (letters, digits, basic punctuation kept for word
// boundaries). Pure and deterministic; applied identically to chunk text
// and line text so comparisons stay symmetric.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	space := true // swallow leading whitespace
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			if !space {
				b.WriteByte(' ')
				space = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || allowedPunct(r):
			b.WriteRune(r)
			space = false
		default:
			// Stripped characters still separate words.
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}

	return strings.TrimRight(b.String(), " ")
}

func allowedPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?', '-', '\'', '/', '%':
		return true
	}
	return false
}

// Tokens splits normalized text into comparison words with surrounding
// punctuation removed. Input is normalized first, so callers may pass raw
// text.
func Tokens(text string) []string {
	fields := strings.Fields(Normalize(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?-'/%")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
