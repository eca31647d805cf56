package intent

import (
	"strings"
	"unicode"

	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
)

// Normalize lower-cases text, removes diacritics and collapses everything
// that is not a letter or digit into single spaces.
func Normalize(text string) string {
	folded := Fold(text)
	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Fold lower-cases text and strips combining marks, keeping punctuation.
// It is the same folding the stores apply to text filters.
func Fold(text string) string {
	return storex.FoldText(text)
}

// tokens splits raw text into words, keeping the original spelling.
func tokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
