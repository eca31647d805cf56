package store

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldText lower-cases text and strips combining marks, so "Ergonómica"
// and "ergonomica" compare equal. Transformers carry state, so each call
// builds its own chain.
func FoldText(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		out = text
	}
	return cases.Lower(language.Spanish).String(out)
}

// sqlFoldLetters are the accented letters folded inside SQL. Neither
// SQLite nor a stock Postgres has unaccent, and SQLite LOWER only knows
// ASCII, so the column side is folded with nested REPLACE calls.
var sqlFoldLetters = strings.Split("á:a,à:a,â:a,ä:a,ã:a,é:e,è:e,ê:e,ë:e,í:i,ì:i,î:i,ï:i,ó:o,ò:o,ô:o,ö:o,õ:o,ú:u,ù:u,û:u,ü:u,ñ:n,ç:c", ",")

func foldSQL(expr string) string {
	for _, pair := range sqlFoldLetters {
		from, to, _ := strings.Cut(pair, ":")
		expr = "REPLACE(REPLACE(" + expr + ", '" + from + "', '" + to + "'), '" + strings.ToUpper(from) + "', '" + to + "')"
	}
	return "LOWER(" + expr + ")"
}
