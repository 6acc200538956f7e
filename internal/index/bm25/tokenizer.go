package bm25

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and returns every maximal run of letters, digits and underscores.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
	if fields == nil {
		return []string{}
	}
	return fields
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
