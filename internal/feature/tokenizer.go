package feature

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenize splits text into lowercase terms for vectorization. Input is
// NFC-normalized first so composed and decomposed forms of the same
// character produce the same term. Single-rune tokens are dropped.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ToLower(norm.NFC.String(text))

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
