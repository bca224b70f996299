// Package tokenizer normalizes raw text into lowercase alphanumeric tokens.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text, replaces everything that is not an ASCII
// lowercase letter, digit or whitespace with a space and splits on
// whitespace. Empty or punctuation-only input yields a nil slice.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, strings.ToLower(text))
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
