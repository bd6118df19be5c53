package service

import (
	"strings"
	"unicode"
)

// Normalize lower-cases name and drops everything that is not a letter or a
// digit, so "Warehouse Location" and "warehouse-location" compare equal.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
