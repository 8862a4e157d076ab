package extract

import (
	"strings"
	"unicode"
)

// Normalize inserts a sentence break wherever a lowercase letter or a digit
// runs straight into an uppercase letter, as in "BaxtergateOffence" or
// "1888Whitby". Nothing else is changed. Normalize is idempotent.
func Normalize(text string) string {
	if !needsBreak(text) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + 16)

	prev := rune(-1)
	for _, r := range text {
		if isBreak(prev, r) {
			b.WriteString(". ")
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func needsBreak(text string) bool {
	prev := rune(-1)
	for _, r := range text {
		if isBreak(prev, r) {
			return true
		}
		prev = r
	}
	return false
}

func isBreak(prev, r rune) bool {
	return prev >= 0 && unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev))
}
