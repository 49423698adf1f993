package generator

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify turns heading text into a stable, URL-safe anchor id. Accented
// characters are decomposed and stripped of combining marks so "Código"
// becomes "codigo" rather than being dropped.
func Slugify(text string) string {
	decomposed := norm.NFKD.String(text)

	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
