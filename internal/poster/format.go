package poster

import "unicode/utf8"

// TruncateRunes cuts s to at most max runes. Used for platform caption
// and title limits; counts runes, not bytes, so multibyte text is never
// split mid-character.
func TruncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
