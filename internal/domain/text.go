package domain

import "unicode/utf16"

// TextLength counts s in UTF-16 code units, the unit browsers use for string
// length. Length limits on usernames, passwords and message text use it so
// clients and server agree on what "5000 characters" means.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// TruncateText cuts s to at most limit UTF-16 code units without splitting a
// surrogate pair.
func TruncateText(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	n := 0
	for i, r := range s {
		units := runeUnits(r)
		if n+units > limit {
			return s[:i]
		}
		n += units
	}
	return s
}

func runeUnits(r rune) int {
	if units := utf16.RuneLen(r); units > 0 {
		return units
	}
	// invalid runes are replaced by U+FFFD when encoded
	return 1
}
