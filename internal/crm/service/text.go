package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s and strips diacritics, so "Reunión" matches "reunion".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// matchKeyword reports whether any field contains keyword, ignoring case and accents.
func matchKeyword(keyword string, fields ...string) bool {
	kw := fold(strings.TrimSpace(keyword))
	if kw == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(fold(f), kw) {
			return true
		}
	}
	return false
}

// asciiFileName keeps letters, digits, dash and dot, replacing the rest with '_'.
func asciiFileName(s string) string {
	folded := fold(s)
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.'):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
