package textutil

import (
	"strings"
	"unicode"
)

// unsafeFileChars maps characters that break paths on common filesystems.
var unsafeFileChars = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a media base name safe to embed in a markup output
// path. Separators become dashes and shell-hostile characters are dropped.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(unsafeFileChars.Replace(name))
}

// SanitizeToken lowercases an identifier such as an algorithm name for use
// inside a file name. Letters, digits, '-' and '_' are kept; every other run
// of characters collapses to one underscore. Blank or fully stripped input
// yields "unknown".
func SanitizeToken(value string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pending = true
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
