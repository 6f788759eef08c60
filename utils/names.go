package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	duplicateSuffix = regexp.MustCompile(`\.\d{3,}$`)
	invalidNameChar = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// StripPrefix removes the first matching prefix, compared case-insensitively.
func StripPrefix(name string, prefixes ...string) string {
	for _, p := range prefixes {
		if p != "" && len(name) >= len(p) && strings.EqualFold(name[:len(p)], p) {
			return name[len(p):]
		}
	}
	return name
}

// FoldASCII drops combining marks so "Épée" becomes "Epee".
func FoldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	r, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return r
}

// CleanName turns an object or collection name into a file name stem.
// It strips one leading prefix, the ".NNN" duplicate suffix, folds accents
// and replaces everything outside [A-Za-z0-9_-] with '_'.
func CleanName(name string, prefixes ...string) string {
	name = strings.TrimSpace(name)
	name = duplicateSuffix.ReplaceAllString(name, "")
	name = StripPrefix(name, prefixes...)
	name = FoldASCII(name)
	return invalidNameChar.ReplaceAllString(name, "_")
}
