package scraper

import (
	"strings"
	"unicode"
)

// DefaultExcluded lists sidebar labels that are not chat titles.
var DefaultExcluded = []string{"Recent", "Activity", "Settings & help", "Upgrade", "New chat"}

// isJSSpace reports whether r is trimmed by String.prototype.trim: ECMAScript
// WhiteSpace plus LineTerminator. Unlike unicode.IsSpace it includes U+FEFF
// and excludes U+0085.
func isJSSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\ufeff', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// FilterTitles trims each raw text and keeps it unless it is empty or exactly
// matches an entry of excluded. Order and duplicates are preserved.
func FilterTitles(raw, excluded []string) []string {
	skip := make(map[string]struct{}, len(excluded))
	for _, e := range excluded {
		skip[e] = struct{}{}
	}
	titles := make([]string, 0, len(raw))
	for _, r := range raw {
		t := strings.TrimFunc(r, isJSSpace)
		if t == "" {
			continue
		}
		if _, ok := skip[t]; ok {
			continue
		}
		titles = append(titles, t)
	}
	return titles
}

// JoinTitles joins titles with newlines, without a trailing newline.
func JoinTitles(titles []string) string {
	return strings.Join(titles, "\n")
}

// Extract is FilterTitles followed by JoinTitles.
func Extract(raw, excluded []string) string {
	return JoinTitles(FilterTitles(raw, excluded))
}
