// Package slug turns display names into ASCII keys for the snapshot mirror.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonKey = regexp.MustCompile(`[^a-z0-9_]+`)

// Make lowercases s, strips diacritics, and replaces every run of characters
// outside [a-z0-9_] with a single underscore. Leading and trailing
// underscores are trimmed. Returns "" if nothing survives.
func Make(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	out := nonKey.ReplaceAllString(strings.ToLower(folded), "_")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}

// Key joins the slugs of parts with ':' and skips empty parts.
func Key(parts ...string) string {
	keep := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := Make(p); s != "" {
			keep = append(keep, s)
		}
	}
	return strings.Join(keep, ":")
}
