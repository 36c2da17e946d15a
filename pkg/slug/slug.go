package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	validSlug   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugRuns = regexp.MustCompile(`[^a-z0-9]+`)
)

// Make derives a URL slug from a title, folding accents so "Héros d'Afrique"
// becomes "heros-d-afrique".
func Make(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}
	s := nonSlugRuns.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(s, "-")
}

// Valid reports whether s is already a normalized slug.
func Valid(s string) bool {
	return validSlug.MatchString(s)
}
