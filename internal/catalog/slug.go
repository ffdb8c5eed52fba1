package catalog

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 150

// Slugify lower-cases s, strips diacritics and joins letter/digit runs with '-'.
// Non-Latin letters are kept.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if r := []rune(out); len(r) > maxSlugLen {
		out = strings.TrimSuffix(string(r[:maxSlugLen]), "-")
	}
	return out
}

// uniqueSlug appends -2, -3, ... until the slug is free. Empty names give no slug.
func uniqueSlug(ctx context.Context, repo Repository, name string) (*string, error) {
	base := Slugify(name)
	if base == "" {
		return nil, nil
	}
	candidate := base
	for n := 2; ; n++ {
		taken, err := repo.SlugExists(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !taken {
			return &candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}
