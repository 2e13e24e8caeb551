package services

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphens  = regexp.MustCompile(`-+`)
)

const slugMaxLen = 100

// Slugify turns free text into a [a-z0-9-] slug: diacritics stripped,
// non-alphanumerics collapsed to hyphens, trimmed, capped at slugMaxLen.
// Falls back to "event" when nothing survives.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// Strip diacritics (é → e).
	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = string(buf)

	s = reNonAlnum.ReplaceAllString(s, "-")
	s = reHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > slugMaxLen {
		s = strings.Trim(s[:slugMaxLen], "-")
	}
	if s == "" {
		s = "event"
	}
	return s
}

// randomSlugSuffix returns a short random token for de-duplicating past-event
// slugs on collision.
func randomSlugSuffix() string {
	return uuid.NewString()[:8]
}
