// Package slug normalizes titles and names into URL slugs.
package slug

import (
	"regexp"
	"strings"
)

var (
	invalid  = regexp.MustCompile(`[^a-z0-9]+`)
	hyphens  = regexp.MustCompile(`-{2,}`)
	validRef = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Make lowercases s and collapses every run of non-alphanumeric characters
// into a single hyphen.
func Make(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = invalid.ReplaceAllString(s, "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return validRef.MatchString(s)
}
