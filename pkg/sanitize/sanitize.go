// Package sanitize strips markup from user supplied text before it is stored
// or indexed.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text removes every HTML tag and collapses whitespace. Entities are
// unescaped so "a &lt; b" and "a < b" end up identical.
func Text(s string) string {
	// Replace block tags with spaces to prevent text merging
	s = strings.ReplaceAll(s, "</p>", " ")
	s = strings.ReplaceAll(s, "<br>", " ")
	s = strings.ReplaceAll(s, "</div>", " ")

	clean := html.UnescapeString(policy.Sanitize(s))
	return strings.Join(strings.Fields(clean), " ")
}

// Optional applies Text to a non-nil pointer and keeps nil as nil.
func Optional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := Text(*s)
	return &clean
}
