// Package sanitize cleans free-text input before it is stored or printed on documents.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// Text strips all markup and surrounding whitespace. Entities produced by the
// policy are decoded again so names like "A & B" survive intact.
func Text(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}

// Ptr sanitizes an optional value, keeping nil as nil.
func Ptr(input *string) *string {
	if input == nil {
		return nil
	}
	out := Text(*input)
	return &out
}
