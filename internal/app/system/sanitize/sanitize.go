// Package sanitize strips markup from user-supplied complaint text
// before it is stored or embedded into search documents.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes all HTML from s, unescapes entities, and trims
// surrounding whitespace. Complaint titles and descriptions pass
// through here before validation so that a tag-only body counts as
// blank.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
