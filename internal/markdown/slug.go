package markdown

import (
	"regexp"
	"strings"
)

var (
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)
	slugDashRunRe = regexp.MustCompile(`-{2,}`)
)

// Slugify converts a title to a URL-safe slug: lowercase ASCII letters and
// digits separated by single hyphens. Returns "untitled" for input with no
// usable characters.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugInvalidRe.ReplaceAllString(slug, "-")
	slug = slugDashRunRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}
