package html

import (
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

// Pre-compiled regular expressions for HTML parsing performance.
var (
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	svgTag        = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|ul|ol|tr|td|blockquote|pre|table|section)\b[^>]*>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
)

// Article returns raw with markup removed from every text field.
// URL and source are left alone.
func Article(raw domain.RawArticle) domain.RawArticle {
	raw.Title = Text(raw.Title)
	raw.Abstract = Text(raw.Abstract)
	raw.Summary = Text(raw.Summary)
	if raw.Authors != nil {
		authors := make(domain.AuthorList, len(raw.Authors))
		for i, a := range raw.Authors {
			authors[i] = Text(a)
		}
		raw.Authors = authors
	}
	if raw.Keywords != nil {
		keywords := make([]string, len(raw.Keywords))
		for i, k := range raw.Keywords {
			keywords[i] = Text(k)
		}
		raw.Keywords = keywords
	}
	return raw
}

// Text strips tags, drops script and style content, and decodes entities.
// Block elements become spaces; inline elements join their neighbours.
func Text(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	s = scriptTag.ReplaceAllString(s, "")
	s = styleTag.ReplaceAllString(s, "")
	s = svgTag.ReplaceAllString(s, "")
	s = htmlComments.ReplaceAllString(s, "")
	s = blockElements.ReplaceAllString(s, " ")
	s = allTags.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	return strings.Join(strings.Fields(s), " ")
}
