package normalize

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockTags get a line break so adjacent paragraphs do not run together.
const blockTags = "br, p, div, li, tr, h1, h2, h3, h4, h5, h6"

// cleanRichText strips markup from feed prose, unescapes entities and collapses whitespace.
func cleanRichText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.ContainsAny(raw, "<&") {
		return collapseWhitespace(raw)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapseWhitespace(html.UnescapeString(raw))
	}
	doc.Find("script, style").Remove()
	doc.Find(blockTags).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
