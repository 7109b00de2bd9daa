package reddit

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// decodeEntities turns the HTML escaped text Reddit returns ("&amp;", "&lt;") back into plain text.
func decodeEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<pre>" + s + "</pre>"))
	if err != nil {
		return s
	}
	return doc.Find("pre").First().Text()
}
