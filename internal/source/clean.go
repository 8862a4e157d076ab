package source

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var markupPattern = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

// Clean reduces scraped markup to visible text, unescapes entities and
// NFC-normalizes the result
func Clean(text string) string {
	if markupPattern.MatchString(text) {
		if doc, err := html.Parse(strings.NewReader(text)); err == nil {
			text = visibleText(doc)
		}
	} else if strings.Contains(text, "&") {
		text = html.UnescapeString(text)
	}

	return strings.TrimSpace(norm.NFC.String(text))
}

// visibleText concatenates text nodes, skipping scripts and styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}
