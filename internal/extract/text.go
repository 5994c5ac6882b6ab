package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Elements that introduce a visual line break. Used to approximate the
// browser's innerText when flattening a card into lines.
var blockTags = map[string]bool{
	"br": true, "div": true, "p": true, "li": true, "ul": true, "ol": true,
	"section": true, "header": true, "footer": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// visibleText flattens a selection into text with newlines at block
// boundaries, approximating what a user sees on screen.
func visibleText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		appendVisibleText(n, &b)
	}
	return b.String()
}

func appendVisibleText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
	}
	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendVisibleText(c, b)
	}
	if block {
		b.WriteByte('\n')
	}
}

// visibleLines returns the non-empty trimmed lines of a selection's visible
// text, in document order.
func visibleLines(sel *goquery.Selection) []string {
	var out []string
	for _, l := range strings.Split(visibleText(sel), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// firstLine returns the first non-empty trimmed line of s.
func firstLine(s string) string {
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}
