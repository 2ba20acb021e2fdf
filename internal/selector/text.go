package selector

import (
	"strings"

	"golang.org/x/net/html"
)

// breakTags mark element boundaries that become line breaks in NodeText.
var breakTags = map[string]struct{}{
	"p": {}, "div": {}, "li": {}, "tr": {}, "td": {}, "th": {},
	"dt": {}, "dd": {}, "section": {}, "article": {}, "ul": {}, "ol": {},
	"table": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
}

// NodeText renders the text content of n with line breaks at block-element
// boundaries. Line structure is the signal the downstream layout heuristics
// key on, so plain text concatenation is not enough.
func NodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			if t := strings.TrimSpace(c.Data); t != "" {
				b.WriteString(t)
				b.WriteString(" ")
			}
		case html.ElementNode:
			if c.Data == "br" {
				b.WriteString("\n")
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
		if c.Type == html.ElementNode {
			if _, blk := breakTags[c.Data]; blk {
				b.WriteString("\n")
			}
		}
	}
	walk(n)

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, ln := range lines {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}
