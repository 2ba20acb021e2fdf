package blocks

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/gradscout/internal/selector"
)

// maxBlockText caps the text carried per block so one runaway container
// cannot blow up the output sheet cell.
const maxBlockText = 45000

// maxPathDepth bounds structural paths and ancestor walks.
const maxPathDepth = 8

// removedTags are boilerplate containers stripped before block discovery.
const removedTags = "script, style, noscript, svg, canvas, nav, aside, footer, header"

// prepare strips boilerplate, resolves the effective base URL (honoring
// <base href>), and rewrites every a[href] / img[src] to an absolute URL so
// downstream consumers never see page-relative links.
func prepare(doc *goquery.Document, pageURL string) *url.URL {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && base != nil {
		if resolved, err := url.Parse(selector.Absolute(base, href)); err == nil {
			base = resolved
		}
	}

	doc.Find(removedTags).Remove()

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			a.SetAttr("href", selector.Absolute(base, href))
		}
	})
	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok {
			img.SetAttr("src", selector.Absolute(base, src))
		}
	})
	return base
}

// nodeText is the block-level text rendering used for grouping and scoring.
func nodeText(n *html.Node) string {
	return selector.NodeText(n)
}

// childSignature is the multiset of immediate element-child tag counts,
// rendered deterministically ("a:2;img:1;span:3").
func childSignature(n *html.Node) string {
	counts := map[string]int{}
	var tags []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if counts[c.Data] == 0 {
			tags = append(tags, c.Data)
		}
		counts[c.Data]++
	}
	// insertion order is document order; sort for a stable signature
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j] < tags[j-1]; j-- {
			tags[j], tags[j-1] = tags[j-1], tags[j]
		}
	}
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, fmt.Sprintf("%s:%d", t, counts[t]))
	}
	return strings.Join(parts, ";")
}

// nthOfType is the 1-based index of n among same-tag siblings.
func nthOfType(n *html.Node) int {
	idx := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == n.Data {
			idx++
		}
	}
	return idx
}

// cssPath renders an nth-of-type step path from (at most) maxPathDepth
// ancestors down to n. It identifies a container across extraction passes.
func cssPath(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode && len(parts) < maxPathDepth; cur = cur.Parent {
		parts = append(parts, fmt.Sprintf("%s:nth-of-type(%d)", cur.Data, nthOfType(cur)))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ">")
}

// nodeDepth counts element ancestors up to the document root.
func nodeDepth(n *html.Node) int {
	d := 0
	for cur := n; cur != nil; cur = cur.Parent {
		d++
	}
	return d
}

func hasImage(n *html.Node) bool {
	var found bool
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if found {
			return
		}
		if c.Type == html.ElementNode && c.Data == "img" {
			found = true
			return
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return found
}

func attrVal(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// nodeLinks collects (href, anchor text) pairs under n in document order.
func nodeLinks(n *html.Node) []linkPair {
	var out []linkPair
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && c.Data == "a" {
			if href := attrVal(c, "href"); href != "" {
				out = append(out, linkPair{href: href, text: selector.CompressWS(nodeText(c))})
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return out
}

type linkPair struct {
	href string
	text string
}
