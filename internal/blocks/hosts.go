package blocks

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/gradscout/internal/types"
)

// Rule is one host-specific extraction strategy. Rules exist for the small
// set of pages whose tag nesting is irregular enough that generic grouping
// fails; a claiming rule short-circuits the golden and generic paths when it
// produces any row.
type Rule struct {
	// Tag becomes the GroupID of emitted blocks.
	Tag string
	// Match claims a page by URL.
	Match func(u *url.URL) bool
	// Extract runs the dedicated traversal.
	Extract func(doc *goquery.Document, base *url.URL, titles *regexp.Regexp) []types.Block
}

// Registry maps URL predicates to dedicated extraction strategies.
type Registry struct {
	rules []Rule
}

// NewRegistry builds a registry over the given rules, consulted in order.
func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: rules}
}

// Claim returns the first rule matching pageURL, or nil.
func (r *Registry) Claim(pageURL string) *Rule {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	for i := range r.rules {
		if r.rules[i].Match(u) {
			return &r.rules[i]
		}
	}
	return nil
}

// HostPath matches an exact hostname plus a path prefix.
func HostPath(host, pathPrefix string) func(u *url.URL) bool {
	return func(u *url.URL) bool {
		return u.Host == host && strings.HasPrefix(u.Path, pathPrefix)
	}
}

// DefaultRegistry carries the known exception hosts.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Rule{
			Tag:     "fbc-keio-dl",
			Match:   HostPath("www.fbc.keio.ac.jp", "/graduate"),
			Extract: ExtractDefinitionPairs,
		},
		Rule{
			Tag:     "econ-lablist",
			Match:   HostPath("www.econ.metro-u.ac.jp", "/faculty"),
			Extract: ExtractLabLists,
		},
	)
}

// ExtractDefinitionPairs pairs dt/dd siblings into one block per term and
// keeps only pairs containing a person-link shape. Pages that interleave
// name terms and description elements without any shared container defeat
// signature grouping, so the pairing is done positionally.
func ExtractDefinitionPairs(doc *goquery.Document, _ *url.URL, _ *regexp.Regexp) []types.Block {
	var out []types.Block
	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		root := dl.Nodes[0]
		var dt *html.Node
		var texts []string
		var links []linkPair

		flush := func() {
			if dt == nil {
				return
			}
			personal := false
			for _, lp := range links {
				if LooksPersonal(lp.href) {
					personal = true
					break
				}
			}
			if personal {
				b := makeBlock(len(out)+1, "fbc-keio-dl", dt, strings.Join(texts, "\n"))
				b.Links = nil
				for _, lp := range links {
					b.Links = append(b.Links, types.Link{Href: lp.href, Text: lp.text})
				}
				out = append(out, b)
			}
			dt, texts, links = nil, nil, nil
		}

		for c := root.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "dt":
				flush()
				dt = c
				texts = append(texts, nodeText(c))
				links = append(links, nodeLinks(c)...)
			case "dd":
				if dt != nil {
					texts = append(texts, nodeText(c))
					links = append(links, nodeLinks(c)...)
				}
			}
		}
		flush()
	})
	return out
}

// labLinkRE spots anchors pointing at a laboratory page.
var labLinkRE = regexp.MustCompile(`(?i)(/labs?/|/seminar|研究室)`)

// ExtractLabLists filters list items by their lab-link count. A role keyword
// in the item licenses up to 5 lab links; without one, exactly 1 link is
// required, since a single unambiguous link is the only reliable signal that
// the item is a person entry.
func ExtractLabLists(doc *goquery.Document, _ *url.URL, titles *regexp.Regexp) []types.Block {
	var out []types.Block
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		n := li.Nodes[0]
		text := nodeText(n)
		if text == "" {
			return
		}
		labLinks := 0
		for _, lp := range nodeLinks(n) {
			if labLinkRE.MatchString(lp.href) || labLinkRE.MatchString(lp.text) {
				labLinks++
			}
		}
		hasRole := titles.MatchString(text)
		if hasRole {
			if labLinks == 0 || labLinks > 5 {
				return
			}
		} else if labLinks != 1 {
			return
		}
		out = append(out, makeBlock(len(out)+1, "econ-lablist", n, text))
	})
	return out
}
