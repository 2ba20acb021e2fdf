// Package blocks discovers candidate "person blocks" in an HTML document.
//
// Three strategies run in fixed precedence: a registry of host-specific rules
// for known irregular layouts, golden-example-guided container expansion when
// operator hints are available, and generic grouping by structural signature
// as the default. Output ordering is deterministic for a fixed input.
package blocks

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/gradscout/internal/normalize"
	"github.com/jonathan/gradscout/internal/types"
)

// DefaultMaxBlocks bounds the number of blocks reported per page.
const DefaultMaxBlocks = 300

// containerTags are the tags considered block candidates by the generic path.
const containerTags = "div, section, article, li, td"

// Options configures one extraction pass.
type Options struct {
	// Golden supplies known-correct name/theme/link values for one entry
	// on the page; any non-empty field activates seed expansion.
	Golden *types.Golden
	// PreferRole seeds expansion from academic-title keywords even without
	// a golden example.
	PreferRole bool
	// Registry of host-specific rules, consulted before everything else.
	// Nil means no host rules.
	Registry *Registry
	// Titles overrides the academic-title pattern used as a person signal.
	// Nil means the default vocabulary.
	Titles *regexp.Regexp
}

func (o Options) titlePattern() *regexp.Regexp {
	if o.Titles != nil {
		return o.Titles
	}
	return normalize.Default().TitlePattern()
}

func (o Options) hasGolden() bool {
	return o.Golden != nil && (o.Golden.Name != "" || o.Golden.Theme != "" || o.Golden.Link != "")
}

// Extract returns up to max Blocks most likely to each represent one person.
//
// Host rules short-circuit the other strategies when they produce any row.
// The golden path degrades to generic grouping when it selects nothing.
func Extract(doc *goquery.Document, pageURL string, max int, opts Options) []types.Block {
	if max <= 0 {
		max = DefaultMaxBlocks
	}
	base := prepare(doc, pageURL)

	if opts.Registry != nil {
		if rule := opts.Registry.Claim(pageURL); rule != nil {
			if rows := rule.Extract(doc, base, opts.titlePattern()); len(rows) > 0 {
				return truncate(rows, max)
			}
		}
	}
	if opts.hasGolden() || opts.PreferRole {
		if rows := goldenBlocks(doc, opts, max); len(rows) > 0 {
			return rows
		}
	}
	return genericBlocks(doc, max)
}

type entry struct {
	node *html.Node
	text string
	pos  int
}

type group struct {
	sig     string
	entries []entry
	maxLen  int
	first   int
}

// genericBlocks groups container elements by structural signature
// (parent tag, own tag, immediate-child tag multiset) and flattens groups
// ordered by descending size, then descending maximum text length.
//
// The repeating listing pattern produces the largest group of structurally
// identical siblings; within a size tie, richer blocks are likelier genuine
// entries than boilerplate.
func genericBlocks(doc *goquery.Document, max int) []types.Block {
	groups := map[string]*group{}
	var order []string

	doc.Find(containerTags).Each(func(pos int, s *goquery.Selection) {
		n := s.Nodes[0]
		text := nodeText(n)
		if text == "" {
			return
		}
		parentTag := "root"
		if n.Parent != nil && n.Parent.Type == html.ElementNode {
			parentTag = n.Parent.Data
		}
		sig := parentTag + "|" + n.Data + "|" + childSignature(n)
		g, ok := groups[sig]
		if !ok {
			g = &group{sig: sig, first: pos}
			groups[sig] = g
			order = append(order, sig)
		}
		g.entries = append(g.entries, entry{node: n, text: text, pos: pos})
		if len(text) > g.maxLen {
			g.maxLen = len(text)
		}
	})

	ordered := make([]*group, 0, len(order))
	for _, sig := range order {
		ordered = append(ordered, groups[sig])
	}
	// size desc, max text length desc, first document position asc
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && groupLess(ordered[j], ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	var out []types.Block
	for _, g := range ordered {
		for _, e := range g.entries {
			out = append(out, makeBlock(len(out)+1, g.sig, e.node, e.text))
			if len(out) >= max {
				return out
			}
		}
	}
	return out
}

func groupLess(a, b *group) bool {
	if len(a.entries) != len(b.entries) {
		return len(a.entries) > len(b.entries)
	}
	if a.maxLen != b.maxLen {
		return a.maxLen > b.maxLen
	}
	return a.first < b.first
}

func makeBlock(id int, groupID string, n *html.Node, text string) types.Block {
	if len(text) > maxBlockText {
		text = text[:maxBlockText]
	}
	var links []types.Link
	for _, lp := range nodeLinks(n) {
		links = append(links, types.Link{Href: lp.href, Text: lp.text})
	}
	tag := n.Data
	if len(tag) > 0 {
		tag = upperASCII(tag)
	}
	return types.Block{
		ID:       id,
		Tag:      tag,
		Depth:    nodeDepth(n),
		GroupID:  groupID,
		Path:     cssPath(n),
		HasImage: hasImage(n),
		Text:     text,
		Links:    links,
	}
}

func truncate(rows []types.Block, max int) []types.Block {
	if len(rows) > max {
		rows = rows[:max]
	}
	return rows
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
