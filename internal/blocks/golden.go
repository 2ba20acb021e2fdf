package blocks

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/gradscout/internal/types"
)

// maxSeeds bounds seed collection so a keyword appearing in every row of a
// huge page cannot make the ancestor walk quadratic.
const maxSeeds = 64

// plausibleMin/Max bound the text length of a credible single-person entry.
const (
	plausibleMin = 40
	plausibleMax = 5000
)

// personalPathRE recognizes URL shapes that conventionally point at an
// individual's page rather than a listing.
var personalPathRE = regexp.MustCompile(`(?i)(/people/|/staff/|/profile|/members?/|/faculty/|/teachers?/|/researchers?/|/kyoin|/kyouin|profile\.html)`)

// LooksPersonal reports whether href structurally looks like an
// individual-entity URL.
func LooksPersonal(href string) bool {
	return personalPathRE.MatchString(href)
}

// goldenBlocks anchors extraction on high-confidence fragments: anchors whose
// target matches the golden link (or a personal-page URL shape) and
// containers whose text contains the golden name/theme or a title keyword.
// Each seed is expanded to its best-scoring enclosing container.
//
// Single-field regex matching on raw markup is brittle against boilerplate;
// expanding outward from golden fragments recovers the natural person-record
// boundary without a site-specific selector.
func goldenBlocks(doc *goquery.Document, opts Options, max int) []types.Block {
	titles := opts.titlePattern()
	var g types.Golden
	if opts.Golden != nil {
		g = *opts.Golden
	}
	groupID := "golden"
	if !opts.hasGolden() {
		groupID = "role"
	}

	var seeds []*html.Node
	seen := map[*html.Node]struct{}{}
	add := func(n *html.Node) {
		if _, dup := seen[n]; dup || len(seeds) >= maxSeeds {
			return
		}
		seen[n] = struct{}{}
		seeds = append(seeds, n)
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" {
			return
		}
		if (g.Link != "" && href == g.Link) || LooksPersonal(href) {
			add(a.Nodes[0])
		}
	})
	doc.Find("div, section, article, li, td, dd, tr").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		text := nodeText(n)
		if text == "" {
			return
		}
		switch {
		case g.Name != "" && strings.Contains(text, g.Name):
			add(n)
		case g.Theme != "" && strings.Contains(text, g.Theme):
			add(n)
		case titles.MatchString(text):
			add(n)
		}
	})

	var out []types.Block
	pathSeen := map[string]struct{}{}
	for _, seed := range seeds {
		best := bestContainer(seed, g, titles)
		path := cssPath(best)
		if _, dup := pathSeen[path]; dup {
			continue
		}
		pathSeen[path] = struct{}{}
		out = append(out, makeBlock(len(out)+1, groupID, best, nodeText(best)))
		if len(out) >= max {
			break
		}
	}
	return out
}

// bestContainer walks up to maxPathDepth ancestors from seed and returns the
// node with the strictly highest score tuple; ties keep the deeper node so
// containers stay tight around the entry.
func bestContainer(seed *html.Node, g types.Golden, titles *regexp.Regexp) *html.Node {
	best := seed
	bestScore := scoreNode(seed, g, titles)
	cur := seed.Parent
	for lvl := 0; lvl < maxPathDepth && cur != nil && cur.Type == html.ElementNode; lvl++ {
		if cur.Data == "body" || cur.Data == "html" {
			break
		}
		sc := scoreNode(cur, g, titles)
		if scoreGreater(sc, bestScore) {
			best, bestScore = cur, sc
		}
		cur = cur.Parent
	}
	return best
}

// scoreNode evaluates one candidate container. Dimensions are ordered by
// priority for the lexicographic compare: exact golden link, golden name,
// golden theme, personal-link shape, title keyword, image, plausible entry
// length.
func scoreNode(n *html.Node, g types.Golden, titles *regexp.Regexp) [7]int {
	var sc [7]int
	text := nodeText(n)

	for _, lp := range nodeLinks(n) {
		if g.Link != "" && lp.href == g.Link {
			sc[0] = 1
		}
		if LooksPersonal(lp.href) {
			sc[3] = 1
		}
	}
	if g.Name != "" && strings.Contains(text, g.Name) {
		sc[1] = 1
	}
	if g.Theme != "" && strings.Contains(text, g.Theme) {
		sc[2] = 1
	}
	if titles.MatchString(text) {
		sc[4] = 1
	}
	if hasImage(n) {
		sc[5] = 1
	}
	if l := len(text); l >= plausibleMin && l <= plausibleMax {
		sc[6] = 1
	}
	return sc
}

func scoreGreater(a, b [7]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}
