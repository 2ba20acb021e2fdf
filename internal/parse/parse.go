// Package parse converts a located table, card grid, or list into raw
// name/theme/link candidates using declarative selector configuration.
//
// All three modes share a fallback-chain contract: an absent or ineffective
// selector triggers an ordered list of generic guesses instead of an error,
// and a row with no recoverable name is discarded.
package parse

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/gradscout/internal/normalize"
	"github.com/jonathan/gradscout/internal/selector"
	"github.com/jonathan/gradscout/internal/types"
)

// Generic fallback chains, tried in order until one yields something.
var (
	cardItemFallbacks = []string{".card", ".profile", ".teacher", ".member", ".faculty-member", "article"}
	listItemFallbacks = []string{"li", ".item", "tr"}
	nameFallbacks     = []string{".name", ".title", "h3", "h2", "dt", "th"}
	themeFallbacks    = []string{".field", ".expertise", ".desc", ".tags", ".theme", "p", "dd"}
)

// themeHintRE gates the theme fallback guesses: an unselected element only
// counts as a theme when it mentions a research-field word, which keeps bio
// paragraphs and access notes out.
var themeHintRE = regexp.MustCompile(`専門|研究|マーケ|消費|統計|流通|サイエン|計量|テーマ|分野`)

// ThemeHint exposes the research-field gate for consumers that classify
// free-text lines the same way.
func ThemeHint() *regexp.Regexp { return themeHintRE }

// Parser binds the selector guard and normalizer used by every mode.
type Parser struct {
	Guard selector.Guard
	Norm  *normalize.Normalizer
}

// New returns a Parser over the default guard and normalizer.
func New() *Parser {
	return &Parser{Guard: selector.Default(), Norm: normalize.Default()}
}

// ByType dispatches on the page-type classification; unknown types parse as
// a list, the most forgiving mode.
func (p *Parser) ByType(doc *goquery.Document, base *url.URL, pt types.PageType, b types.SelectorBundle) []types.Candidate {
	switch pt {
	case types.PageTable:
		return p.Table(doc, base, b)
	case types.PageCards:
		return p.Cards(doc, base, b)
	default:
		return p.List(doc, base, b)
	}
}

// Table locates the table whose header row contains all configured header
// keywords (or matching the supplied table selector) and reads one candidate
// per body row from the configured name/theme column indexes. The link is
// the first anchor in the name cell.
func (p *Parser) Table(doc *goquery.Document, base *url.URL, b types.SelectorBundle) []types.Candidate {
	table := p.findTable(doc, b)
	if table == nil {
		return nil
	}

	nameIdx := b.NameCellIdx
	themeIdx := b.ThemeCellIdx
	if nameIdx == 0 && themeIdx == 0 {
		nameIdx, themeIdx = autoColumns(table)
	}
	maxIdx := nameIdx
	if themeIdx > maxIdx {
		maxIdx = themeIdx
	}

	var out []types.Candidate
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td, th")
		if cells.Length() <= maxIdx {
			return
		}
		nameCell := cells.Eq(nameIdx)
		name, ok := p.Norm.Name(cellText(nameCell), b.NameCleanup)
		if !ok {
			return
		}
		theme := p.Norm.Themes(cellText(cells.Eq(themeIdx)), b.ThemeSplit, b.ThemeExclude, b.MaxTopics)

		link := ""
		if a := nameCell.Find("a[href]").First(); a.Length() > 0 {
			if href, has := a.Attr("href"); has {
				link = selector.Absolute(base, href)
			}
		}
		fragment, _ := goquery.OuterHtml(tr)
		out = append(out, types.Candidate{
			Name: name, Theme: theme, Link: link,
			Fragment: fragment, Strategy: "css",
		})
	})
	return out
}

// autoNameRE spots name-shaped cells (whitespace-separated CJK pair) when no
// column indexes are configured.
var autoNameRE = regexp.MustCompile(`[一-龥々〆ヵヶ]{1,4}[ 　]+[一-龥々〆ヵヶ]{1,6}`)

// autoColumns elects the name and theme columns by scoring every column's
// cells: name-shaped pairs vote for the name column, research-field words for
// the theme column. The theme column never coincides with the name column;
// with no signal at all the conventional name-first layout applies.
func autoColumns(table *goquery.Selection) (nameIdx, themeIdx int) {
	var nameHits, themeHits []int
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		tr.Find("td, th").Each(func(ci int, cell *goquery.Selection) {
			for len(nameHits) <= ci {
				nameHits = append(nameHits, 0)
				themeHits = append(themeHits, 0)
			}
			text := cellText(cell)
			if autoNameRE.MatchString(text) {
				nameHits[ci]++
			}
			if themeHintRE.MatchString(text) {
				themeHits[ci]++
			}
		})
	})
	if len(nameHits) == 0 {
		return 0, 1
	}

	for ci := range nameHits {
		if nameHits[ci] > nameHits[nameIdx] {
			nameIdx = ci
		}
	}
	themeIdx = -1
	for ci := range themeHits {
		if ci == nameIdx {
			continue
		}
		if themeIdx < 0 || themeHits[ci] > themeHits[themeIdx] {
			themeIdx = ci
		}
	}
	if themeIdx < 0 {
		themeIdx = nameIdx + 1
	}
	return nameIdx, themeIdx
}

// findTable prefers the guarded table selector, then scans every table for a
// full header-keyword match. Both paths require the keywords when configured;
// with neither selector nor keywords there is nothing to anchor on.
func (p *Parser) findTable(doc *goquery.Document, b types.SelectorBundle) *goquery.Selection {
	if css, _ := p.Guard.SplitAttr(b.Table); css != "" {
		var found *goquery.Selection
		doc.Find(css).EachWithBreak(func(_ int, t *goquery.Selection) bool {
			if headerMatches(t, b.HeaderKeywords) {
				found = t
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	if len(b.HeaderKeywords) == 0 {
		return nil
	}
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if headerMatches(t, b.HeaderKeywords) {
			found = t
			return false
		}
		return true
	})
	return found
}

func headerMatches(table *goquery.Selection, keywords []string) bool {
	var parts []string
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		parts = append(parts, selector.CompressWS(th.Text()))
	})
	hdr := strings.Join(parts, " ")
	for _, k := range keywords {
		if !strings.Contains(hdr, k) {
			return false
		}
	}
	return true
}

// Cards iterates elements matched by the item selector (or the card fallback
// chain) and resolves name/theme/link sub-selectors within each.
func (p *Parser) Cards(doc *goquery.Document, base *url.URL, b types.SelectorBundle) []types.Candidate {
	return p.items(doc, base, b, cardItemFallbacks)
}

// List is the cards flow over list-shaped fallbacks.
func (p *Parser) List(doc *goquery.Document, base *url.URL, b types.SelectorBundle) []types.Candidate {
	return p.items(doc, base, b, listItemFallbacks)
}

func (p *Parser) items(doc *goquery.Document, base *url.URL, b types.SelectorBundle, fallbacks []string) []types.Candidate {
	var nodes *goquery.Selection
	if css, _ := p.Guard.SplitAttr(b.Item); css != "" {
		if s := doc.Find(css); s.Length() > 0 {
			nodes = s
		}
	}
	if nodes == nil {
		for _, fb := range fallbacks {
			if s := doc.Find(fb); s.Length() > 0 {
				nodes = s
				break
			}
		}
	}
	if nodes == nil {
		return nil
	}

	var out []types.Candidate
	nodes.Each(func(_ int, item *goquery.Selection) {
		name, ok := p.itemName(item, b)
		if !ok {
			return
		}
		theme := p.Norm.Themes(p.itemTheme(item, b), b.ThemeSplit, b.ThemeExclude, b.MaxTopics)
		link := p.Guard.Href(item, b.Link, base)
		lab := p.Guard.Text(item, b.Lab)
		tag := p.Guard.Text(item, b.Tag)
		fragment, _ := goquery.OuterHtml(item)
		out = append(out, types.Candidate{
			Name: name, Theme: theme, Link: link, Lab: lab, Tag: tag,
			Fragment: fragment, Strategy: "css",
		})
	})
	return out
}

// itemName resolves the name text: explicit selector, then generic guesses,
// then the item's first two whitespace tokens.
func (p *Parser) itemName(item *goquery.Selection, b types.SelectorBundle) (string, bool) {
	raw := p.Guard.Text(item, b.Name)
	if raw == "" {
		for _, fb := range nameFallbacks {
			if el := item.Find(fb).First(); el.Length() > 0 {
				if raw = selector.CompressWS(el.Text()); raw != "" {
					break
				}
			}
		}
	}
	if raw == "" {
		fields := strings.Fields(selector.CompressWS(item.Text()))
		if len(fields) > 2 {
			fields = fields[:2]
		}
		raw = strings.Join(fields, " ")
	}
	return p.Norm.Name(raw, b.NameCleanup)
}

// itemTheme resolves the raw theme text: explicit selector, then generic
// guesses gated on a research-field word.
func (p *Parser) itemTheme(item *goquery.Selection, b types.SelectorBundle) string {
	if raw := p.Guard.Text(item, b.Theme); raw != "" {
		return raw
	}
	for _, fb := range themeFallbacks {
		el := item.Find(fb).First()
		if el.Length() == 0 {
			continue
		}
		raw := selector.CompressWS(el.Text())
		if raw != "" && themeHintRE.MatchString(raw) {
			return raw
		}
	}
	return ""
}

func cellText(cell *goquery.Selection) string {
	if cell.Length() == 0 {
		return ""
	}
	return selector.NodeText(cell.Nodes[0])
}
