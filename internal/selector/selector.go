// Package selector validates and safely applies user-supplied CSS-like
// selectors. Spreadsheet-driven configuration tends to leak template
// scaffolding (the literal words "name", "theme", ...) into selector cells;
// the guard treats those as absent so they never reach the CSS engine.
package selector

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Guard holds the placeholder vocabulary. The set is explicit rather than a
// package global so tests can substitute vocabularies per locale.
type Guard struct {
	placeholders map[string]struct{}
}

// DefaultPlaceholders are the field-name words used as template scaffolding
// in the target spreadsheet, in both working languages.
func DefaultPlaceholders() []string {
	return []string{
		"name", "theme", "link", "item", "lab", "tag",
		"href", "alt", "src",
		"名前", "テーマ", "リンク", "研究室", "タグ",
	}
}

// NewGuard builds a Guard over the given placeholder literals.
func NewGuard(placeholders []string) Guard {
	set := make(map[string]struct{}, len(placeholders))
	for _, p := range placeholders {
		set[strings.TrimSpace(p)] = struct{}{}
	}
	return Guard{placeholders: set}
}

// Default returns a Guard over DefaultPlaceholders.
func Default() Guard {
	return NewGuard(DefaultPlaceholders())
}

// IsEffective reports whether s is a usable selector: non-empty after
// trimming and not a placeholder literal.
func (g Guard) IsEffective(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, placeholder := g.placeholders[s]
	return !placeholder
}

// SplitAttr separates an optional "@attribute" suffix from a selector string.
// Both halves are independently subject to the placeholder check: an
// ineffective CSS half voids the whole selector, a placeholder attribute half
// is dropped while the CSS half survives.
func (g Guard) SplitAttr(s string) (css, attr string) {
	if !g.IsEffective(s) {
		return "", ""
	}
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "@"); i >= 0 {
		css = strings.TrimSpace(s[:i])
		attr = strings.TrimSpace(s[i+1:])
		if css == "" || attr == "" {
			return "", ""
		}
		if _, placeholder := g.placeholders[attr]; placeholder {
			attr = ""
		}
		return css, attr
	}
	return s, ""
}

// Text resolves a guarded selector against root and returns the
// whitespace-compressed text (or attribute value) of the first match.
// An ineffective selector or an empty match yields "".
func (g Guard) Text(root *goquery.Selection, sel string) string {
	css, attr := g.SplitAttr(sel)
	if css == "" {
		return ""
	}
	el := root.Find(css).First()
	if el.Length() == 0 {
		return ""
	}
	if attr != "" {
		v, _ := el.Attr(attr)
		return CompressWS(v)
	}
	return CompressWS(el.Text())
}

// urlAttrs are attribute names whose values are URLs and should be resolved
// against the page base.
var urlAttrs = map[string]struct{}{
	"href": {}, "src": {}, "data-href": {}, "data-url": {},
}

// Href resolves a guarded selector to an absolute URL against base.
// When the selector is absent or matches nothing, the first a[href] inside
// root is used as a fallback.
func (g Guard) Href(root *goquery.Selection, sel string, base *url.URL) string {
	css, attr := g.SplitAttr(sel)
	if css != "" {
		el := root.Find(css).First()
		if el.Length() > 0 {
			if attr != "" {
				v, ok := el.Attr(attr)
				if !ok || v == "" {
					return ""
				}
				if _, isURL := urlAttrs[strings.ToLower(attr)]; isURL {
					return Absolute(base, v)
				}
				return CompressWS(v)
			}
			if href, ok := el.Attr("href"); ok {
				return Absolute(base, href)
			}
		}
	}
	a := root.Find("a[href]").First()
	if a.Length() > 0 {
		if href, ok := a.Attr("href"); ok {
			return Absolute(base, href)
		}
	}
	return ""
}

var wsRE = regexp.MustCompile(`[\s\x{3000}]+`)

// CompressWS collapses all whitespace runs (including ideographic space) to
// single ASCII spaces and trims the result.
func CompressWS(s string) string {
	return strings.TrimSpace(wsRE.ReplaceAllString(s, " "))
}

// Absolute resolves href against base. A nil base or unparseable href
// returns href unchanged.
func Absolute(base *url.URL, href string) string {
	if base == nil || href == "" {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
