package pipeline

import (
	"context"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/gradscout/internal/blocks"
	"github.com/jonathan/gradscout/internal/normalize"
	"github.com/jonathan/gradscout/internal/parse"
	"github.com/jonathan/gradscout/internal/types"
)

// PageContext carries everything one extraction strategy needs for one page.
type PageContext struct {
	Target *types.Target
	Page   types.Page
	Doc    *goquery.Document
	Base   *url.URL

	// Blocks holds the block-extractor output once the blocks strategy has
	// run, reused for screenshots and evidence.
	Blocks []types.Block
}

// Strategy is one named extraction approach. Returning an empty slice means
// "nothing found, try the next one"; strategies do not error.
type Strategy struct {
	Name    string
	Extract func(ctx context.Context, pc *PageContext) []types.Candidate
}

// cascade runs strategies in priority order and stops at the first non-empty
// result, returning the winning strategy name.
func cascade(ctx context.Context, pc *PageContext, strategies []Strategy) ([]types.Candidate, string) {
	for _, s := range strategies {
		if cands := s.Extract(ctx, pc); len(cands) > 0 {
			return cands, s.Name
		}
		if ctx.Err() != nil {
			return nil, ""
		}
	}
	return nil, ""
}

// cssStrategy is the declarative selector pass.
func (r *Runner) cssStrategy() Strategy {
	return Strategy{
		Name: "css",
		Extract: func(_ context.Context, pc *PageContext) []types.Candidate {
			return r.parser.ByType(pc.Doc, pc.Base, pc.Page.Type, pc.Page.Selectors)
		},
	}
}

// blocksStrategy discovers person blocks structurally and reads a candidate
// out of each.
func (r *Runner) blocksStrategy() Strategy {
	return Strategy{
		Name: "blocks",
		Extract: func(_ context.Context, pc *PageContext) []types.Candidate {
			pc.Blocks = blocks.Extract(pc.Doc, pc.Page.URL, r.opts.MaxBlocks, blocks.Options{
				Golden:   pc.Target.Golden,
				Registry: r.registry,
			})
			var out []types.Candidate
			for _, b := range pc.Blocks {
				if c, ok := blockCandidate(b); ok {
					out = append(out, c)
				}
			}
			return out
		},
	}
}

// blockCandidate reads a name/theme/link triple out of one block's text and
// links. Blocks with no recoverable name are skipped like any CSS row.
func blockCandidate(b types.Block) (types.Candidate, bool) {
	c := types.Candidate{
		Tag:      b.GroupID,
		Fragment: b.Text,
		Strategy: "blocks",
	}
	lines := splitLines(b.Text)
	for _, ln := range lines {
		// theme-ish lines can contain fused ideograph runs that pass for
		// names, so they are never name material
		if themeLineRE.MatchString(ln) {
			continue
		}
		if name, ok := normalize.Name(ln, ""); ok {
			c.Name = name
			break
		}
	}
	if c.Name == "" {
		return c, false
	}
	for _, ln := range lines {
		if themeLineRE.MatchString(ln) {
			raw := themeLabelRE.ReplaceAllString(ln, "")
			if theme := normalize.Themes(raw, "", "", 0); theme != "" && theme != c.Name {
				c.Theme = theme
				break
			}
		}
	}
	for _, l := range b.Links {
		if blocks.LooksPersonal(l.Href) {
			c.Link = l.Href
			break
		}
	}
	if c.Link == "" && len(b.Links) == 1 {
		c.Link = b.Links[0].Href
	}
	return c, true
}

var (
	themeLineRE = parse.ThemeHint()
	// themeLabelRE strips the field label block text keeps glued to the
	// topic list.
	themeLabelRE = regexp.MustCompile(`^(専門分野|研究分野|研究テーマ|キーワード|専門)[:：\s]*`)
)

func splitLines(text string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			if ln := text[start:i]; ln != "" {
				out = append(out, ln)
			}
			start = i + 1
		}
	}
	return out
}
