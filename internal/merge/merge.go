// Package merge assigns a stable identity key to every candidate record so
// that repeated observations of the same person, across extraction passes and
// source pages, collapse into one logical record without collapsing distinct
// people who share no identifying field.
package merge

import (
	"fmt"
	"hash/fnv"
	"net/url"

	"github.com/jonathan/gradscout/internal/blocks"
	"github.com/jonathan/gradscout/internal/normalize"
	"github.com/jonathan/gradscout/internal/types"
)

// KeyKind names which rung of the identity ladder produced a key.
type KeyKind string

const (
	KeyLink     KeyKind = "link"
	KeyNameLab  KeyKind = "name+lab"
	KeyName     KeyKind = "name"
	KeyFragment KeyKind = "fragment"
	KeySequence KeyKind = "sequence"
)

// DropReason categorizes bulk-mode rejections.
type DropReason string

const (
	DropNoIdentity  DropReason = "no-identity"
	DropImplausible DropReason = "implausible-name"
)

// Status is the coarse per-target outcome attached to diagnostics.
type Status string

const (
	StatusZero      Status = "zero-extraction"
	StatusOvermerge Status = "suspicious-overmerge"
	StatusOK        Status = "ok"
)

// overmergeMin and overmergeRatio flag a target where many observations
// collapsed into very few identities, which usually means a bad key (for
// example every row carrying the listing page's own URL as its link).
const (
	overmergeMin   = 6
	overmergeRatio = 3
)

// Key derives the identity key for c, in strict priority order: individual
// link, name+lab, name alone, fragment hash, then the supplied sequence
// number as the last resort.
func Key(c types.Candidate, listURL string, seq int) (string, KeyKind) {
	if individualLink(c.Link, listURL) {
		return "link|" + c.Link, KeyLink
	}
	if c.Name != "" && c.Lab != "" {
		return "name+lab|" + c.Name + "|" + c.Lab, KeyNameLab
	}
	if c.Name != "" {
		return "name|" + c.Name, KeyName
	}
	if c.Fragment != "" {
		h := fnv.New64a()
		h.Write([]byte(c.Fragment))
		return fmt.Sprintf("frag|%x", h.Sum64()), KeyFragment
	}
	return fmt.Sprintf("seq|%d", seq), KeySequence
}

// individualLink reports whether link identifies an individual entity: it
// matches a known personal-page path shape, or is demonstrably neither the
// listing page's own URL nor a site root.
func individualLink(link, listURL string) bool {
	if link == "" {
		return false
	}
	if blocks.LooksPersonal(link) {
		return true
	}
	if link == listURL {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return u.Path != "" && u.Path != "/"
}

// ShouldDrop applies the bulk-mode rejection rules: an observation with no
// name and no link carries no identity at all, and an implausible name
// backed only by a non-individual link is almost always navigation text.
func ShouldDrop(c types.Candidate, listURL string) (DropReason, bool) {
	if c.Name == "" && c.Link == "" {
		return DropNoIdentity, true
	}
	if c.Name != "" && !normalize.Plausible(c.Name) && !individualLink(c.Link, listURL) {
		return DropImplausible, true
	}
	return "", false
}

// Options configure an Engine for one target page set.
type Options struct {
	// ListURL is the listing page URL, used to disqualify self-links as
	// identity keys.
	ListURL string
	// Bulk enables the bulk-mode rejection rules on Add.
	Bulk bool
}

type entry struct {
	c    types.Candidate
	kind KeyKind
}

// Engine accumulates candidate observations and merges them by identity key.
// Insertion order of first observation is preserved in Results.
type Engine struct {
	opts  Options
	seq   int
	order []string
	byKey map[string]*entry
	kinds map[KeyKind]int
	drops map[DropReason]int
}

// New returns an empty Engine.
func New(opts Options) *Engine {
	return &Engine{
		opts:  opts,
		byKey: map[string]*entry{},
		kinds: map[KeyKind]int{},
		drops: map[DropReason]int{},
	}
}

// Add merges one observation. Dropped observations are counted, not errors.
func (e *Engine) Add(c types.Candidate) {
	e.AddFrom(c, e.opts.ListURL)
}

// AddFrom is Add with an explicit listing-page URL, for engines that span
// several pages of one target.
func (e *Engine) AddFrom(c types.Candidate, listURL string) {
	if listURL == "" {
		listURL = e.opts.ListURL
	}
	e.seq++
	if e.opts.Bulk {
		if reason, drop := ShouldDrop(c, listURL); drop {
			e.drops[reason]++
			return
		}
	}
	key, kind := Key(c, listURL, e.seq)
	if prev, ok := e.byKey[key]; ok {
		mergeInto(&prev.c, c)
		return
	}
	e.byKey[key] = &entry{c: c, kind: kind}
	e.order = append(e.order, key)
	e.kinds[kind]++
}

// mergeInto folds a later observation into the first one for the same key.
// Themes are unioned and re-capped; link/lab/tag fill only when empty; the
// name is never second-guessed once set.
func mergeInto(dst *types.Candidate, src types.Candidate) {
	if src.Theme != "" {
		if dst.Theme == "" {
			dst.Theme = normalize.Themes(src.Theme, "", "", 0)
		} else {
			dst.Theme = normalize.Themes(dst.Theme+"\n"+src.Theme, "", "", 0)
		}
	}
	if dst.Link == "" {
		dst.Link = src.Link
	}
	if dst.Lab == "" {
		dst.Lab = src.Lab
	}
	if dst.Tag == "" {
		dst.Tag = src.Tag
	}
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Source == "" {
		dst.Source = src.Source
	}
}

// Results returns the merged candidates in first-observation order.
func (e *Engine) Results() []types.Candidate {
	out := make([]types.Candidate, 0, len(e.order))
	for _, key := range e.order {
		out = append(out, e.byKey[key].c)
	}
	return out
}

// Diagnostics summarize one target's merge outcome.
type Diagnostics struct {
	Observed int
	Merged   int
	Kinds    map[KeyKind]int
	Drops    map[DropReason]int
	Status   Status
}

// Diagnostics reports counters and the coarse status for everything added so
// far.
func (e *Engine) Diagnostics() Diagnostics {
	d := Diagnostics{
		Observed: e.seq,
		Merged:   len(e.order),
		Kinds:    map[KeyKind]int{},
		Drops:    map[DropReason]int{},
		Status:   StatusOK,
	}
	for k, v := range e.kinds {
		d.Kinds[k] = v
	}
	for k, v := range e.drops {
		d.Drops[k] = v
	}
	switch {
	case d.Merged == 0:
		d.Status = StatusZero
	case d.Observed >= overmergeMin && d.Merged*overmergeRatio <= d.Observed:
		d.Status = StatusOvermerge
	}
	return d
}
