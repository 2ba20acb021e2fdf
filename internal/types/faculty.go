// Package types defines the shared domain types for the faculty-directory
// extraction pipeline: scrape targets, page descriptors, extracted blocks,
// candidate rows, and the final output records.
package types

// PageType classifies the expected layout of a source page.
type PageType string

const (
	PageTable PageType = "table"
	PageCards PageType = "cards"
	PageList  PageType = "list"
)

// SelectorBundle maps semantic field names to selector strings for one page.
// A selector may carry an "@attr" suffix to extract an attribute instead of
// text. Values equal to a placeholder literal ("name", "theme", ...) are
// treated as absent by the selector guard, never passed to the CSS engine.
type SelectorBundle struct {
	Item  string `json:"item_selector,omitempty"`
	Name  string `json:"name_selector,omitempty"`
	Theme string `json:"theme_selector,omitempty"`
	Link  string `json:"link_selector,omitempty"`
	Lab   string `json:"lab_selector,omitempty"`
	Tag   string `json:"tag_selector,omitempty"`

	// Table mode
	Table          string   `json:"table_selector,omitempty"`
	HeaderKeywords []string `json:"header_keywords,omitempty"`
	NameCellIdx    int      `json:"name_cell_idx,omitempty"`
	ThemeCellIdx   int      `json:"theme_cell_idx,omitempty"`

	// Normalization rules
	NameCleanup  string `json:"name_cleanup_regex,omitempty"`
	ThemeSplit   string `json:"theme_split,omitempty"`
	ThemeExclude string `json:"theme_exclude,omitempty"`
	MaxTopics    int    `json:"max_topics,omitempty"`
}

// Page is one URL belonging to a Target.
type Page struct {
	URL       string         `json:"url" validate:"required,url"`
	Type      PageType       `json:"page_type,omitempty"`
	Selectors SelectorBundle `json:"selectors,omitempty"`
	Dynamic   bool           `json:"dynamic,omitempty"`
}

// Golden holds operator-supplied known-correct values for one entry on a
// page. Any non-empty field anchors block discovery for that page.
type Golden struct {
	Name  string `json:"name,omitempty"`
	Theme string `json:"theme,omitempty"`
	Link  string `json:"link,omitempty"`
}

// Target is one university/department page group to scrape. Targets are
// loaded once per run and are immutable while the run is in progress.
type Target struct {
	ID         string            `json:"id" validate:"required"`
	University string            `json:"university" validate:"required"`
	Department string            `json:"graduate_school"`
	Major      string            `json:"major,omitempty"`
	Pages      []Page            `json:"pages" validate:"min=1,dive"`
	Enabled    bool              `json:"enabled"`
	Fixed      map[string]string `json:"fixed,omitempty"`
	Golden     *Golden           `json:"golden,omitempty"`
	Tag        string            `json:"tag,omitempty"`
	Note       string            `json:"note,omitempty"`
}

// Link is one outbound link found inside a block.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Block is a candidate structural unit of a page hypothesized to correspond
// to one person entry. Blocks live only for the duration of a single page
// extraction.
type Block struct {
	ID       int    `json:"block_id"`
	Tag      string `json:"tag"`
	Depth    int    `json:"depth"`
	GroupID  string `json:"group_id"`
	Path     string `json:"path"`
	HasImage bool   `json:"has_img"`
	Text     string `json:"text"`
	Links    []Link `json:"links"`
}

// Candidate is one raw name/theme/link observation produced by an extraction
// strategy, before identity keying and merging.
type Candidate struct {
	Name  string
	Theme string
	Link  string
	Lab   string
	Tag   string

	// Fragment is the raw markup (or OCR text) the candidate came from,
	// kept for content-hash identity and evidence artifacts.
	Fragment string
	// Source is the page URL the candidate was extracted from.
	Source string
	// Strategy names the extraction path that produced the candidate
	// ("css", "blocks", "ocr", ...).
	Strategy string
}

// Record is the final output unit, one per merged person entry.
type Record struct {
	University   string
	Department   string
	Major        string
	Name         string
	Theme        string
	Link         string
	SourceURL    string
	RetrievedAt  string
	RunID        string
	Lab          string
	Tag          string
	EvidencePath string
}
