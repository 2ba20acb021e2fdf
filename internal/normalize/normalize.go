// Package normalize canonicalizes Japanese person names and research-theme
// lists extracted from raw page fragments or OCR text.
package normalize

import (
	"regexp"
	"strings"
)

// MaxTopics is the cap on joined theme fragments.
const MaxTopics = 12

// DefaultThemeSplit covers the common topic separators: Japanese comma,
// ASCII comma, slash variants, middle dot, newline.
const DefaultThemeSplit = `[、，,/／・\n]+`

// maxTopicLen drops theme fragments longer than this many runes; anything
// longer is prose, not a topic.
const maxTopicLen = 30

// cjk matches the ideograph range used in Japanese personal names, plus the
// iteration/size marks that occur inside them.
const cjk = `[一-龥々〆ヵヶ]`

// DefaultTitles is the academic-title vocabulary stripped from name text and
// used as a person signal by block discovery. Longer compounds come first so
// alternation never leaves a partial title behind.
func DefaultTitles() []string {
	return []string{
		"特任准教授", "特任教授", "特任講師", "非常勤講師",
		"客員准教授", "客員教授", "客員講師", "名誉教授",
		"准教授", "助教授", "教授", "講師", "助教",
		"特別研究員", "研究員", "助手", "主任",
		"Professor", "Assoc. Prof", "Associate Professor", "Assistant Professor", "Lecturer",
	}
}

// Normalizer holds the compiled vocabulary. The title list is injected so
// tests can substitute vocabularies per locale.
type Normalizer struct {
	titleRE *regexp.Regexp
	nameRE  *regexp.Regexp
	blockRE *regexp.Regexp
	pairRE  *regexp.Regexp
}

// New builds a Normalizer over the given title vocabulary.
func New(titles []string) *Normalizer {
	quoted := make([]string, 0, len(titles))
	for _, t := range titles {
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	return &Normalizer{
		titleRE: regexp.MustCompile(`(` + strings.Join(quoted, "|") + `)`),
		// family-name block, whitespace, given-name block
		nameRE: regexp.MustCompile(`(` + cjk + `{1,4})[ 　]+(` + cjk + `{1,6})`),
		// contiguous ideograph runs used by the no-space fallback
		blockRE: regexp.MustCompile(cjk + `{2,4}`),
		pairRE:  regexp.MustCompile(`(` + cjk + `{2,3})(` + cjk + `{2,4})`),
	}
}

var defaultNormalizer = New(DefaultTitles())

// Default returns the shared Normalizer over DefaultTitles.
func Default() *Normalizer {
	return defaultNormalizer
}

var (
	wsRE       = regexp.MustCompile(`[\s　]+`)
	bracketRE  = regexp.MustCompile(`[（(【\[][^)）】\]]*[）)】\]]`)
	bracketChr = regexp.MustCompile(`[（）()\[\]【】]`)
)

func collapse(s string) string {
	return strings.TrimSpace(wsRE.ReplaceAllString(s, " "))
}

// Name extracts a canonical "family given" name from raw text.
//
// The pipeline is: strip academic titles, apply the optional per-target
// cleanup pattern, collapse whitespace and middle dots, drop bracketed
// annotations, then look for a whitespace-separated CJK pair. Without a
// separated pair it falls back to contiguous ideograph runs. ok=false means
// no plausible name was found; callers must skip the candidate, not emit an
// empty name.
func (n *Normalizer) Name(raw, cleanup string) (name string, ok bool) {
	s := strings.ReplaceAll(raw, "　", " ")
	s = strings.ReplaceAll(s, "・", " ")
	s = n.titleRE.ReplaceAllString(s, " ")
	if cleanup != "" {
		if re, err := regexp.Compile(cleanup); err == nil {
			s = re.ReplaceAllString(s, " ")
		}
	}
	s = collapse(s)
	// Titles can resurface once surrounding whitespace is gone.
	s = n.titleRE.ReplaceAllString(s, " ")
	s = collapse(s)
	s = bracketRE.ReplaceAllString(s, " ")
	s = collapse(s)

	if m := n.nameRE.FindStringSubmatch(s); m != nil {
		return repairSplit(m[1], m[2]), true
	}
	if blocks := n.blockRE.FindAllString(s, -1); len(blocks) >= 2 {
		return blocks[0] + " " + blocks[1], true
	}
	if m := n.pairRE.FindStringSubmatch(s); m != nil {
		return repairSplit(m[1], m[2]), true
	}
	return "", false
}

// repairSplit fixes the absorbed-surname symptom: a long first group next to
// a short second group (白井美 由里) means the surname boundary landed one
// character late, so re-split as the first two runes plus the remainder.
func repairSplit(g1, g2 string) string {
	r1, r2 := []rune(g1), []rune(g2)
	if len(r1) >= 3 && len(r2) <= 2 {
		return string(r1[:2]) + " " + string(r1[2:]) + g2
	}
	return g1 + " " + g2
}

// Themes splits raw topic text on splitPattern, trims and filters the
// fragments, deduplicates them preserving first-seen order, and joins the
// first maxTopics survivors with " / ".
//
// Fragments matching excludePattern or longer than 30 runes are dropped.
// maxTopics <= 0 means the default cap of 12.
func (n *Normalizer) Themes(raw, splitPattern, excludePattern string, maxTopics int) string {
	if maxTopics <= 0 {
		maxTopics = MaxTopics
	}
	if splitPattern == "" {
		splitPattern = DefaultThemeSplit
	}
	splitRE, err := regexp.Compile(splitPattern)
	if err != nil {
		splitRE = regexp.MustCompile(DefaultThemeSplit)
	}
	var excludeRE *regexp.Regexp
	if excludePattern != "" {
		excludeRE, _ = regexp.Compile(excludePattern)
	}

	s := bracketChr.ReplaceAllString(raw, " ")
	seen := make(map[string]struct{})
	var out []string
	for _, p := range splitRE.Split(s, -1) {
		p = strings.Trim(p, " 　\t\r")
		if p == "" {
			continue
		}
		if excludeRE != nil && excludeRE.MatchString(p) {
			continue
		}
		if len([]rune(p)) > maxTopicLen {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
		if len(out) >= maxTopics {
			break
		}
	}
	return strings.Join(out, " / ")
}

var (
	cjkNameRE   = regexp.MustCompile(`^` + cjk + `{1,4} ` + cjk + `{1,6}$`)
	latinNameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z.'\-]*(?: [A-Za-z][A-Za-z.'\-]*){1,3}$`)
)

// Plausible is the loose person-name check used by bulk-mode rejection: no
// URLs or emails, not over-length, and a recognizable CJK or Latin name-token
// structure after title stripping. It keeps boilerplate like "Contact Us"
// link text from being promoted to a record.
func (n *Normalizer) Plausible(s string) bool {
	s = collapse(strings.ReplaceAll(s, "　", " "))
	if s == "" || len([]rune(s)) > 40 {
		return false
	}
	if strings.Contains(s, "http") || strings.ContainsAny(s, "@/:") {
		return false
	}
	s = collapse(n.titleRE.ReplaceAllString(s, " "))
	return cjkNameRE.MatchString(s) || latinNameRE.MatchString(s)
}

// Name applies the default Normalizer.
func Name(raw, cleanup string) (string, bool) {
	return defaultNormalizer.Name(raw, cleanup)
}

// Themes applies the default Normalizer.
func Themes(raw, splitPattern, excludePattern string, maxTopics int) string {
	return defaultNormalizer.Themes(raw, splitPattern, excludePattern, maxTopics)
}

// Plausible applies the default Normalizer.
func Plausible(s string) bool {
	return defaultNormalizer.Plausible(s)
}

// TitlePattern exposes the compiled title vocabulary for components that use
// title keywords as a person signal (block discovery, OCR recovery).
func (n *Normalizer) TitlePattern() *regexp.Regexp {
	return n.titleRE
}
