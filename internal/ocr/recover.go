// Package ocr recovers name/theme/link candidates from OCR'd screenshot text
// when structural parsing has nothing to work with.
//
// Three strategies cover the available signal in order of preference: the
// blank-line paragraph heuristic on plain text, the positional column
// heuristic when per-word bounding boxes exist, and the title-anchored line
// scan as the last resort. Every strategy degrades to an empty theme/link
// rather than failing: a recovered name alone is a retainable record here.
package ocr

import (
	"regexp"
	"strings"

	"github.com/jonathan/gradscout/internal/normalize"
	"github.com/jonathan/gradscout/internal/types"
)

var (
	nameRE      = regexp.MustCompile(`[一-龥々〆ヵヶ]{1,4}[ 　]+[一-龥々〆ヵヶ]{1,6}`)
	romanRE     = regexp.MustCompile(`[A-Za-z]{2,}(?:[ -][A-Za-z\-]{2,})+`)
	urlRE       = regexp.MustCompile(`https?://[\w\-./#?=&%]+`)
	citationRE  = regexp.MustCompile(`書房|Journal|ジャーナル|Vol\.|pp\.`)
	latinLineRE = regexp.MustCompile(`^[A-Za-z\-]{2,}$`)
	nonKanjiRE  = regexp.MustCompile(`[^一-龥々〆ヵヶ]`)
	paraSplitRE = regexp.MustCompile(`\n[ \t　]*\n`)
	// labelRE strips the field label that OCR keeps glued to theme lines.
	labelRE = regexp.MustCompile(`^(専門分野|研究分野|研究テーマ|キーワード|専門|Research\s+Interests?|Interests?)[:：\s]*`)
)

// ThemeKeywords locate the research-topic line inside a person paragraph.
var ThemeKeywords = []string{
	"マーケティング", "消費者", "流通", "統計", "イノベーション",
	"サイエンス", "計量", "リサーチ", "研究", "専門", "テーマ",
	"キーワード", "Research", "Interests",
}

// titleLines are the role tokens the title-anchored fallback keys on.
var titleLines = map[string]struct{}{
	"教授": {}, "准教授": {}, "特任教授": {}, "助教": {}, "講師": {}, "担当者": {},
}

// sectionMarker delimits the faculty-introduction section of a page dump.
const sectionMarker = "教員紹介"

// Recover applies the blank-line paragraph heuristic to raw OCR text.
//
// A paragraph qualifies as a person block only when it contains a romanized
// name run: faculty listings conventionally print a romanization alongside
// the native-script name, and its presence separates listing rows from
// surrounding prose. Paragraphs carrying citation noise are discarded as
// publication lists, not people.
func Recover(text string) []types.Candidate {
	var out []types.Candidate
	for _, para := range paraSplitRE.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" || citationRE.MatchString(para) {
			continue
		}
		if !romanRE.MatchString(para) {
			continue
		}
		name, ok := paraName(para)
		if !ok {
			continue
		}
		out = append(out, types.Candidate{
			Name:     name,
			Theme:    paraTheme(para),
			Link:     urlRE.FindString(para),
			Fragment: para,
			Strategy: "ocr",
		})
	}
	return out
}

func paraName(para string) (string, bool) {
	m := nameRE.FindString(para)
	if m == "" {
		return "", false
	}
	return normalize.Name(m, "")
}

func paraTheme(para string) string {
	for _, line := range strings.Split(para, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || urlRE.MatchString(line) {
			continue
		}
		for _, kw := range ThemeKeywords {
			if strings.Contains(line, kw) {
				if theme := normalize.Themes(labelRE.ReplaceAllString(line, ""), "", "", 0); theme != "" {
					return theme
				}
				break
			}
		}
	}
	return ""
}

// RecoverByTitle scans the faculty-introduction section line by line: a line
// consisting solely of a role token makes the following line a name
// candidate, consumed in pairs. A trailing backfill pass catches entries
// whose romanization OCR split across two Latin-only lines, taking the line
// two above as a run of 3-6 ideographs split surname-first.
func RecoverByTitle(text string) []types.Candidate {
	tail := text
	if i := strings.Index(text, sectionMarker); i >= 0 {
		tail = text[i+len(sectionMarker):]
	}
	var lines []string
	for _, ln := range strings.Split(tail, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}

	var out []types.Candidate
	seen := map[string]struct{}{}
	emit := func(name, fragment string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, types.Candidate{Name: name, Fragment: fragment, Strategy: "ocr-title"})
	}

	for i := 0; i < len(lines); {
		if _, isTitle := titleLines[lines[i]]; isTitle && i+1 < len(lines) {
			if m := nameRE.FindString(lines[i+1]); m != "" {
				if name, ok := normalize.Name(m, ""); ok {
					emit(name, lines[i]+"\n"+lines[i+1])
					i += 2
					continue
				}
			}
		}
		i++
	}

	for j := 2; j < len(lines); j++ {
		if !latinLineRE.MatchString(lines[j-1]) || !latinLineRE.MatchString(lines[j]) {
			continue
		}
		kan := nonKanjiRE.ReplaceAllString(lines[j-2], "")
		r := []rune(kan)
		if len(r) < 3 || len(r) > 6 {
			continue
		}
		emit(string(r[:2])+" "+string(r[2:]), strings.Join(lines[j-2:j+1], "\n"))
	}
	return out
}
