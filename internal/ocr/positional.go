package ocr

import (
	"sort"
	"strings"

	"github.com/jonathan/gradscout/internal/normalize"
	"github.com/jonathan/gradscout/internal/types"
)

// Word is one recognized token with its bounding box, in page pixels.
type Word struct {
	Text   string
	Left   int
	Top    int
	Width  int
	Height int
}

func (w Word) right() int { return w.Left + w.Width }
func (w Word) ymid() int  { return w.Top + w.Height/2 }

// Column boundary defaults when the header words were not recognized,
// as fractions of the rightmost word edge.
const (
	defaultSpecX = 0.35
	defaultWorkX = 0.62
)

// lineTolerance is the vertical-midpoint distance within which two words
// belong to the same text line.
const lineTolerance = 14

// nameLookback is how far above a romanization line the native-script name
// may sit.
const nameLookback = 80

type textLine struct {
	text string
	ymid int
}

// RecoverPositional reconstructs table rows from word bounding boxes. The
// 専門分野 and 主要著作 header positions split the page into a name column
// and a specialty column; each romanized-name line in the name column anchors
// a row, and the specialty-column words in that row's vertical band become
// the theme.
func RecoverPositional(words []Word) []types.Candidate {
	if len(words) == 0 {
		return nil
	}

	maxRight := 0
	for _, w := range words {
		if w.right() > maxRight {
			maxRight = w.right()
		}
	}
	specX := int(defaultSpecX * float64(maxRight))
	workX := int(defaultWorkX * float64(maxRight))
	for _, w := range words {
		if strings.Contains(w.Text, "専門分野") {
			specX = w.Left
		}
		if strings.Contains(w.Text, "主要著作") {
			workX = w.Left
		}
	}

	lines := clusterLines(nameColumnWords(words, specX))
	names := anchorNames(lines)
	if len(names) == 0 {
		return nil
	}

	var out []types.Candidate
	for i, n := range names {
		top := n.ymid - nameLookback
		if i > 0 {
			top = names[i-1].ymid + 1
		}
		bottom := maxInt
		if i+1 < len(names) {
			bottom = names[i+1].ymid
		}
		theme := normalize.Themes(bandText(words, specX, workX, top, bottom), "", "", 0)
		out = append(out, types.Candidate{
			Name:     n.text,
			Theme:    theme,
			Strategy: "ocr-pos",
		})
	}
	return out
}

const maxInt = int(^uint(0) >> 1)

func nameColumnWords(words []Word, specX int) []Word {
	var out []Word
	for _, w := range words {
		if w.right() <= specX-10 {
			out = append(out, w)
		}
	}
	return out
}

// clusterLines groups words into text lines by vertical midpoint and renders
// each line left to right.
func clusterLines(words []Word) []textLine {
	if len(words) == 0 {
		return nil
	}
	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ymid() != sorted[j].ymid() {
			return sorted[i].ymid() < sorted[j].ymid()
		}
		return sorted[i].Left < sorted[j].Left
	})

	var lines []textLine
	var cur []Word
	flush := func() {
		if len(cur) == 0 {
			return
		}
		sort.SliceStable(cur, func(i, j int) bool { return cur[i].Left < cur[j].Left })
		parts := make([]string, 0, len(cur))
		sum := 0
		for _, w := range cur {
			parts = append(parts, w.Text)
			sum += w.ymid()
		}
		lines = append(lines, textLine{text: strings.Join(parts, " "), ymid: sum / len(cur)})
		cur = nil
	}
	for _, w := range sorted {
		if len(cur) > 0 && w.ymid()-cur[len(cur)-1].ymid() > lineTolerance {
			flush()
		}
		cur = append(cur, w)
	}
	flush()
	return lines
}

type anchored struct {
	text string
	ymid int
}

// anchorNames finds each romanization line and searches upward for the
// native-script name that belongs to it. The anchor keeps the native line's
// vertical position, which is where the row's other columns align.
func anchorNames(lines []textLine) []anchored {
	var out []anchored
	seen := map[string]struct{}{}
	for i, ln := range lines {
		if !romanRE.MatchString(ln.text) {
			continue
		}
		for j := i; j >= 0 && ln.ymid-lines[j].ymid <= nameLookback; j-- {
			m := nameRE.FindString(lines[j].text)
			if m == "" {
				// role-title and romanization lines fall through here
				continue
			}
			name, ok := normalize.Name(m, "")
			if !ok {
				break
			}
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				out = append(out, anchored{text: name, ymid: lines[j].ymid})
			}
			break
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ymid < out[j].ymid })
	return out
}

// bandText joins the specialty-column words whose tops fall inside a row's
// vertical band.
func bandText(words []Word, specX, workX, top, bottom int) string {
	var sel []Word
	for _, w := range words {
		if w.Left >= specX && w.Left < workX-5 && w.Top >= top && w.Top < bottom {
			sel = append(sel, w)
		}
	}
	sort.SliceStable(sel, func(i, j int) bool {
		if sel[i].Top != sel[j].Top {
			return sel[i].Top < sel[j].Top
		}
		return sel[i].Left < sel[j].Left
	})
	parts := make([]string, 0, len(sel))
	for _, w := range sel {
		parts = append(parts, w.Text)
	}
	return strings.Join(parts, " ")
}
