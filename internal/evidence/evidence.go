// Package evidence writes per-record review artifacts: a small HTML page
// holding the source fragment, the same fragment with the extracted values
// highlighted, and the raw/normalized OCR text when the record came through
// the OCR path. Operators spot-check these instead of re-opening the source
// page.
package evidence

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
)

// Artifact is the material saved for one record.
type Artifact struct {
	RunID      string
	Seq        int
	SourceURL  string
	Fragment   string
	Highlights []string
	OCRRaw     string
	Normalized string
}

var page = template.Must(template.New("evidence").Parse(`<!doctype html>
<meta charset="utf-8">
<style>body{font-family:sans-serif;line-height:1.6} mark{background:#ff0}</style>
<h3>Evidence (run_id={{.RunID}})</h3>
<p><b>Source:</b> <a href="{{.SourceURL}}">{{.SourceURL}}</a></p>
{{if .OCRRaw}}<details><summary>OCR Raw Text</summary><pre>{{.OCRRaw}}</pre></details>{{end}}
{{if .Normalized}}<details><summary>Normalized Text</summary><pre>{{.Normalized}}</pre></details>{{end}}
<h4>Original Fragment</h4>
{{.Original}}
<h4>Highlighted Fragment</h4>
{{.Highlighted}}
`))

type pageData struct {
	RunID       string
	SourceURL   string
	OCRRaw      string
	Normalized  string
	Original    template.HTML
	Highlighted template.HTML
}

// Save writes the artifact under dir/<university>_<department>/ and returns
// the written path.
func Save(dir, university, department string, a Artifact) (string, error) {
	folder := filepath.Join(dir, pathSafe(university)+"_"+pathSafe(department))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create evidence dir: %w", err)
	}
	path := filepath.Join(folder, fmt.Sprintf("run_%s_%d.html", a.RunID, a.Seq))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create evidence file: %w", err)
	}
	defer func() { _ = f.Close() }()

	data := pageData{
		RunID:      a.RunID,
		SourceURL:  a.SourceURL,
		OCRRaw:     a.OCRRaw,
		Normalized: a.Normalized,
		// The fragment is the page's own markup, reproduced as-is.
		Original:    template.HTML(a.Fragment),
		Highlighted: template.HTML(Highlight(a.Fragment, a.Highlights)),
	}
	if err := page.Execute(f, data); err != nil {
		return "", fmt.Errorf("failed to render evidence: %w", err)
	}
	return path, nil
}

// Highlight wraps every occurrence of each non-empty value in <mark>.
func Highlight(fragment string, values []string) string {
	out := fragment
	for _, v := range values {
		if v == "" {
			continue
		}
		out = strings.ReplaceAll(out, v, "<mark>"+v+"</mark>")
	}
	return out
}

func pathSafe(s string) string {
	s = strings.ReplaceAll(s, string(os.PathSeparator), "-")
	s = strings.ReplaceAll(s, "..", "-")
	if s == "" {
		return "unknown"
	}
	return s
}
