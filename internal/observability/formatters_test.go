package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/gradscout/internal/merge"
	"github.com/jonathan/gradscout/internal/types"
)

func TestPrintTarget(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTarget(&types.Target{
		ID:         "keio-shougyou",
		University: "慶應義塾大学",
		Department: "商学研究科",
		Pages: []types.Page{
			{URL: "https://www.fbc.keio.ac.jp/graduate/shougyou.html", Type: types.PageTable},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "TARGET keio-shougyou")
	assert.Contains(t, out, "慶應義塾大学")
	assert.Contains(t, out, "[table]")
}

func TestPrintTarget_NilIsSafe(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintTarget(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBlocks(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBlocks("https://example.ac.jp/faculty/", []types.Block{
		{GroupID: "golden"}, {GroupID: "golden"}, {GroupID: "div|li|a:1"},
	})

	out := buf.String()
	assert.Contains(t, out, "3 in 2 groups")
	assert.Contains(t, out, "golden ×2")
}

func TestPrintDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDiagnostics("keio-shougyou", merge.Diagnostics{
		Observed: 12,
		Merged:   10,
		Kinds:    map[merge.KeyKind]int{merge.KeyName: 7, merge.KeyLink: 3},
		Drops:    map[merge.DropReason]int{merge.DropNoIdentity: 2},
		Status:   merge.StatusOK,
	})

	out := buf.String()
	assert.Contains(t, out, "Observed: 12")
	assert.Contains(t, out, "link: 3")
	assert.Contains(t, out, "no-identity: 2")
	assert.Contains(t, out, "ok")
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRunSummary("r1", 3, 42, []string{"zero rows for metro-econ"})

	out := buf.String()
	assert.Contains(t, out, "Targets: 3")
	assert.Contains(t, out, "! zero rows for metro-econ")
}
