// Package observability provides formatted output utilities for verbose CLI
// mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/gradscout/internal/merge"
	"github.com/jonathan/gradscout/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintTarget outputs a summary of the target about to be processed.
func (p *Printer) PrintTarget(t *types.Target) {
	if t == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("University: %s\n", t.University))
	if t.Department != "" {
		sb.WriteString(fmt.Sprintf("School:     %s\n", t.Department))
	}
	sb.WriteString(fmt.Sprintf("Pages:      %d\n", len(t.Pages)))
	for i, page := range t.Pages {
		if i >= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(t.Pages)-maxItemsToShow))
			break
		}
		kind := string(page.Type)
		if kind == "" {
			kind = "auto"
		}
		sb.WriteString(fmt.Sprintf("  • [%s] %s\n", kind, page.URL))
	}
	if t.Golden != nil {
		sb.WriteString(fmt.Sprintf("Golden:     %s\n", t.Golden.Name))
	}

	p.printBox("TARGET "+t.ID, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBlocks outputs the discovered block groups for one page.
func (p *Printer) PrintBlocks(url string, blocks []types.Block) {
	if len(blocks) == 0 {
		return
	}

	groups := map[string]int{}
	var order []string
	for _, b := range blocks {
		if groups[b.GroupID] == 0 {
			order = append(order, b.GroupID)
		}
		groups[b.GroupID]++
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:    %s\n", url))
	sb.WriteString(fmt.Sprintf("Blocks: %d in %d groups\n", len(blocks), len(order)))
	for i, g := range order {
		if i >= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more groups\n", len(order)-maxItemsToShow))
			break
		}
		sb.WriteString(fmt.Sprintf("  • %s ×%d\n", g, groups[g]))
	}

	p.printBox("BLOCK DISCOVERY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDiagnostics outputs one target's merge diagnostics: counts, key-kind
// distribution, drop reasons, and the coarse status.
func (p *Printer) PrintDiagnostics(targetID string, d merge.Diagnostics) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Observed: %d\n", d.Observed))
	sb.WriteString(fmt.Sprintf("Merged:   %d\n", d.Merged))

	if len(d.Kinds) > 0 {
		sb.WriteString("Keys:\n")
		for _, kv := range sortedCounts(d.Kinds) {
			sb.WriteString(fmt.Sprintf("  • %s: %d\n", kv.name, kv.count))
		}
	}
	if len(d.Drops) > 0 {
		sb.WriteString("Drops:\n")
		for _, kv := range sortedDrops(d.Drops) {
			sb.WriteString(fmt.Sprintf("  • %s: %d\n", kv.name, kv.count))
		}
	}
	sb.WriteString(fmt.Sprintf("Status:   %s", d.Status))

	p.printBox("MERGE "+targetID, sb.String())
}

// PrintRunSummary outputs the whole-run outcome.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRunSummary(runID string, targets, records int, warnings []string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:     %s\n", runID))
	sb.WriteString(fmt.Sprintf("Targets: %d\n", targets))
	sb.WriteString(fmt.Sprintf("Records: %d\n", records))
	for _, w := range warnings {
		sb.WriteString(fmt.Sprintf("  ! %s\n", w))
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

type namedCount struct {
	name  string
	count int
}

func sortedCounts(m map[merge.KeyKind]int) []namedCount {
	out := make([]namedCount, 0, len(m))
	for k, v := range m {
		out = append(out, namedCount{string(k), v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func sortedDrops(m map[merge.DropReason]int) []namedCount {
	out := make([]namedCount, 0, len(m))
	for k, v := range m {
		out = append(out, namedCount{string(k), v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
