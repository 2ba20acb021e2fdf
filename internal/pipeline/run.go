// Package pipeline provides the high-level orchestration for extraction
// runs: fetch each target's pages, run the strategy cascade per page, merge
// observations into records, and write every configured output.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/gradscout/internal/blocks"
	"github.com/jonathan/gradscout/internal/db"
	"github.com/jonathan/gradscout/internal/evidence"
	"github.com/jonathan/gradscout/internal/fetch"
	"github.com/jonathan/gradscout/internal/merge"
	"github.com/jonathan/gradscout/internal/observability"
	"github.com/jonathan/gradscout/internal/ocr"
	"github.com/jonathan/gradscout/internal/output"
	"github.com/jonathan/gradscout/internal/parse"
	"github.com/jonathan/gradscout/internal/types"
)

// maxPageWorkers bounds page-level parallelism within one target. Targets
// themselves run sequentially to stay polite per host.
const maxPageWorkers = 4

// ProgressEvent is one progress update during a run.
type ProgressEvent struct {
	Target   string `json:"target"`
	Page     string `json:"page,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Message  string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs.
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for an extraction run.
type RunOptions struct {
	Targets     []types.Target
	OutputDir   string
	EvidenceDir string
	DatabaseURL string
	UseBrowser  bool
	Bulk        bool
	Verbose     bool
	MaxBlocks   int
	OCRLangs    string
	Note        string
	OnProgress  ProgressCallback
}

// Capabilities are the optional-dependency flags probed once at start-up.
// Components treat a missing capability as a first-class non-error outcome.
type Capabilities struct {
	Browser bool
	OCR     bool
}

// TargetResult is one target's outcome.
type TargetResult struct {
	Target      types.Target
	Records     []types.Record
	Diagnostics merge.Diagnostics
	Warnings    []string
}

// Summary is the whole-run outcome.
type Summary struct {
	RunID    string
	Results  []TargetResult
	Records  int
	Warnings []string
}

// Runner executes extraction runs.
type Runner struct {
	opts     RunOptions
	caps     Capabilities
	parser   *parse.Parser
	registry *blocks.Registry
	ocr      ocr.Engine
	fetcher  *fetch.CachedFetcher
	printer  *observability.Printer
	database *db.DB
}

// NewRunner builds a Runner, probing browser and OCR availability once.
func NewRunner(opts RunOptions) *Runner {
	engine := ocr.NewTesseract()
	if opts.OCRLangs != "" {
		engine.Langs = opts.OCRLangs
	}
	return &Runner{
		opts:     opts,
		parser:   parse.New(),
		registry: blocks.DefaultRegistry(),
		ocr:      engine,
		fetcher:  fetch.NewCachedFetcher(nil, nil),
		printer:  observability.NewPrinter(os.Stdout),
		caps: Capabilities{
			Browser: opts.UseBrowser && fetch.BrowserAvailable(),
			OCR:     engine.Available(),
		},
	}
}

// Run processes every target and writes per-target CSVs, evidence artifacts,
// and the optional database archive. Zero records for one target is a
// warning; zero records across every target is an error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if len(r.opts.Targets) == 0 {
		return nil, fmt.Errorf("no targets to process")
	}

	r.connectDatabase(ctx)
	defer func() {
		if r.database != nil {
			r.database.Close()
		}
	}()

	runID := uuid.New()
	date := time.Now().Format("2006-01-02")
	summary := &Summary{RunID: runID.String()}

	var dbRunID uuid.UUID
	if r.database != nil {
		if id, err := r.database.CreateRun(ctx, r.opts.Note, len(r.opts.Targets)); err == nil {
			dbRunID = id
			summary.RunID = id.String()
		}
	}

	for i := range r.opts.Targets {
		t := &r.opts.Targets[i]
		fmt.Printf("Target %d/%d: %s...\n", i+1, len(r.opts.Targets), t.ID)
		if r.opts.Verbose {
			r.printer.PrintTarget(t)
		}

		res := r.processTarget(ctx, t, summary.RunID, date)
		if len(res.Records) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("zero rows for %s", t.ID))
		}

		if len(res.Records) > 0 && r.opts.OutputDir != "" {
			path := output.TargetPath(r.opts.OutputDir, t.ID)
			if err := output.WriteCSV(path, res.Records); err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("csv for %s: %v", t.ID, err))
			}
		}
		if r.database != nil && dbRunID != uuid.Nil {
			if err := r.database.SaveRecords(ctx, dbRunID, res.Records); err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("archive for %s: %v", t.ID, err))
			}
		}
		if r.opts.Verbose {
			r.printer.PrintDiagnostics(t.ID, res.Diagnostics)
		}

		summary.Records += len(res.Records)
		summary.Warnings = append(summary.Warnings, res.Warnings...)
		summary.Results = append(summary.Results, res)

		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
	}

	status := "completed"
	var runErr error
	if summary.Records == 0 {
		status = "failed"
		runErr = fmt.Errorf("no records extracted from %d targets", len(r.opts.Targets))
	}
	if r.database != nil && dbRunID != uuid.Nil {
		_ = r.database.CompleteRun(ctx, dbRunID, status, summary.Records)
	}

	r.printer.PrintRunSummary(summary.RunID, len(r.opts.Targets), summary.Records, summary.Warnings)
	return summary, runErr
}

// connectDatabase attaches the optional archive. Failure to connect degrades
// to an archive-less run with a warning, matching every other optional
// collaborator.
func (r *Runner) connectDatabase(ctx context.Context) {
	if r.opts.DatabaseURL == "" {
		return
	}
	database, err := db.Connect(ctx, r.opts.DatabaseURL)
	if err != nil {
		fmt.Printf("Warning: failed to connect to database: %v\n", err)
		fmt.Printf("Continuing without archiving...\n")
		return
	}
	if err := database.Migrate(ctx); err != nil {
		fmt.Printf("Warning: failed to prepare database schema: %v\n", err)
		database.Close()
		return
	}
	r.database = database
	r.fetcher = fetch.NewCachedFetcher(database, nil)
}

// processTarget runs every page of one target (in parallel, bounded) and
// merges their observations in page order so reruns stay deterministic.
func (r *Runner) processTarget(ctx context.Context, t *types.Target, runID, date string) TargetResult {
	res := TargetResult{Target: *t}
	eng := merge.New(merge.Options{ListURL: t.Pages[0].URL, Bulk: r.opts.Bulk})

	type pageOut struct {
		cands []types.Candidate
		warn  string
	}
	outs := make([]pageOut, len(t.Pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPageWorkers)
	for i := range t.Pages {
		i := i
		page := t.Pages[i]
		g.Go(func() error {
			cands, warn := r.processPage(gctx, t, page)
			outs[i] = pageOut{cands: cands, warn: warn}
			return nil
		})
	}
	_ = g.Wait()

	for i, po := range outs {
		if po.warn != "" {
			res.Warnings = append(res.Warnings, po.warn)
		}
		for _, c := range po.cands {
			eng.AddFrom(c, t.Pages[i].URL)
		}
	}

	merged := eng.Results()
	for i := range merged {
		applyFixed(&merged[i], t.Fixed, r.opts.Bulk)
	}

	for seq, c := range merged {
		rec := types.Record{
			University:  t.University,
			Department:  t.Department,
			Major:       t.Major,
			Name:        c.Name,
			Theme:       c.Theme,
			Link:        c.Link,
			SourceURL:   c.Source,
			RetrievedAt: date,
			RunID:       runID,
			Lab:         c.Lab,
			Tag:         c.Tag,
		}
		if rec.SourceURL == "" {
			rec.SourceURL = t.Pages[0].URL
		}
		if r.opts.EvidenceDir != "" && c.Fragment != "" {
			path, err := evidence.Save(r.opts.EvidenceDir, t.University, t.Department,
				evidenceArtifact(runID, seq, rec.SourceURL, c))
			if err == nil {
				rec.EvidencePath = path
			}
		}
		res.Records = append(res.Records, rec)
	}

	res.Diagnostics = eng.Diagnostics()
	return res
}

// processPage fetches and extracts one page through the strategy cascade.
// Failures degrade to a warning: one broken page never sinks its target.
func (r *Runner) processPage(ctx context.Context, t *types.Target, page types.Page) ([]types.Candidate, string) {
	html, err := r.fetchPage(ctx, page)
	if err != nil {
		return nil, fmt.Sprintf("fetch %s: %v", page.URL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Sprintf("parse %s: %v", page.URL, err)
	}
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Sprintf("bad page URL %s: %v", page.URL, err)
	}
	// A <base href> overrides the page URL for relative-link resolution.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if bu, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(bu)
		}
	}

	pc := &PageContext{Target: t, Page: page, Doc: doc, Base: base}
	cands, strategy := cascade(ctx, pc, []Strategy{
		r.cssStrategy(),
		r.blocksStrategy(),
		r.ocrStrategy(),
	})

	for i := range cands {
		cands[i].Source = page.URL
	}

	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{
			Target:   t.ID,
			Page:     page.URL,
			Strategy: strategy,
			Message:  fmt.Sprintf("%d candidates", len(cands)),
		})
	}
	if r.opts.Verbose && len(pc.Blocks) > 0 {
		r.printer.PrintBlocks(page.URL, pc.Blocks)
	}

	if len(cands) == 0 {
		return nil, fmt.Sprintf("no rows from %s", page.URL)
	}
	return cands, ""
}

// evidenceArtifact assembles the review artifact for one record. Records that
// came through an OCR pass additionally carry the raw OCR text and the
// normalized values, since their fragment is recognizer output rather than
// page markup.
func evidenceArtifact(runID string, seq int, sourceURL string, c types.Candidate) evidence.Artifact {
	a := evidence.Artifact{
		RunID:      runID,
		Seq:        seq,
		SourceURL:  sourceURL,
		Fragment:   c.Fragment,
		Highlights: []string{c.Name, c.Theme, c.Link},
	}
	if strings.HasPrefix(c.Strategy, "ocr") {
		a.OCRRaw = c.Fragment
		var parts []string
		for _, v := range []string{c.Name, c.Theme, c.Link} {
			if v != "" {
				parts = append(parts, v)
			}
		}
		a.Normalized = strings.Join(parts, "\n")
	}
	return a
}

// applyFixed applies a target's manual overrides to one merged candidate.
// In single-item mode a fixed value always wins; in bulk mode it only fills
// gaps, since one override cannot be right for a whole listing.
func applyFixed(c *types.Candidate, fixed map[string]string, bulk bool) {
	if len(fixed) == 0 {
		return
	}
	set := func(dst *string, key string) {
		v, ok := fixed[key]
		if !ok || v == "" {
			return
		}
		if bulk {
			if *dst == "" {
				*dst = v
			}
			return
		}
		*dst = v
	}
	set(&c.Name, "name")
	set(&c.Theme, "theme")
	set(&c.Link, "link")
	set(&c.Lab, "lab")
	set(&c.Tag, "tag")
}

// Blockify fetches one URL and returns its extracted blocks, for the
// inspection subcommand. preferRole seeds discovery from academic-title
// keywords instead of waiting for a golden example.
func Blockify(ctx context.Context, urlStr string, useBrowser, preferRole bool, max int) ([]types.Block, error) {
	var html string
	if useBrowser && fetch.BrowserAvailable() {
		res, err := fetch.Rendered(ctx, urlStr, 0, nil)
		if err != nil {
			return nil, err
		}
		html = res.HTML
	} else {
		res, err := fetch.URL(ctx, urlStr, nil)
		if err != nil {
			return nil, err
		}
		html = res.HTML
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", urlStr, err)
	}
	return blocks.Extract(doc, urlStr, max, blocks.Options{
		PreferRole: preferRole,
		Registry:   blocks.DefaultRegistry(),
	}), nil
}
