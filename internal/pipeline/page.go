package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"path/filepath"

	"github.com/jonathan/gradscout/internal/fetch"
	"github.com/jonathan/gradscout/internal/ocr"
	"github.com/jonathan/gradscout/internal/types"
)

// fetchPage retrieves a page, preferring the browser when the target marks
// it dynamic and rendering is available. A statically fetched body that
// looks script-rendered gets one browser retry; if that fails the static
// body is still used.
func (r *Runner) fetchPage(ctx context.Context, page types.Page) (string, error) {
	if page.Dynamic && r.caps.Browser {
		res, err := fetch.Rendered(ctx, page.URL, 0, nil)
		if err != nil {
			return "", err
		}
		return res.HTML, nil
	}

	res, err := r.fetcher.Fetch(ctx, page.URL)
	if err != nil {
		return "", err
	}
	if fetch.LooksScriptRendered(res.HTML) && r.caps.Browser {
		if rendered, err := fetch.Rendered(ctx, page.URL, 0, nil); err == nil {
			return rendered.HTML, nil
		}
	}
	return res.HTML, nil
}

// ocrStrategy is the last-resort pass: screenshot the page, run the OCR
// engine, and recover rows from raw text. It needs both the browser (for the
// screenshot) and an OCR engine; missing either is a quiet no-op, not an
// error.
func (r *Runner) ocrStrategy() Strategy {
	return Strategy{
		Name: "ocr",
		Extract: func(ctx context.Context, pc *PageContext) []types.Candidate {
			if !r.caps.OCR || !r.caps.Browser {
				return nil
			}

			shot := r.screenshotPath(pc.Page.URL)
			if err := fetch.Screenshot(ctx, pc.Page.URL, shot, 0); err != nil {
				return nil
			}
			text, err := r.ocr.Text(ctx, shot)
			if err != nil {
				return nil
			}

			if cands := ocr.Recover(text); len(cands) > 0 {
				return cands
			}
			if words, err := r.ocr.Words(ctx, shot); err == nil {
				if cands := ocr.RecoverPositional(words); len(cands) > 0 {
					return cands
				}
			}
			if cands := ocr.RecoverByTitle(text); len(cands) > 0 {
				return cands
			}
			return r.blockOCR(ctx, pc)
		},
	}
}

// blockOCR screenshots the discovered person blocks individually and runs
// recovery per block. Pages that render names as images defeat whole-page
// OCR column heuristics but still yield clean per-block crops.
func (r *Runner) blockOCR(ctx context.Context, pc *PageContext) []types.Candidate {
	if len(pc.Blocks) == 0 {
		return nil
	}
	var sels []string
	for _, b := range pc.Blocks {
		if b.Path == "" {
			continue
		}
		sels = append(sels, b.Path)
		if len(sels) >= fetch.MaxShotsPerPage {
			break
		}
	}
	if len(sels) == 0 {
		return nil
	}

	dir := filepath.Join(r.evidenceDir(), "_screenshots", fmt.Sprintf("blocks_%08x", urlHash(pc.Page.URL)))
	shots, err := fetch.ElementScreenshots(ctx, pc.Page.URL, sels, dir, 0)
	if err != nil {
		return nil
	}

	var out []types.Candidate
	for _, shot := range shots {
		text, err := r.ocr.Text(ctx, shot)
		if err != nil {
			continue
		}
		cands := ocr.Recover(text)
		if len(cands) == 0 {
			cands = ocr.RecoverByTitle(text)
		}
		out = append(out, cands...)
	}
	return out
}

func (r *Runner) screenshotPath(pageURL string) string {
	return filepath.Join(r.evidenceDir(), "_screenshots", fmt.Sprintf("shot_%08x.png", urlHash(pageURL)))
}

func urlHash(pageURL string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(pageURL))
	return h.Sum32()
}

func (r *Runner) evidenceDir() string {
	if r.opts.EvidenceDir != "" {
		return r.opts.EvidenceDir
	}
	return "evidence"
}
