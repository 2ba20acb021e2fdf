package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

// MaxShotsPerPage caps per-element screenshots for one page so a
// mis-grouped page with hundreds of blocks cannot flood the OCR engine.
const MaxShotsPerPage = 20

// screenshotQuality is the full-page capture quality (0-100).
const screenshotQuality = 90

// Screenshot renders the page and writes a full-page PNG to outPath.
func Screenshot(ctx context.Context, urlStr, outPath string, settle time.Duration) error {
	if !BrowserAvailable() {
		return &Error{URL: urlStr, Message: "no browser available for screenshot"}
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	browserCtx, cancel := newBrowserContext(ctx, DefaultTimeout)
	defer cancel()

	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settle),
		chromedp.FullScreenshot(&buf, screenshotQuality),
	)
	if err != nil {
		return &Error{URL: urlStr, Message: "full-page screenshot failed", Cause: err}
	}
	return writeShot(outPath, buf, urlStr)
}

// ElementScreenshots renders the page once and captures each selector to a
// numbered PNG under dir, stopping at MaxShotsPerPage. Selectors that match
// nothing are skipped, not errors. It returns the written paths in selector
// order.
func ElementScreenshots(ctx context.Context, urlStr string, selectors []string, dir string, settle time.Duration) ([]string, error) {
	if !BrowserAvailable() {
		return nil, &Error{URL: urlStr, Message: "no browser available for screenshot"}
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	if len(selectors) > MaxShotsPerPage {
		selectors = selectors[:MaxShotsPerPage]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{URL: urlStr, Message: "creating screenshot dir", Cause: err}
	}

	browserCtx, cancel := newBrowserContext(ctx, DefaultTimeout)
	defer cancel()

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settle),
	); err != nil {
		return nil, &Error{URL: urlStr, Message: "navigation for screenshots failed", Cause: err}
	}

	var paths []string
	for i, sel := range selectors {
		var buf []byte
		shotCtx, cancelShot := context.WithTimeout(browserCtx, 10*time.Second)
		err := chromedp.Run(shotCtx,
			chromedp.Screenshot(sel, &buf, chromedp.NodeVisible),
		)
		cancelShot()
		if err != nil || len(buf) == 0 {
			continue
		}
		p := filepath.Join(dir, fmt.Sprintf("block_%03d.png", i))
		if err := writeShot(p, buf, urlStr); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func writeShot(path string, buf []byte, urlStr string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &Error{URL: urlStr, Message: "creating screenshot dir", Cause: err}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return &Error{URL: urlStr, Message: "writing screenshot", Cause: err}
	}
	return nil
}
