// Package fetch - browser.go provides headless-browser rendering for pages
// that build their faculty listing with JavaScript.
package fetch

import (
	"context"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum static-fetch body length below which the
// page is likely script-rendered and worth a browser pass.
const MinContentLength = 500

// DefaultSettle is the post-load delay that lets scripts populate the DOM.
const DefaultSettle = 3 * time.Second

// browserBinaries are probed to decide whether rendering is available.
var browserBinaries = []string{"google-chrome", "chromium", "chromium-browser", "chrome"}

// BrowserAvailable probes PATH for a usable Chrome/Chromium binary. The
// result is a capability flag injected once at start-up, not re-probed per
// page.
func BrowserAvailable() bool {
	for _, bin := range browserBinaries {
		if _, err := exec.LookPath(bin); err == nil {
			return true
		}
	}
	return false
}

// LooksScriptRendered reports whether a statically fetched body is too thin
// to carry a listing, which is the signal to retry with the browser.
func LooksScriptRendered(html string) bool {
	return len(html) < MinContentLength
}

// Rendered fetches a page through a headless browser, waiting settle after
// load for scripts to populate the DOM. When no browser is available it
// silently falls back to the static fetch: rendering is an enhancement, not
// a requirement.
func Rendered(ctx context.Context, urlStr string, settle time.Duration, opts *Options) (*Result, error) {
	if !BrowserAvailable() {
		return URL(ctx, urlStr, opts)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	timeout := DefaultTimeout
	if opts != nil && opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	html, err := renderHTML(ctx, urlStr, settle, timeout)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "browser rendering failed",
			Cause:   err,
		}
	}
	return &Result{
		URL:         urlStr,
		HTML:        html,
		ContentType: "text/html",
		StatusCode:  200,
		Rendered:    true,
	}, nil
}

func renderHTML(ctx context.Context, urlStr string, settle, timeout time.Duration) (string, error) {
	browserCtx, cancel := newBrowserContext(ctx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

// newBrowserContext builds a headless allocator + tab context with a timeout.
// The caller must invoke the returned cancel.
func newBrowserContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	timedCtx, cancelTimed := context.WithTimeout(tabCtx, timeout)
	return timedCtx, func() {
		cancelTimed()
		cancelTab()
		cancelAlloc()
	}
}
