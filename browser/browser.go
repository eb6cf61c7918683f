// Package browser provides a headless-Chromium page fetcher.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"github.com/wpaudit/backend/analyzer"
)

// Browser owns one Chromium allocator for the lifetime of a single
// analysis. Each Fetch opens its own tab and closes it before
// returning; Close tears the whole instance down. Callers must always
// pair New with Close, on every exit path.
type Browser struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
}

// New launches a browser allocator. chromePath may be empty to use the
// system Chromium.
func New(chromePath string, timeout time.Duration) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent("WPAudit/1.0"),
	)
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	// Fail now rather than on the first fetch if Chromium is missing.
	probe, probeCancel := chromedp.NewContext(allocCtx)
	defer probeCancel()
	startCtx, startCancel := context.WithTimeout(probe, timeout)
	defer startCancel()
	if err := chromedp.Run(startCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &Browser{allocCtx: allocCtx, cancel: cancel, timeout: timeout}, nil
}

// Fetch renders one page in a fresh tab and returns the final HTML
// after scripts have settled. The tab is closed before returning.
func (b *Browser) Fetch(ctx context.Context, pageURL string) (*analyzer.FetchedPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, closeTab := chromedp.NewContext(b.allocCtx)
	defer closeTab()

	runCtx, cancel := context.WithTimeout(tabCtx, b.timeout)
	defer cancel()

	start := time.Now()
	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Give late XHR-driven content a moment to land.
		chromedp.Sleep(2*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	return &analyzer.FetchedPage{
		URL:      pageURL,
		HTML:     html,
		LoadTime: time.Since(start),
	}, nil
}

// Close releases the browser instance and every remaining tab.
func (b *Browser) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	return nil
}
