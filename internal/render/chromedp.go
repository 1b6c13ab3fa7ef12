package render

import (
	"context"
	"fmt"
	"time"

	"badgehub/internal/config"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// cssPixelsPerInch is the CSS reference pixel density used to convert the
// fixed certificate dimensions into PDF paper size.
const cssPixelsPerInch = 96.0

// ChromeRenderer implements Renderer through a headless Chrome instance
// driven over the DevTools protocol. The browser allocator is created once
// and reused across renders; each render gets its own tab and deadline.
type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	paperWidth  float64
	paperHeight float64
	timeout     time.Duration
	logger      *zap.Logger
}

// NewChromeRenderer starts the shared browser allocator.
func NewChromeRenderer(cfg *config.RendererConfig, logger *zap.Logger) *ChromeRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(cfg.Width, cfg.Height),
		chromedp.NoSandbox,
		chromedp.Flag("hide-scrollbars", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeRenderer{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		paperWidth:  float64(cfg.Width) / cssPixelsPerInch,
		paperHeight: float64(cfg.Height) / cssPixelsPerInch,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// RenderPDF rasterizes html into a single-page PDF with background
// graphics. The call is bounded by the configured timeout so a hung
// browser cannot pin a request indefinitely.
func (r *ChromeRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx)
	defer tabCancel()

	// Tie tab lifetime to the render deadline.
	go func() {
		<-renderCtx.Done()
		tabCancel()
	}()

	start := time.Now()
	var pdf []byte

	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(r.paperWidth).
				WithPaperHeight(r.paperHeight).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPageRanges("1").
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if renderCtx.Err() != nil {
			return nil, fmt.Errorf("render timed out after %s: %w", r.timeout, renderCtx.Err())
		}
		return nil, fmt.Errorf("render failed: %w", err)
	}

	r.logger.Debug("Rendered certificate PDF",
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)),
	)

	return pdf, nil
}

// Close tears down the shared browser allocator.
func (r *ChromeRenderer) Close() {
	r.allocCancel()
}
