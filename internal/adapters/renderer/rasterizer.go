package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// waitForImages resolves once every <img> has loaded or failed.
const waitForImages = `Promise.all(
	Array.from(document.images)
		.filter((img) => !img.complete)
		.map((img) => new Promise((resolve) => { img.onload = img.onerror = resolve; }))
).then(() => document.fonts ? document.fonts.ready : null).then(() => true)`

// ChromeRasterizer renders HTML to PNG in a pooled Chrome tab.
type ChromeRasterizer struct {
	pool    *BrowserPool
	width   int64
	height  int64
	scale   float64
	timeout time.Duration
}

// NewChromeRasterizer creates a rasterizer over pool with the viewport from cfg.
func NewChromeRasterizer(pool *BrowserPool, cfg BrowserConfig) *ChromeRasterizer {
	return &ChromeRasterizer{
		pool:    pool,
		width:   int64(cfg.Width),
		height:  int64(cfg.Height),
		scale:   cfg.Scale,
		timeout: cfg.RenderTimeout,
	}
}

// Rasterize loads html into a blank page and captures the body as PNG.
func (r *ChromeRasterizer) Rasterize(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var png []byte
	err := r.pool.WithTab(ctx, func(tabCtx context.Context) error {
		var loaded bool
		return chromedp.Run(tabCtx,
			chromedp.EmulateViewport(r.width, r.height, chromedp.EmulateScale(r.scale)),
			chromedp.Navigate("about:blank"),
			chromedp.ActionFunc(func(ctx context.Context) error {
				tree, err := page.GetFrameTree().Do(ctx)
				if err != nil {
					return err
				}
				return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
			}),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Evaluate(waitForImages, &loaded, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}),
			chromedp.Screenshot("body", &png, chromedp.ByQuery),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	if len(png) == 0 {
		return nil, fmt.Errorf("rasterize: empty screenshot")
	}
	return png, nil
}
