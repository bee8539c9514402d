package renderer

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/nicnocquee/spanduck/pkg/log"
)

// tabSlots is a counting semaphore bounding concurrent tabs.
type tabSlots chan struct{}

func newTabSlots(n int) tabSlots {
	return make(tabSlots, n)
}

// acquire blocks until a slot is free or ctx is done.
func (s tabSlots) acquire(ctx context.Context) error {
	select {
	case s <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s tabSlots) release() {
	<-s
}

// BrowserPool manages a single Chrome process and bounds the number of
// tabs open at the same time.
type BrowserPool struct {
	allocCtx context.Context
	ctx      context.Context
	cancel   context.CancelFunc
	opts     []chromedp.ExecAllocatorOption
	remote   string

	mu     sync.Mutex
	tabSem tabSlots
}

// AllocatorOptions turns the config into Chrome launch flags.
func AllocatorOptions(cfg BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		// Core
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),

		// Templates load avatars and media from other origins, some with broken certificates
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("ignore-certificate-errors", true),

		// Memory / CPU reduction
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-features", "Translate,BackForwardCache"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),

		chromedp.WindowSize(cfg.Width, cfg.Height),
	)

	if cfg.NoSandbox {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}
	for _, flag := range cfg.ExtraFlags {
		opts = append(opts, chromedp.Flag(flag, true))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// NewBrowserPool starts Chrome (or connects to cfg.RemoteURL) and allows
// at most cfg.MaxTabs tabs at a time.
func NewBrowserPool(cfg BrowserConfig) (*BrowserPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bp := &BrowserPool{
		opts:   AllocatorOptions(cfg),
		remote: cfg.RemoteURL,
		tabSem: newTabSlots(cfg.MaxTabs),
	}
	if cfg.ExecPath != "" {
		log.GlobalInfo("browser pool using custom chrome path", "path", cfg.ExecPath)
	}

	if err := bp.start(); err != nil {
		return nil, err
	}
	return bp, nil
}

// start initializes or restarts the Chrome process.
func (bp *BrowserPool) start() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.cancel != nil {
		bp.cancel()
	}

	var (
		allocCtx context.Context
		cancel   context.CancelFunc
	)
	if bp.remote != "" {
		allocCtx, cancel = chromedp.NewRemoteAllocator(context.Background(), bp.remote)
	} else {
		allocCtx, cancel = chromedp.NewExecAllocator(context.Background(), bp.opts...)
	}
	ctx, _ := chromedp.NewContext(allocCtx)

	// Force Chrome startup
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return fmt.Errorf("start chrome: %w", err)
	}

	bp.allocCtx = allocCtx
	bp.ctx = ctx
	bp.cancel = cancel

	log.GlobalInfo("browser pool chrome started", "remote", bp.remote != "", "max_tabs", cap(bp.tabSem))
	return nil
}

// WithTab runs fn in a fresh tab once a slot is free.
// Waiting honours ctx, and the tab is closed when ctx is done so an
// abandoned request does not keep a page alive.
func (bp *BrowserPool) WithTab(ctx context.Context, fn func(tabCtx context.Context) error) error {
	if err := bp.tabSem.acquire(ctx); err != nil {
		return err
	}
	defer bp.tabSem.release()

	tabCtx, tabCancel, err := bp.acquireTab()
	if err != nil {
		return err
	}
	defer tabCancel()

	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	return fn(tabCtx)
}

// acquireTab creates a new browser tab and performs a health check.
// If the browser is unhealthy, it restarts Chrome and creates a new tab.
func (bp *BrowserPool) acquireTab() (context.Context, context.CancelFunc, error) {
	bp.mu.Lock()
	tabCtx, tabCancel := chromedp.NewContext(bp.ctx)
	bp.mu.Unlock()

	// Health check - verify the tab is functional
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()

		log.GlobalWarn("browser pool tab failed, restarting chrome", "error", err)

		if restartErr := bp.start(); restartErr != nil {
			return nil, nil, restartErr
		}

		bp.mu.Lock()
		tabCtx, tabCancel = chromedp.NewContext(bp.ctx)
		bp.mu.Unlock()
	}

	return tabCtx, tabCancel, nil
}

// Close shuts down the browser completely.
func (bp *BrowserPool) Close() {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.cancel != nil {
		bp.cancel()
		bp.cancel = nil
		log.GlobalInfo("browser pool chrome stopped")
	}
}
