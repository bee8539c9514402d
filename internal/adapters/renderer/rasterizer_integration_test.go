//go:build integration

package renderer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nicnocquee/spanduck/internal/adapters/renderer"
	"github.com/nicnocquee/spanduck/internal/domain"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// ChromeContainer wraps a testcontainers Chrome instance
type ChromeContainer struct {
	testcontainers.Container
	wsURL string
}

// setupChromeContainer starts a Chrome container with CDP exposed
func setupChromeContainer(ctx context.Context) (*ChromeContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "chromedp/headless-shell:latest",
		ExposedPorts: []string{"9222/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("DevTools listening").WithStartupTimeout(60*time.Second),
			wait.ForHTTP("/json/version").WithPort("9222/tcp").WithStartupTimeout(60*time.Second),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get host: %w", err)
	}
	port, err := container.MappedPort(ctx, "9222")
	if err != nil {
		return nil, fmt.Errorf("failed to get port: %w", err)
	}

	wsURL, err := getWebSocketURL(fmt.Sprintf("http://%s:%s/json/version", host, port.Port()))
	if err != nil {
		return nil, fmt.Errorf("failed to get WebSocket URL: %w", err)
	}

	// Chrome reports its in-container address; swap in the mapped one
	if i := strings.Index(wsURL, "/devtools"); i > 0 {
		wsURL = fmt.Sprintf("ws://%s:%s%s", host, port.Port(), wsURL[i:])
	}

	return &ChromeContainer{Container: container, wsURL: wsURL}, nil
}

func getWebSocketURL(versionURL string) (string, error) {
	resp, err := http.Get(versionURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.WebSocketDebuggerURL, nil
}

func newRemotePool(t *testing.T, maxTabs int) (*renderer.BrowserPool, renderer.BrowserConfig) {
	t.Helper()
	ctx := context.Background()

	chrome, err := setupChromeContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to setup Chrome container: %v", err)
	}
	t.Cleanup(func() { _ = chrome.Terminate(ctx) })

	cfg := renderer.DefaultBrowserConfig()
	cfg.RemoteURL = chrome.wsURL
	cfg.MaxTabs = maxTabs

	pool, err := renderer.NewBrowserPool(cfg)
	if err != nil {
		t.Fatalf("Failed to create browser pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool, cfg
}

func TestIntegration_ChromeRasterizer_ProducesPNG(t *testing.T) {
	pool, cfg := newRemotePool(t, 1)
	r := renderer.New(renderer.NewCatalog("../../../templates"), renderer.NewChromeRasterizer(pool, cfg))
	data := domain.NewTweetMetadata(domain.TweetMetadata{
		TweetID:     "123",
		Username:    "acme",
		DisplayName: "Acme",
		Content:     "integration render",
	}).TemplateData(false)

	png, err := r.Render(context.Background(), 1, data)

	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Errorf("expected PNG output, got % x", png[:min(8, len(png))])
	}
	t.Logf("Rendered %d bytes", len(png))
}

func TestIntegration_ChromeRasterizer_BrokenImage_StillRenders(t *testing.T) {
	pool, cfg := newRemotePool(t, 1)
	raster := renderer.NewChromeRasterizer(pool, cfg)

	png, err := raster.Rasterize(context.Background(), `<html><body><img src="http://invalid.local/x.png"><p>hi</p></body></html>`)

	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("expected PNG output")
	}
}

func TestIntegration_ChromeRasterizer_ConcurrentRenders_AllComplete(t *testing.T) {
	pool, cfg := newRemotePool(t, 2)
	raster := renderer.NewChromeRasterizer(pool, cfg)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := raster.Rasterize(context.Background(), fmt.Sprintf("<html><body><h1>%d</h1></body></html>", idx))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("render failed: %v", err)
		}
	}
}

func TestIntegration_ChromeRasterizer_CanceledContext_ReturnsError(t *testing.T) {
	pool, cfg := newRemotePool(t, 1)
	raster := renderer.NewChromeRasterizer(pool, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := raster.Rasterize(ctx, "<html><body>x</body></html>")

	if err == nil {
		t.Error("expected error for canceled context")
	}
}
