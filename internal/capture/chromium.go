package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	appLog "anchorcal/internal/log"
)

const (
	DefaultWidth      = 984
	DefaultHeight     = 1304
	DefaultTimeoutSec = 30

	// ReadySelector marks the agenda page as fully rendered.
	ReadySelector = `[data-ready="true"]`
)

// Options defines parameters for an agenda snapshot.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/agenda".
	URL string

	// OutputPath is where the PNG is written. Missing directories are created.
	OutputPath string

	// Width and Height are the viewport in pixels. Zero means the defaults.
	Width  int
	Height int

	// Timeout bounds the whole capture. Zero means DefaultTimeoutSec.
	Timeout time.Duration

	// Headers are sent with every request, e.g. basic auth.
	Headers map[string]any
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if o.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return nil
}

// AgendaPNG opens opts.URL in headless Chromium, waits for the agenda to
// report data-ready="true" and writes a full-page PNG to opts.OutputPath.
func AgendaPNG(parentCtx context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if len(opts.Headers) > 0 {
		tasks = append(tasks, network.Enable(), network.SetExtraHTTPHeaders(network.Headers(opts.Headers)))
	}
	tasks = append(tasks,
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		// Let the last paint settle.
		chromedp.Sleep(300*time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	)

	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return fmt.Errorf("capture: create output dir: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	appLog.Info("agenda captured", "path", opts.OutputPath, "bytes", len(png), "elapsed", time.Since(start).String())
	return nil
}
