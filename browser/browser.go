// Package browser renders agent profiles in headless Chrome and exposes each
// tab as a dom.Page and dom.Interactor.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"realtor-extractor/dom"
	"realtor-extractor/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const defaultNavigationTimeout = 45 * time.Second

// Options configures the Chrome process.
type Options struct {
	ChromeBin         string
	Headless          bool
	NavigationTimeout time.Duration
}

// Browser owns one Chrome process. Tabs opened from it share the process.
type Browser struct {
	opts        Options
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancel      context.CancelFunc
	logger      utils.Logger
}

// Launch starts Chrome.
func Launch(opts Options, logger utils.Logger) (*Browser, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = defaultNavigationTimeout
	}

	chromeBin := opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] using browser binary", zap.String("path", chromeBin), zap.Bool("headless", opts.Headless))

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	// Suppress chromedp log noise
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// The first Run starts the process.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		cancelAlloc()
		return nil, eris.Wrap(err, "browser: start chrome")
	}

	return &Browser{opts: opts, ctx: ctx, cancelAlloc: cancelAlloc, cancel: cancel, logger: logger}, nil
}

// Open loads pageURL in a new tab and waits for the body to be ready.
func (b *Browser) Open(ctx context.Context, pageURL string) (*Tab, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, eris.Wrap(err, "browser: open tab")
	}

	t := &Tab{ctx: tabCtx, cancel: cancel, url: pageURL, logger: b.logger}
	navCtx, cancelNav := context.WithTimeout(ctx, b.opts.NavigationTimeout)
	defer cancelNav()

	start := time.Now()
	if err := t.run(navCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		t.Close()
		return nil, eris.Wrapf(err, "browser: navigate %s", pageURL)
	}

	b.logger.Info("[browser] page loaded",
		zap.String("url", pageURL),
		zap.Duration("elapsed", time.Since(start)),
	)
	return t, nil
}

// Close shuts Chrome down.
func (b *Browser) Close() {
	b.cancel()
	b.cancelAlloc()
}

// Tab is one loaded page.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	url    string
	logger utils.Logger
}

var (
	_ dom.Page       = (*Tab)(nil)
	_ dom.Interactor = (*Tab)(nil)
)

// URL implements dom.Page.
func (t *Tab) URL() string { return t.url }

// Snapshot implements dom.Page. The live DOM is cloned and each image's
// natural size is written onto the clone, so validators can judge
// dimensions without a second round trip.
func (t *Tab) Snapshot(ctx context.Context) (*goquery.Document, error) {
	var markup string
	if err := t.run(ctx, chromedp.Evaluate(snapshotScript, &markup)); err != nil {
		return nil, eris.Wrap(err, "browser: snapshot")
	}
	return dom.Parse(t.url, markup)
}

// Click implements dom.Interactor.
func (t *Tab) Click(ctx context.Context, selector string) error {
	script, err := clickScript(selector)
	if err != nil {
		return err
	}
	var clicked bool
	if err := t.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return eris.Wrapf(err, "browser: click %q", selector)
	}
	if !clicked {
		return eris.Wrapf(dom.ErrNoElement, "browser: click %q", selector)
	}
	return nil
}

// Close closes the tab.
func (t *Tab) Close() {
	t.cancel()
}

// run executes actions on the tab, bounded by ctx. Cancelling ctx aborts the
// actions but leaves the tab open.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

const snapshotScript = `(() => {
	const clone = document.documentElement.cloneNode(true);
	const live = document.querySelectorAll('img');
	const copies = clone.querySelectorAll('img');
	for (let i = 0; i < live.length && i < copies.length; i++) {
		const img = live[i];
		const w = img.naturalWidth || img.width;
		const h = img.naturalHeight || img.height;
		if (w) copies[i].setAttribute('data-natural-width', String(w));
		if (h) copies[i].setAttribute('data-natural-height', String(h));
		if (img.currentSrc && !copies[i].getAttribute('src')) copies[i].setAttribute('src', img.currentSrc);
	}
	clone.querySelectorAll('script:not([type="application/ld+json"]), style').forEach((n) => n.remove());
	return '<!DOCTYPE html>' + clone.outerHTML;
})()`

// clickScript clicks the first element matching selector and reports
// whether one existed.
func clickScript(selector string) (string, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return "", eris.Wrap(err, "browser: encode selector")
	}
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	el.scrollIntoView({block: 'center'});
	el.click();
	return true;
})()`, quoted), nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
