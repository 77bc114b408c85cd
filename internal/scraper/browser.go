package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// BrowserConfig configures the headless renderer
type BrowserConfig struct {
	UserAgent      string
	AcceptLanguage string
	ProxyURL       string
	// WaitSelector must be present before the markup is captured
	WaitSelector string
	Timeout      time.Duration
	WindowWidth  int
	WindowHeight int
}

// DefaultBrowserConfig returns defaults for the Korean listing site
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage: "ko-KR,ko;q=0.9,en;q=0.5",
		WaitSelector:   "body",
		Timeout:        30 * time.Second,
		WindowWidth:    1920,
		WindowHeight:   1080,
	}
}

func allocatorOptions(cfg *BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}
	return opts
}

// BrowserFetcher renders pages in headless Chrome before parsing them.
// Used when the listing site serves bot-restricted markup to plain clients.
// One browser process is shared; every Fetch opens its own tab.
type BrowserFetcher struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	cfg      *BrowserConfig
	logger   *zap.Logger
}

// NewBrowserFetcher starts the browser allocator. Chrome itself is launched
// lazily by the first Fetch.
func NewBrowserFetcher(cfg *BrowserConfig, logger *zap.Logger) *BrowserFetcher {
	if cfg == nil {
		cfg = DefaultBrowserConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	return &BrowserFetcher{allocCtx: allocCtx, cancel: cancel, cfg: cfg, logger: logger}
}

// Close shuts the browser down
func (f *BrowserFetcher) Close() {
	f.cancel()
}

// Fetch renders url and parses the resulting HTML. A main-document status of
// 400 or above fails the fetch the same way the HTTP fetcher does.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (Element, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.allocCtx)
	defer cancelTab()
	if f.cfg.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, f.cfg.Timeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	if f.cfg.AcceptLanguage != "" {
		err := chromedp.Run(tabCtx,
			network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": f.cfg.AcceptLanguage}),
		)
		if err != nil {
			return nil, &FetchError{URL: url, Err: err}
		}
	}

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(url))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if err := checkRenderStatus(url, resp); err != nil {
		return nil, err
	}

	var markup string
	err = chromedp.Run(tabCtx,
		chromedp.WaitReady(f.cfg.WaitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	f.logger.Debug("Page rendered", zap.String("url", url), zap.Int("bytes", len(markup)))

	doc, err := NewDocument(strings.NewReader(markup))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return doc, nil
}

func checkRenderStatus(url string, resp *network.Response) error {
	if resp == nil || resp.Status < 400 {
		return nil
	}
	return &FetchError{URL: url, StatusCode: int(resp.Status), Err: errUnexpectedStatus}
}
