package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const maxBodyBytes = 10 << 20

// HTTPConfig configures the plain HTTP fetcher
type HTTPConfig struct {
	UserAgent     string
	Timeout       time.Duration
	Retries       int
	RetryInterval time.Duration
}

// DefaultHTTPConfig returns sensible defaults
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		UserAgent:     DefaultBrowserConfig().UserAgent,
		Timeout:       15 * time.Second,
		Retries:       2,
		RetryInterval: 500 * time.Millisecond,
	}
}

// HTTPFetcher fetches pages with a browser-like user agent. Transient
// failures (network errors, 429, 5xx) are retried with exponential backoff.
type HTTPFetcher struct {
	client *http.Client
	config HTTPConfig
	logger *zap.Logger
}

// NewHTTPFetcher creates a new HTTP fetcher
func NewHTTPFetcher(config HTTPConfig, logger *zap.Logger) *HTTPFetcher {
	if config.RetryInterval <= 0 {
		config.RetryInterval = DefaultHTTPConfig().RetryInterval
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: config.Timeout},
		config: config,
		logger: logger,
	}
}

// Fetch retrieves url and parses the body
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Element, error) {
	var doc Element

	op := func() error {
		d, err := f.fetchOnce(ctx, url)
		if err != nil {
			return err
		}
		doc = d
		return nil
	}

	notify := func(err error, wait time.Duration) {
		f.logger.Warn("Retrying fetch",
			zap.String("url", url),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, f.backOff(ctx), notify); err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{URL: url, Err: err}
		}
		return nil, err
	}

	f.logger.Debug("Page fetched", zap.String("url", url))
	return doc, nil
}

func (f *HTTPFetcher) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.config.RetryInterval
	b.MaxElapsedTime = 0

	var retries uint64
	if f.config.Retries > 0 {
		retries = uint64(f.config.Retries)
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (Element, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(&FetchError{URL: url, Err: err})
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(&FetchError{URL: url, Err: err})
		}
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		fe := &FetchError{URL: url, StatusCode: resp.StatusCode, Err: errUnexpectedStatus}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fe
		}
		return nil, backoff.Permanent(fe)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, backoff.Permanent(&FetchError{URL: url, Err: fmt.Errorf("decode body: %w", err)})
	}

	doc, err := NewDocument(body)
	if err != nil {
		return nil, backoff.Permanent(&FetchError{URL: url, Err: err})
	}
	return doc, nil
}
