// Package crawler walks the listing site page by page, newest first, and
// reconciles every posting published today into the posting store.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobboard/crawler/internal/config"
	"github.com/jobboard/crawler/internal/domain"
	"github.com/jobboard/crawler/internal/posttime"
	"github.com/jobboard/crawler/internal/scraper"
	"github.com/jobboard/crawler/internal/store"
)

// Options configures pagination against the listing site
type Options struct {
	BaseURL   string
	ListPath  string // fmt pattern taking page number and page size
	PageSize  int
	MaxPages  int // 0 means unbounded
	Selectors config.Selectors
}

// OptionsFromConfig builds Options from the crawl config
func OptionsFromConfig(cfg config.CrawlConfig) Options {
	return Options{
		BaseURL:   cfg.BaseURL,
		ListPath:  cfg.ListPath,
		PageSize:  cfg.PageSize,
		MaxPages:  cfg.MaxPages,
		Selectors: cfg.Selectors,
	}
}

// Crawler drives one sequential crawl at a time. Anchors are processed in
// document order because the stop rule depends on it.
type Crawler struct {
	fetcher  scraper.Fetcher
	store    store.PostingStore
	resolver *posttime.Resolver
	listing  *scraper.ListingParser
	detail   *scraper.DetailParser
	opts     Options
	logger   *zap.Logger
}

// New creates a crawler
func New(fetcher scraper.Fetcher, st store.PostingStore, resolver *posttime.Resolver, opts Options, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		fetcher:  fetcher,
		store:    st,
		resolver: resolver,
		listing:  scraper.NewListingParser(opts.BaseURL, opts.Selectors),
		detail:   scraper.NewDetailParser(opts.Selectors),
		opts:     opts,
		logger:   logger,
	}
}

// Run crawls until it meets a posting not published today, a page with no
// such postings, a failed index page, or the page cap. Per-item failures are
// logged and skipped; only cancellation is returned as an error.
func (c *Crawler) Run(ctx context.Context) (*domain.CrawlResult, error) {
	result := &domain.CrawlResult{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
	}
	log := c.logger.With(zap.String("run_id", result.RunID))
	log.Info("Crawl started", zap.String("base_url", c.opts.BaseURL))

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return c.finish(log, result), err
		}
		if c.opts.MaxPages > 0 && page > c.opts.MaxPages {
			result.Stop = domain.StopMaxPages
			break
		}

		stop, err := c.crawlPage(ctx, log, page, result)
		if err != nil {
			return c.finish(log, result), err
		}
		if stop != "" {
			result.Stop = stop
			break
		}
	}

	return c.finish(log, result), nil
}

func (c *Crawler) crawlPage(ctx context.Context, log *zap.Logger, page int, result *domain.CrawlResult) (domain.StopReason, error) {
	pageURL := c.pageURL(page)
	doc, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Error("Index page fetch failed", zap.Int("page", page), zap.String("url", pageURL), zap.Error(err))
		return domain.StopFetchError, nil
	}
	result.Pages++

	var batch []domain.Posting

	if page == 1 {
		ads := doc.FindAll(c.opts.Selectors.TopAdAnchors)
		log.Info("Top ads found", zap.Int("count", len(ads)))
		for _, anchor := range ads {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			posting, ts, err := c.processAnchor(ctx, log, anchor, true)
			if err != nil {
				result.Skipped++
				continue
			}
			result.Fetched++
			if !c.resolver.IsPostedToday(ts) {
				log.Debug("Ad not posted today", zap.String("title", posting.Title))
				continue
			}
			batch = append(batch, posting)
		}
	}

	anchors := doc.FindAll(c.opts.Selectors.ListingAnchors)
	log.Info("Page fetched", zap.Int("page", page), zap.String("url", pageURL), zap.Int("anchors", len(anchors)))

	var stale bool
	for _, anchor := range anchors {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		posting, ts, err := c.processAnchor(ctx, log, anchor, false)
		if err != nil {
			result.Skipped++
			continue
		}
		result.Fetched++

		if !c.resolver.IsPostedToday(ts) {
			log.Info("Reached posting not from today, stopping",
				zap.Int("page", page),
				zap.String("title", posting.Title),
				zap.Time("created_at", posting.CreatedAt),
			)
			stale = true
			break
		}
		batch = append(batch, posting)
	}

	c.reconcile(ctx, log, batch, result)

	switch {
	case stale:
		return domain.StopStale, nil
	case len(batch) == 0:
		return domain.StopEmptyPage, nil
	}
	return "", nil
}

// processAnchor parses one anchor, fetches its detail page and resolves the
// registration time. A failed detail fetch skips only this anchor.
func (c *Crawler) processAnchor(ctx context.Context, log *zap.Logger, anchor scraper.Element, isAd bool) (domain.Posting, int64, error) {
	listing := c.listing.Parse(anchor)
	log.Debug("Listing parsed",
		zap.String("title", listing.Title),
		zap.String("url", listing.DetailURL),
		zap.Bool("ad", isAd),
	)

	if listing.DetailURL == "" {
		err := errors.New("anchor has no href")
		log.Warn("Skipping listing", zap.String("title", listing.Title), zap.Error(err))
		return domain.Posting{}, 0, err
	}

	doc, err := c.fetcher.Fetch(ctx, listing.DetailURL)
	if err != nil {
		log.Warn("Detail fetch failed, skipping",
			zap.String("title", listing.Title),
			zap.String("url", listing.DetailURL),
			zap.Error(err),
		)
		return domain.Posting{}, 0, err
	}

	detail := c.detail.Parse(doc)
	detail.RegistrationTimestamp = c.resolver.ResolveEpoch(detail.RegistrationLabel)
	log.Debug("Timestamp resolved",
		zap.String("title", listing.Title),
		zap.String("label", detail.RegistrationLabel),
		zap.Int64("epoch", detail.RegistrationTimestamp),
		zap.String("post_id", detail.PostID),
	)

	return domain.NewPosting(listing, detail, isAd), detail.RegistrationTimestamp, nil
}

func (c *Crawler) reconcile(ctx context.Context, log *zap.Logger, batch []domain.Posting, result *domain.CrawlResult) {
	for _, p := range batch {
		inserted, err := Reconcile(ctx, c.store, p)
		if err != nil {
			result.Failed++
			log.Error("Posting upsert failed", zap.String("title", p.Title), zap.Error(err))
			continue
		}
		if inserted {
			result.Inserted++
			log.Info("Posting inserted", zap.String("title", p.Title), zap.Bool("ad", p.IsAd))
		} else {
			result.Updated++
			log.Info("Posting updated", zap.String("title", p.Title), zap.Bool("ad", p.IsAd))
		}
	}
}

func (c *Crawler) pageURL(page int) string {
	return strings.TrimRight(c.opts.BaseURL, "/") + fmt.Sprintf(c.opts.ListPath, page, c.opts.PageSize)
}

func (c *Crawler) finish(log *zap.Logger, result *domain.CrawlResult) *domain.CrawlResult {
	result.EndTime = time.Now()
	log.Info("Crawl finished",
		zap.String("stop_reason", string(result.Stop)),
		zap.Int("pages", result.Pages),
		zap.Int("fetched", result.Fetched),
		zap.Int("skipped", result.Skipped),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration()),
	)
	return result
}
