package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobboard/crawler/internal/api"
	"github.com/jobboard/crawler/internal/api/middleware"
	"github.com/jobboard/crawler/internal/config"
	"github.com/jobboard/crawler/internal/crawler"
	"github.com/jobboard/crawler/internal/lock"
	"github.com/jobboard/crawler/internal/posttime"
	"github.com/jobboard/crawler/internal/scheduler"
	"github.com/jobboard/crawler/internal/scraper"
	"github.com/jobboard/crawler/internal/store"
	"github.com/jobboard/crawler/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Missing store URL or key is fatal here
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Options{Debug: cfg.Server.Debug, Level: cfg.Server.LogLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg)
	if err != nil {
		logger.Error("Crawler exited", zap.Error(err))
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run owns every resource; its deferred cleanups finish before main exits.
func run(cfg *config.Config) error {
	logger.Info("Starting posting crawler",
		zap.Bool("debug", cfg.Server.Debug),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("fetcher_mode", cfg.Crawl.FetcherMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postings, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open posting store: %w", err)
	}
	defer closeStore()
	if cfg.Store.Driver == "memory" {
		logger.Warn("Memory store selected, postings are lost on exit")
	}

	fetcher, closeFetcher := newFetcher(cfg.Crawl)
	defer closeFetcher()

	locker, closeLocker, err := newLocker(ctx, cfg.Lock)
	if err != nil {
		return fmt.Errorf("set up run lock: %w", err)
	}
	defer closeLocker()

	resolver := posttime.NewResolver(nil, logger.Named("posttime"))
	crawl := crawler.New(fetcher, postings, resolver, crawler.OptionsFromConfig(cfg.Crawl), logger.Named("crawler"))
	trigger := scheduler.NewTrigger(crawl, locker, logger.Named("trigger"))

	if cfg.Schedule.Cron != "" {
		sched := scheduler.New(trigger, cfg.Schedule.Cron, logger.Named("scheduler"))
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "Posting Crawler",
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		DisableStartupMessage: !cfg.Server.Debug,
		ErrorHandler:          api.ErrorHandler(logger.Get()),
	})

	middleware.Setup(app, cfg, logger.Named("http"))

	api.SetupRoutes(app, &api.Dependencies{
		Store:       postings,
		Trigger:     trigger,
		Logger:      logger.Named("api"),
		BaseContext: ctx,
	})

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down gracefully...")
		_ = app.ShutdownWithTimeout(30 * time.Second)
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", addr))

	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return nil
}

func newFetcher(cfg config.CrawlConfig) (scraper.Fetcher, func()) {
	if cfg.FetcherMode == "browser" {
		browserCfg := scraper.DefaultBrowserConfig()
		browserCfg.UserAgent = cfg.UserAgent
		browserCfg.Timeout = cfg.Timeout
		browser := scraper.NewBrowserFetcher(browserCfg, logger.Named("browser"))
		return browser, browser.Close
	}

	httpCfg := scraper.DefaultHTTPConfig()
	httpCfg.UserAgent = cfg.UserAgent
	httpCfg.Timeout = cfg.Timeout
	httpCfg.Retries = cfg.Retries
	return scraper.NewHTTPFetcher(httpCfg, logger.Named("fetcher")), func() {}
}

func newLocker(ctx context.Context, cfg config.LockConfig) (lock.Locker, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, using in-process run lock")
		return lock.NewLocalLocker(), func() {}, nil
	}

	client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return lock.NewRedisLocker(client, cfg.Key, cfg.TTL), func() { _ = client.Close() }, nil
}
