package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the crawler service
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Lock      LockConfig      `yaml:"lock"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Debug        bool          `yaml:"debug"`
	LogLevel     string        `yaml:"log_level"`
}

// StoreConfig locates the posting store. URL and Key are mandatory.
type StoreConfig struct {
	Driver  string        `yaml:"driver"` // postgrest | postgres | memory
	URL     string        `yaml:"url"`
	Key     string        `yaml:"key"`
	Table   string        `yaml:"table"`
	Timeout time.Duration `yaml:"timeout"`
}

type CrawlConfig struct {
	BaseURL     string        `yaml:"base_url"`
	ListPath    string        `yaml:"list_path"` // fmt pattern taking page and page size
	PageSize    int           `yaml:"page_size"`
	MaxPages    int           `yaml:"max_pages"`
	UserAgent   string        `yaml:"user_agent"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
	FetcherMode string        `yaml:"fetcher_mode"` // http | browser
	Selectors   Selectors     `yaml:"selectors"`
}

// Selectors describes the markup of the listing site
type Selectors struct {
	TopAdAnchors   string `yaml:"top_ad_anchors"`
	ListingAnchors string `yaml:"listing_anchors"`
	TitleBlock     string `yaml:"title_block"`
	Title          string `yaml:"title"`
	CreatedAt      string `yaml:"created_at"`
	Muted          string `yaml:"muted"`

	DetailTitle   string `yaml:"detail_title"`
	DetailContent string `yaml:"detail_content"`
	DetailTag     string `yaml:"detail_tag"`
	DetailContact string `yaml:"detail_contact"`
	DetailLang    string `yaml:"detail_language"`
	DetailSubSpan string `yaml:"detail_sub_span"`
}

type ScheduleConfig struct {
	Cron string `yaml:"cron"` // empty disables the in-process schedule
}

type LockConfig struct {
	RedisURL string        `yaml:"redis_url"` // empty falls back to an in-process lock
	Key      string        `yaml:"key"`
	TTL      time.Duration `yaml:"ttl"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

var (
	ErrMissingStoreURL = errors.New("STORE_URL is required")
	ErrMissingStoreKey = errors.New("STORE_KEY is required")
)

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := defaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing startup values
func (c *Config) Validate() error {
	if c.Store.URL == "" {
		return ErrMissingStoreURL
	}
	if c.Store.Key == "" {
		return ErrMissingStoreKey
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
			Debug:        false,
		},
		Store: StoreConfig{
			Driver:  "postgrest",
			Table:   "posts",
			Timeout: 10 * time.Second,
		},
		Crawl: CrawlConfig{
			BaseURL:     "https://www.jobkorea-us.example",
			ListPath:    "/job/list?page=%d&limit=%d",
			PageSize:    30,
			MaxPages:    50,
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Timeout:     15 * time.Second,
			Retries:     2,
			FetcherMode: "http",
			Selectors:   DefaultSelectors(),
		},
		Lock: LockConfig{
			Key: "crawler:run",
			TTL: 15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 10,
		},
	}
}

// DefaultSelectors returns the selector set for the listing site
func DefaultSelectors() Selectors {
	return Selectors{
		TopAdAnchors:   "div.top-ad-list a.list-group-item",
		ListingAnchors: "div.post-list a.list-group-item",
		TitleBlock:     "div.title-block",
		Title:          ".post-title",
		CreatedAt:      ".created-at",
		Muted:          ".text-muted",

		DetailTitle:   "h1.post-title",
		DetailContent: "div.post-content",
		DetailTag:     "div.post-tags .tag",
		DetailContact: ".post-contact",
		DetailLang:    ".post-language",
		DetailSubSpan: "div.sub-title > span",
	}
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DEBUG"); v == "true" {
		c.Server.Debug = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}

	// Store
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("STORE_URL"); v != "" {
		c.Store.URL = v
	}
	if v := os.Getenv("STORE_KEY"); v != "" {
		c.Store.Key = v
	}
	if v := os.Getenv("STORE_TABLE"); v != "" {
		c.Store.Table = v
	}

	// Crawl
	if v := os.Getenv("CRAWL_BASE_URL"); v != "" {
		c.Crawl.BaseURL = v
	}
	if v := os.Getenv("CRAWL_LIST_PATH"); v != "" {
		c.Crawl.ListPath = v
	}
	if v := os.Getenv("CRAWL_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Crawl.PageSize = n
		}
	}
	if v := os.Getenv("CRAWL_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Crawl.MaxPages = n
		}
	}
	if v := os.Getenv("CRAWL_USER_AGENT"); v != "" {
		c.Crawl.UserAgent = v
	}
	if v := os.Getenv("CRAWL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Crawl.Timeout = d
		}
	}
	if v := os.Getenv("CRAWL_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Crawl.Retries = n
		}
	}
	if v := os.Getenv("FETCHER_MODE"); v != "" {
		c.Crawl.FetcherMode = v
	}

	// Schedule and lock
	if v, ok := os.LookupEnv("CRAWL_SCHEDULE"); ok {
		c.Schedule.Cron = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Lock.RedisURL = v
	}
	if v := os.Getenv("LOCK_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Lock.TTL = d
		}
	}
}
