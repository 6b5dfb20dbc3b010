package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for BookScout.
type Config struct {
	Site      SiteConfig     `mapstructure:"site"      yaml:"site"`
	Selectors SelectorConfig `mapstructure:"selectors" yaml:"selectors"`
	Browser   BrowserConfig  `mapstructure:"browser"   yaml:"browser"`
	Wait      WaitConfig     `mapstructure:"wait"      yaml:"wait"`
	HTTP      HTTPConfig     `mapstructure:"http"      yaml:"http"`
	Run       RunConfig      `mapstructure:"run"       yaml:"run"`
	Logging   LoggingConfig  `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig  `mapstructure:"metrics"   yaml:"metrics"`
}

// SiteConfig describes where the scrape starts and how far it goes.
type SiteConfig struct {
	StartURL        string   `mapstructure:"start_url"        yaml:"start_url"`
	CategoryFilters []string `mapstructure:"category_filters" yaml:"category_filters"`
	MaxPages        int      `mapstructure:"max_pages"        yaml:"max_pages"`
}

// SelectorConfig holds the XPath expressions used against rendered pages.
type SelectorConfig struct {
	Thumbnail string `mapstructure:"thumbnail" yaml:"thumbnail"`
	Content   string `mapstructure:"content"   yaml:"content"`
}

// BrowserConfig controls the automation driver.
type BrowserConfig struct {
	Driver         string        `mapstructure:"driver"          yaml:"driver"` // rod, chromedp, http
	Headless       bool          `mapstructure:"headless"        yaml:"headless"`
	Maximized      bool          `mapstructure:"maximized"       yaml:"maximized"`
	WindowSize     string        `mapstructure:"window_size"     yaml:"window_size"`
	Stealth        bool          `mapstructure:"stealth"         yaml:"stealth"`
	Bin            string        `mapstructure:"bin"             yaml:"bin"`
	Proxy          string        `mapstructure:"proxy"           yaml:"proxy"`
	UserAgent      string        `mapstructure:"user_agent"      yaml:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// WaitConfig bounds the polling waits performed after each navigation.
type WaitConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"    yaml:"poll_interval"`
	CategoryTimeout time.Duration `mapstructure:"category_timeout" yaml:"category_timeout"`
	ListingTimeout  time.Duration `mapstructure:"listing_timeout"  yaml:"listing_timeout"`
	DetailTimeout   time.Duration `mapstructure:"detail_timeout"   yaml:"detail_timeout"`
}

// HTTPConfig controls the browserless http driver.
type HTTPConfig struct {
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	CacheSize       int           `mapstructure:"cache_size"        yaml:"cache_size"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// RunConfig controls orchestration behavior.
type RunConfig struct {
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error"`
	Progress        bool `mapstructure:"progress"          yaml:"progress"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text, json, pretty
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config that scrapes the Travel and Nonfiction
// categories of books.toscrape.com in a maximized Chromium window.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			StartURL:        "https://books.toscrape.com/",
			CategoryFilters: []string{"Travel", "Nonfiction"},
			MaxPages:        3,
		},
		Selectors: SelectorConfig{
			Thumbnail: "//div[@class='image_container']//a",
			Content:   "//div[@class='content']",
		},
		Browser: BrowserConfig{
			Driver:         "rod",
			Headless:       false,
			Maximized:      true,
			WindowSize:     "1920,1080",
			RequestTimeout: 30 * time.Second,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Wait: WaitConfig{
			PollInterval:    100 * time.Millisecond,
			CategoryTimeout: 2 * time.Second,
			ListingTimeout:  2 * time.Second,
			DetailTimeout:   5 * time.Second,
		},
		HTTP: HTTPConfig{
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			CacheSize:       128,
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
