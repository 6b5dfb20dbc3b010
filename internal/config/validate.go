package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Site.StartURL); err != nil {
		return fmt.Errorf("site.start_url: %w", err)
	}
	if len(cfg.Site.CategoryFilters) == 0 {
		return fmt.Errorf("site.category_filters must name at least one category")
	}
	for _, f := range cfg.Site.CategoryFilters {
		if f == "" {
			return fmt.Errorf("site.category_filters must not contain empty entries")
		}
	}
	if cfg.Site.MaxPages < 1 {
		return fmt.Errorf("site.max_pages must be >= 1, got %d", cfg.Site.MaxPages)
	}

	if cfg.Selectors.Thumbnail == "" || cfg.Selectors.Content == "" {
		return fmt.Errorf("selectors.thumbnail and selectors.content are required")
	}

	validDrivers := map[string]bool{
		"rod": true, "chromedp": true, "http": true,
	}
	if !validDrivers[cfg.Browser.Driver] {
		return fmt.Errorf("browser.driver %q is not supported (valid: rod, chromedp, http)", cfg.Browser.Driver)
	}
	if cfg.Browser.RequestTimeout <= 0 {
		return fmt.Errorf("browser.request_timeout must be > 0")
	}
	if cfg.Browser.Proxy != "" {
		if _, err := url.Parse(cfg.Browser.Proxy); err != nil {
			return fmt.Errorf("invalid proxy URL %q: %w", cfg.Browser.Proxy, err)
		}
	}

	if cfg.Wait.PollInterval <= 0 {
		return fmt.Errorf("wait.poll_interval must be > 0")
	}
	if cfg.Wait.CategoryTimeout < 0 || cfg.Wait.ListingTimeout < 0 || cfg.Wait.DetailTimeout < 0 {
		return fmt.Errorf("wait timeouts must be >= 0")
	}

	if cfg.Browser.Driver == "http" {
		if cfg.HTTP.MaxBodySize <= 0 {
			return fmt.Errorf("http.max_body_size must be > 0")
		}
		if cfg.HTTP.CacheSize < 0 {
			return fmt.Errorf("http.cache_size must be >= 0, got %d", cfg.HTTP.CacheSize)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{
		"text": true, "json": true, "pretty": true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be text/json/pretty, got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
		if cfg.Metrics.Path == "" || cfg.Metrics.Path[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid for navigation.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
