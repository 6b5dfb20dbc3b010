package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller after Load returns.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("BOOKSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("bookscout")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".bookscout"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env vars can override them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("site.start_url", cfg.Site.StartURL)
	v.SetDefault("site.category_filters", cfg.Site.CategoryFilters)
	v.SetDefault("site.max_pages", cfg.Site.MaxPages)

	v.SetDefault("selectors.thumbnail", cfg.Selectors.Thumbnail)
	v.SetDefault("selectors.content", cfg.Selectors.Content)

	v.SetDefault("browser.driver", cfg.Browser.Driver)
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.maximized", cfg.Browser.Maximized)
	v.SetDefault("browser.window_size", cfg.Browser.WindowSize)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.proxy", cfg.Browser.Proxy)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.request_timeout", cfg.Browser.RequestTimeout)

	v.SetDefault("wait.poll_interval", cfg.Wait.PollInterval)
	v.SetDefault("wait.category_timeout", cfg.Wait.CategoryTimeout)
	v.SetDefault("wait.listing_timeout", cfg.Wait.ListingTimeout)
	v.SetDefault("wait.detail_timeout", cfg.Wait.DetailTimeout)

	v.SetDefault("http.max_body_size", cfg.HTTP.MaxBodySize)
	v.SetDefault("http.cache_size", cfg.HTTP.CacheSize)
	v.SetDefault("http.idle_conn_timeout", cfg.HTTP.IdleConnTimeout)
	v.SetDefault("http.max_idle_conns", cfg.HTTP.MaxIdleConns)

	v.SetDefault("run.continue_on_error", cfg.Run.ContinueOnError)
	v.SetDefault("run.progress", cfg.Run.Progress)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
