package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/IshaanNene/bookscout/internal/config"
)

func TestSetupLoggerFormats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"text", "msg=hello"},
		{"json", `"msg":"hello"`},
		{"pretty", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Logging.Format = tt.format

			var buf bytes.Buffer
			setupLogger(cfg, &buf).Info("hello", "k", "v")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestSetupLoggerLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "warn"

	var buf bytes.Buffer
	logger := setupLogger(cfg, &buf)
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn disabled at warn level")
	}
}

func TestApplyCLIOverrides(t *testing.T) {
	cmd := newRootCmd()
	err := cmd.ParseFlags([]string{
		"--start-url", "http://localhost:8080/",
		"--max-pages", "5",
		"--driver", "HTTP",
		"--categories", "Travel, Poetry,",
		"--headless",
		"--continue-on-error",
	})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	cfg := config.DefaultConfig()
	applyCLIOverrides(cmd, cfg)

	if cfg.Site.StartURL != "http://localhost:8080/" {
		t.Errorf("StartURL = %q", cfg.Site.StartURL)
	}
	if cfg.Site.MaxPages != 5 {
		t.Errorf("MaxPages = %d, want 5", cfg.Site.MaxPages)
	}
	if cfg.Browser.Driver != "http" {
		t.Errorf("Driver = %q, want http", cfg.Browser.Driver)
	}
	if got := strings.Join(cfg.Site.CategoryFilters, "|"); got != "Travel|Poetry" {
		t.Errorf("CategoryFilters = %q, want Travel|Poetry", got)
	}
	if !cfg.Browser.Headless {
		t.Error("Headless not applied")
	}
	if !cfg.Run.ContinueOnError {
		t.Error("ContinueOnError not applied")
	}
	// Flags left unset keep config values.
	if cfg.Browser.Stealth != config.DefaultConfig().Browser.Stealth {
		t.Error("Stealth changed without flag")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := out.String(); got != "BookScout "+config.Version+"\n" {
		t.Errorf("version output = %q", got)
	}
}
