package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PriceCheck/internal/model"
)

// Sources accepted by data_source.source.
const (
	SourceChart = "chart"
	SourceQuote = "quote"
	SourceMock  = "mock"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Source        string            `yaml:"source"`
		BaseURL       string            `yaml:"base_url"`
		TimeoutSec    int               `yaml:"timeout_sec"`
		DefaultSymbol string            `yaml:"default_symbol"`
		UserAgent     string            `yaml:"user_agent"`
		Aliases       map[string]string `yaml:"aliases"`
	} `yaml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Watch struct {
		Cron    string   `yaml:"cron"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"watch"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// Load reads .env (if present) and the YAML file, then applies environment
// variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PRICECHECK_SOURCE"); v != "" {
		cfg.DataSource.Source = v
	}
	if v := os.Getenv("PRICECHECK_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("PRICECHECK_TIMEOUT_SEC"); v != "" {
		sec, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("parse PRICECHECK_TIMEOUT_SEC: %w", err)
		}
		cfg.DataSource.TimeoutSec = sec
	}
	if v := os.Getenv("PRICECHECK_DEFAULT_SYMBOL"); v != "" {
		cfg.DataSource.DefaultSymbol = v
	}
	if v := os.Getenv("PRICECHECK_USER_AGENT"); v != "" {
		cfg.DataSource.UserAgent = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("WATCH_CRON"); v != "" {
		cfg.Watch.Cron = v
	}
	if v := os.Getenv("WATCH_SYMBOLS"); v != "" {
		cfg.Watch.Symbols = splitCSV(v)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// Defaults
	cfg.DataSource.Source = strings.ToLower(strings.TrimSpace(cfg.DataSource.Source))
	if cfg.DataSource.Source == "" {
		cfg.DataSource.Source = SourceChart
	}
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.DataSource.TimeoutSec == 0 {
		cfg.DataSource.TimeoutSec = 5
	}
	if cfg.DataSource.DefaultSymbol == "" {
		cfg.DataSource.DefaultSymbol = string(model.DefaultSymbol)
	}
	if len(cfg.Watch.Symbols) == 0 {
		cfg.Watch.Symbols = []string{cfg.DataSource.DefaultSymbol}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.DataSource.Source {
	case SourceChart, SourceQuote, SourceMock:
	default:
		return fmt.Errorf("data_source.source must be one of %s, %s, %s; got %q",
			SourceChart, SourceQuote, SourceMock, c.DataSource.Source)
	}
	if c.DataSource.TimeoutSec <= 0 {
		return fmt.Errorf("data_source.timeout_sec must be positive")
	}
	if !strings.HasPrefix(c.DataSource.BaseURL, "http://") && !strings.HasPrefix(c.DataSource.BaseURL, "https://") {
		return fmt.Errorf("data_source.base_url must be an http(s) URL")
	}
	if model.NormalizeSymbol(c.DataSource.DefaultSymbol) == "" {
		return fmt.Errorf("data_source.default_symbol is required")
	}
	return nil
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutSec) * time.Second
}

// WatchSymbols returns the normalized, de-duplicated watch list in config order.
func (c *Config) WatchSymbols() []model.Symbol {
	seen := make(map[model.Symbol]struct{}, len(c.Watch.Symbols))
	out := make([]model.Symbol, 0, len(c.Watch.Symbols))
	for _, s := range c.Watch.Symbols {
		sym := model.NormalizeSymbol(s)
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
