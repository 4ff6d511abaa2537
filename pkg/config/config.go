package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"Heatmap/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Finnhub struct {
		APIKey         string        `yaml:"api_key"`
		BaseURL        string        `yaml:"base_url"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxRetries     int           `yaml:"max_retries"`
		BackoffFactor  float64       `yaml:"backoff_factor"`
		QuoteTTL       int           `yaml:"quote_ttl_seconds"`
		MetricsTTL     int           `yaml:"metrics_ttl_seconds"`
		MaxConcurrency int           `yaml:"max_concurrency"`
		PerMinuteLimit int           `yaml:"per_minute_limit"`
	} `yaml:"finnhub"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Watchlist []string `yaml:"watchlist"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("FINNHUB_BASE_URL"); v != "" {
		c.Finnhub.BaseURL = v
	}
	if v := os.Getenv("FINNHUB_TIMEOUT_SECONDS"); v != "" {
		c.Finnhub.Timeout = time.Duration(util.ParseIntDefault(v, 10)) * time.Second
	}
	if v := os.Getenv("FINNHUB_MAX_RETRIES"); v != "" {
		c.Finnhub.MaxRetries = util.ParseIntDefault(v, c.Finnhub.MaxRetries)
	}
	if v := os.Getenv("FINNHUB_QUOTE_TTL_SECONDS"); v != "" {
		c.Finnhub.QuoteTTL = util.ParseIntDefault(v, c.Finnhub.QuoteTTL)
	}
	if v := os.Getenv("FINNHUB_METRICS_TTL_SECONDS"); v != "" {
		c.Finnhub.MetricsTTL = util.ParseIntDefault(v, c.Finnhub.MetricsTTL)
	}
	if v := os.Getenv("FINNHUB_MAX_CONCURRENCY"); v != "" {
		c.Finnhub.MaxConcurrency = util.ParseIntDefault(v, c.Finnhub.MaxConcurrency)
	}
	if v := os.Getenv("FINNHUB_PER_MINUTE_LIMIT"); v != "" {
		c.Finnhub.PerMinuteLimit = util.ParseIntDefault(v, c.Finnhub.PerMinuteLimit)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Watchlist = strings.Split(v, ",")
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Finnhub.BaseURL == "" {
		c.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	}
	if c.Finnhub.Timeout == 0 {
		c.Finnhub.Timeout = 10 * time.Second
	}
	if c.Finnhub.MaxRetries == 0 {
		c.Finnhub.MaxRetries = 3
	}
	if c.Finnhub.BackoffFactor == 0 {
		c.Finnhub.BackoffFactor = 0.75
	}
	if c.Finnhub.QuoteTTL == 0 {
		c.Finnhub.QuoteTTL = 10
	}
	if c.Finnhub.MetricsTTL == 0 {
		c.Finnhub.MetricsTTL = 21600
	}
	if c.Finnhub.MaxConcurrency == 0 {
		c.Finnhub.MaxConcurrency = 4
	}
	if c.Finnhub.PerMinuteLimit == 0 {
		c.Finnhub.PerMinuteLimit = 60
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Finnhub.BaseURL == "" {
		return fmt.Errorf("finnhub.base_url is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}
