// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Pacing  PacingConfig  `mapstructure:"pacing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig governs worker pool and concurrency behavior. Concurrency
// bounds simultaneous fetches (and pooled connections); Workers sets the
// pool size and may exceed Concurrency, in which case surplus workers spend
// their time blocked on permit acquisition.
type CrawlerConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	Workers     int    `mapstructure:"workers"`
	UserAgent   string `mapstructure:"user_agent"`
}

// HTTPConfig configures the HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// PacingConfig selects and tunes the outbound pacing strategy.
type PacingConfig struct {
	Strategy string  `mapstructure:"strategy"`
	DelayMs  int     `mapstructure:"delay_ms"`
	RPS      float64 `mapstructure:"rps"`
	Burst    int     `mapstructure:"burst"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Pacing strategy names accepted in pacing.strategy.
const (
	PacingFixed       = "fixed"
	PacingTokenBucket = "token_bucket"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LOGOSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Workers defaults to the permit count; the two stay independent knobs.
	if cfg.Crawler.Workers == 0 {
		cfg.Crawler.Workers = cfg.Crawler.Concurrency
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.concurrency", 10)
	v.SetDefault("crawler.workers", 0)
	v.SetDefault("crawler.user_agent", "logoscout/0.1")
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("pacing.strategy", PacingFixed)
	v.SetDefault("pacing.delay_ms", 500)
	v.SetDefault("pacing.rps", 2.0)
	v.SetDefault("pacing.burst", 1)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("crawler.workers must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	switch c.Pacing.Strategy {
	case PacingFixed, PacingTokenBucket:
	default:
		return fmt.Errorf("pacing.strategy must be %q or %q", PacingFixed, PacingTokenBucket)
	}
	if c.Pacing.DelayMs < 0 {
		return fmt.Errorf("pacing.delay_ms must be >= 0")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// Timeout converts the HTTP timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// PacingDelay converts the fixed pacing delay into a duration.
func (c Config) PacingDelay() time.Duration {
	return time.Duration(c.Pacing.DelayMs) * time.Millisecond
}
