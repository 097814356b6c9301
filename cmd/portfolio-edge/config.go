package main

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Sternrassler/portfolio-edge/pkg/client"
	"github.com/Sternrassler/portfolio-edge/pkg/logging"
	"github.com/Sternrassler/portfolio-edge/pkg/strategy"
	"github.com/Sternrassler/portfolio-edge/pkg/worker"
)

// Config is the edge configuration, read from the environment.
type Config struct {
	Port      string `env:"PORT"       envDefault:"8080"`
	OriginURL string `env:"ORIGIN_URL" envDefault:"http://localhost:3000"`

	// RedisAddr selects Redis storage; empty keeps stores in memory
	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	CachePrefix  string `env:"CACHE_PREFIX"  envDefault:"portfolio"`
	CacheVersion string `env:"CACHE_VERSION" envDefault:"v1"`

	// PrecacheManifest overrides the default install manifest
	PrecacheManifest    []string `env:"PRECACHE_MANIFEST"    envSeparator:","`
	PrecacheConcurrency int      `env:"PRECACHE_CONCURRENCY" envDefault:"4"`

	AllowedHosts []string `env:"ALLOWED_HOSTS" envSeparator:","`

	// StrategyOverrides maps path prefixes to strategies ahead of the
	// default table, e.g. "/blog/=network-first,/downloads/=cache_first"
	StrategyOverrides map[string]string `env:"STRATEGY_OVERRIDES" envSeparator:"," envKeyValSeparator:"="`

	UserAgent         string        `env:"USER_AGENT"          envDefault:"portfolio-edge/0.1.0"`
	OriginTimeout     time.Duration `env:"ORIGIN_TIMEOUT"      envDefault:"0s"`
	OriginMaxAttempts int           `env:"ORIGIN_MAX_ATTEMPTS" envDefault:"1"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	SkipWaiting bool `env:"SKIP_WAITING" envDefault:"true"`

	table strategy.Table
}

// LoadConfig parses the process environment.
func LoadConfig() (Config, error) {
	return parseConfig(env.Options{})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	table, err := cfg.strategyTable()
	if err != nil {
		return cfg, err
	}
	cfg.table = table
	return cfg, nil
}

// Validate checks the configuration for values the edge cannot run with.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	u, err := url.Parse(c.OriginURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ORIGIN_URL must be an absolute http(s) URL (got %q)", c.OriginURL)
	}
	if c.CachePrefix == "" || c.CacheVersion == "" {
		return fmt.Errorf("CACHE_PREFIX and CACHE_VERSION cannot be empty")
	}
	if c.PrecacheConcurrency < 1 {
		return fmt.Errorf("PRECACHE_CONCURRENCY must be >= 1 (got %d)", c.PrecacheConcurrency)
	}
	if c.OriginMaxAttempts < 1 {
		return fmt.Errorf("ORIGIN_MAX_ATTEMPTS must be >= 1 (got %d)", c.OriginMaxAttempts)
	}
	if c.OriginTimeout < 0 {
		return fmt.Errorf("ORIGIN_TIMEOUT must be >= 0 (got %s)", c.OriginTimeout)
	}
	if _, err := c.strategyTable(); err != nil {
		return err
	}
	return nil
}

// strategyTable puts one rule per override in front of the default table.
// Longer prefixes come first so the most specific override wins.
func (c Config) strategyTable() (strategy.Table, error) {
	prefixes := make([]string, 0, len(c.StrategyOverrides))
	for prefix := range c.StrategyOverrides {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})

	table := make(strategy.Table, 0, len(prefixes)+3)
	for _, prefix := range prefixes {
		if !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("STRATEGY_OVERRIDES: prefix %q must start with /", prefix)
		}
		s, err := strategy.Parse(c.StrategyOverrides[prefix])
		if err != nil {
			return nil, fmt.Errorf("STRATEGY_OVERRIDES %s: %w", prefix, err)
		}
		table = append(table, strategy.Rule{Match: strategy.PathPrefix{prefix}, Strategy: s})
	}
	return append(table, strategy.DefaultTable()...), nil
}

func (c Config) loggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}

func (c Config) clientConfig() client.Config {
	cfg := client.DefaultConfig(c.OriginURL, c.UserAgent)
	cfg.Timeout = c.OriginTimeout
	cfg.Retry.MaxAttempts = c.OriginMaxAttempts
	return cfg
}

func (c Config) workerConfig() worker.Config {
	cfg := worker.DefaultConfig()
	cfg.Version = c.CacheVersion
	cfg.Prefix = c.CachePrefix
	cfg.Table = c.table
	if cfg.Table == nil {
		cfg.Table = strategy.DefaultTable()
	}
	cfg.AllowedHosts = c.AllowedHosts
	cfg.SkipWaiting = c.SkipWaiting
	cfg.PrecacheConcurrency = c.PrecacheConcurrency
	if len(c.PrecacheManifest) > 0 {
		cfg.Manifest = c.PrecacheManifest
	}
	return cfg
}
