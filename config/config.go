package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/papertrader/api"
	"github.com/rustyeddy/papertrader/bot"
	"github.com/rustyeddy/papertrader/internal/guard"
	"github.com/rustyeddy/papertrader/market"
)

// EnvPrefix prefixes every environment override, e.g. TRADER_PORT.
const EnvPrefix = "TRADER"

// Config represents the complete bot configuration
type Config struct {
	Account   AccountConfig      `json:"account" yaml:"account"`
	Symbols   map[string]float64 `json:"symbols" yaml:"symbols"`
	Market    MarketConfig       `json:"market" yaml:"market"`
	Bot       bot.Settings       `json:"bot" yaml:"bot"`
	Autostart bool               `json:"autostart" yaml:"autostart"`
	Guard     guard.Settings     `json:"guard" yaml:"guard"`
	Sentiment SentimentConfig    `json:"sentiment" yaml:"sentiment"`
	Journal   JournalConfig      `json:"journal" yaml:"journal"`
	Server    api.Config         `json:"server" yaml:"server"`
	Log       LogConfig          `json:"log" yaml:"log"`
}

type AccountConfig struct {
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// MarketConfig drives the random-walk price simulator.
type MarketConfig struct {
	Seed   int64   `json:"seed" yaml:"seed"`
	Step   float64 `json:"step" yaml:"step"`
	Warmup int     `json:"warmup" yaml:"warmup"`
}

// SentimentConfig selects the sentiment source. An empty RedisAddr
// disables the cache.
type SentimentConfig struct {
	Provider  string        `json:"provider" yaml:"provider"` // "random" or "none"
	Seed      int64         `json:"seed" yaml:"seed"`
	RedisAddr string        `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisDB   int           `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	CacheTTL  time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type string `json:"type" yaml:"type"` // "none", "csv", "sqlite" or "postgres"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	DSN  string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "console" or "json"
}

// Env holds the environment overrides. Unset variables leave the file
// values alone.
type Env struct {
	Port        *int           `envconfig:"PORT"`
	Host        *string        `envconfig:"BIND_HOST"`
	Balance     *float64       `envconfig:"BALANCE"`
	Interval    *time.Duration `envconfig:"INTERVAL"`
	Autostart   *bool          `envconfig:"AUTOSTART"`
	Seed        *int64         `envconfig:"SEED"`
	LogLevel    *string        `envconfig:"LOG_LEVEL"`
	LogFormat   *string        `envconfig:"LOG_FORMAT"`
	JournalType *string        `envconfig:"JOURNAL_TYPE"`
	JournalPath *string        `envconfig:"JOURNAL_PATH"`
	JournalDSN  *string        `envconfig:"JOURNAL_DSN"`
	RedisAddr   *string        `envconfig:"REDIS_ADDR"`
}

// Load reads path (or the defaults when path is empty), loads a .env file
// from the working directory if one exists, applies TRADER_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = Default()
	} else if cfg, err = LoadFromFile(path); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// A file that lists symbols replaces the default universe.
	cfg := Default()
	cfg.Symbols = nil

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		cfg.Symbols = nil
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jerr))
		}
	}
	if cfg.Symbols == nil {
		cfg.Symbols = Default().Symbols
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays TRADER_* variables. PORT without the prefix is
// honoured too.
func (c *Config) ApplyEnv() error {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	if env.Port != nil {
		c.Server.Port = *env.Port
	}
	if env.Host != nil {
		c.Server.Host = *env.Host
	}
	if env.Balance != nil {
		c.Account.Balance = *env.Balance
	}
	if env.Interval != nil {
		c.Bot.Interval = *env.Interval
	}
	if env.Autostart != nil {
		c.Autostart = *env.Autostart
	}
	if env.Seed != nil {
		c.Market.Seed = *env.Seed
		c.Sentiment.Seed = *env.Seed
	}
	if env.LogLevel != nil {
		c.Log.Level = *env.LogLevel
	}
	if env.LogFormat != nil {
		c.Log.Format = *env.LogFormat
	}
	if env.JournalType != nil {
		c.Journal.Type = *env.JournalType
	}
	if env.JournalPath != nil {
		c.Journal.Path = *env.JournalPath
	}
	if env.JournalDSN != nil {
		c.Journal.DSN = *env.JournalDSN
	}
	if env.RedisAddr != nil {
		c.Sentiment.RedisAddr = *env.RedisAddr
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must list at least one symbol")
	}
	for sym, p := range c.Symbols {
		if sym == "" {
			return fmt.Errorf("symbols: empty symbol name")
		}
		if p <= 0 {
			return fmt.Errorf("symbols.%s: initial price must be positive", sym)
		}
	}
	if c.Market.Step <= 0 || c.Market.Step >= 1 {
		return fmt.Errorf("market.step must be between 0 and 1")
	}
	if c.Market.Warmup < 0 {
		return fmt.Errorf("market.warmup must not be negative")
	}
	if c.Bot.Interval <= 0 {
		return fmt.Errorf("bot.interval must be positive")
	}
	if c.Bot.ProviderTimeout <= 0 {
		return fmt.Errorf("bot.provider_timeout must be positive")
	}
	r := c.Bot.Risk
	if r.BalanceFraction <= 0 || r.BalanceFraction > 1 || r.PortfolioFraction <= 0 || r.PortfolioFraction > 1 {
		return fmt.Errorf("bot.risk fractions must be between 0 and 1")
	}
	if c.Guard.MaxFailures == 0 {
		return fmt.Errorf("guard.max_failures must be positive")
	}
	switch c.Sentiment.Provider {
	case "random", "none":
	default:
		return fmt.Errorf("sentiment.provider must be 'random' or 'none'")
	}
	if c.Sentiment.RedisAddr != "" && c.Sentiment.CacheTTL <= 0 {
		return fmt.Errorf("sentiment.cache_ttl must be positive when redis_addr is set")
	}
	switch c.Journal.Type {
	case "none":
	case "csv", "sqlite":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path required for %s type", c.Journal.Type)
		}
	case "postgres":
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal.dsn required for postgres type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv', 'sqlite' or 'postgres'")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	symbols := make(map[string]float64, len(market.DefaultUniverse))
	for s, p := range market.DefaultUniverse {
		symbols[s] = p
	}
	return &Config{
		Account: AccountConfig{
			Currency: "USD",
			Balance:  10000,
		},
		Symbols: symbols,
		Market: MarketConfig{
			Seed:   1,
			Step:   0.02,
			Warmup: 60,
		},
		Bot:   bot.DefaultSettings(),
		Guard: guard.DefaultSettings(),
		Sentiment: SentimentConfig{
			Provider: "random",
			Seed:     1,
			CacheTTL: 15 * time.Minute,
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Server: api.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
