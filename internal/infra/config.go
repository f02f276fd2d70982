package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"backtest_go/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Feed kinds understood by the bootstrap.
const (
	FeedCSV    = "csv"
	FeedSQLite = "sqlite"
	FeedWS     = "ws"
)

// Strategy types understood by the bootstrap.
const (
	StrategyMomentum      = "momentum"
	StrategyMeanReversion = "mean_reversion"
	StrategySMACross      = "sma_cross"
)

// StrategyConfig describes one strategy instance. Unused fields are ignored per type.
type StrategyConfig struct {
	Type      string   `yaml:"type"`
	Symbol    string   `yaml:"symbol"`
	Qty       int64    `yaml:"qty"`
	Lookback  int      `yaml:"lookback"`
	Threshold float64  `yaml:"threshold"`
	Window    int      `yaml:"window"`
	ZEntry    *float64 `yaml:"z_entry"`
	Short     int      `yaml:"short"`
	Long      int      `yaml:"long"`
}

// Config holds every setting of a backtest run.
// Values from the YAML file are layered over DefaultConfig, then environment
// variables override both.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Backtest struct {
		StartingCash decimal.Decimal `yaml:"starting_cash"`
		SuccessRate  float64         `yaml:"success_rate"`
		Seed         *int64          `yaml:"seed"` // nil: seeded from the clock
		DumpFile     string          `yaml:"dump_file"`
	} `yaml:"backtest"`

	Feed struct {
		Kind     string   `yaml:"kind"`
		Path     string   `yaml:"path"`
		DBPath   string   `yaml:"db_path"`
		WSURL    string   `yaml:"ws_url"`
		MaxTicks int      `yaml:"max_ticks"`
		Symbols  []string `yaml:"symbols"`
	} `yaml:"feed"`

	Strategies []StrategyConfig `yaml:"strategies"`

	Report struct {
		OutputDir      string  `yaml:"output_dir"`
		PeriodsPerYear float64 `yaml:"periods_per_year"`
		RiskFree       float64 `yaml:"risk_free"`
		SparklineWidth int     `yaml:"sparkline_width"`
		ChartWidth     int     `yaml:"chart_width"`
		ChartHeight    int     `yaml:"chart_height"`
	} `yaml:"report"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// DefaultConfig returns a runnable configuration: a CSV feed at data/market_data.csv
// traded by one momentum strategy.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "backtest"
	cfg.App.Version = "dev"

	cfg.Backtest.StartingCash = decimal.NewFromInt(100000)
	cfg.Backtest.SuccessRate = 0.9
	cfg.Backtest.DumpFile = "panic_dump.json"

	cfg.Feed.Kind = FeedCSV
	cfg.Feed.Path = "data/market_data.csv"
	cfg.Feed.DBPath = "data/ticks.db"

	cfg.Strategies = []StrategyConfig{
		{Type: StrategyMomentum, Symbol: "AAPL", Lookback: 3, Qty: 1},
	}

	cfg.Report.OutputDir = "."
	cfg.Report.PeriodsPerYear = 252 * 78
	cfg.Report.SparklineWidth = 60
	cfg.Report.ChartWidth = 800
	cfg.Report.ChartHeight = 400

	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	cfg.Logging.File = "backtest.log"
	return &cfg
}

// LoadConfig reads the YAML file at path over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Environment wins over the file
	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !c.Backtest.StartingCash.IsPositive() {
		return &domain.ConfigError{Field: "backtest.starting_cash", Err: errors.New("must be positive")}
	}
	if rate := c.Backtest.SuccessRate; !(rate >= 0 && rate <= 1) {
		return &domain.ConfigError{Field: "backtest.success_rate", Err: fmt.Errorf("%v not in [0, 1]", c.Backtest.SuccessRate)}
	}

	switch c.Feed.Kind {
	case FeedCSV:
		if c.Feed.Path == "" {
			return &domain.ConfigError{Field: "feed.path", Err: errors.New("required for csv feed")}
		}
	case FeedSQLite:
		if c.Feed.DBPath == "" {
			return &domain.ConfigError{Field: "feed.db_path", Err: errors.New("required for sqlite feed")}
		}
	case FeedWS:
		if !strings.HasPrefix(c.Feed.WSURL, "ws://") && !strings.HasPrefix(c.Feed.WSURL, "wss://") {
			return &domain.ConfigError{Field: "feed.ws_url", Err: fmt.Errorf("invalid websocket url %q", c.Feed.WSURL)}
		}
		if c.Feed.MaxTicks <= 0 {
			return &domain.ConfigError{Field: "feed.max_ticks", Err: errors.New("must be positive for ws feed")}
		}
	default:
		return &domain.ConfigError{Field: "feed.kind", Err: fmt.Errorf("unknown feed kind %q", c.Feed.Kind)}
	}

	if len(c.Strategies) == 0 {
		return &domain.ConfigError{Field: "strategies", Err: errors.New("at least one strategy is required")}
	}
	for i, s := range c.Strategies {
		field := fmt.Sprintf("strategies[%d]", i)
		switch s.Type {
		case StrategyMomentum, StrategyMeanReversion, StrategySMACross:
		default:
			return &domain.ConfigError{Field: field + ".type", Err: fmt.Errorf("unknown strategy %q", s.Type)}
		}
		if s.Symbol == "" {
			return &domain.ConfigError{Field: field + ".symbol", Err: domain.ErrEmptySymbol}
		}
	}

	if c.Report.PeriodsPerYear <= 0 {
		return &domain.ConfigError{Field: "report.periods_per_year", Err: errors.New("must be positive")}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &domain.ConfigError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}

	return nil
}

// overrideWithEnv applies BACKTEST_* environment variables when set.
func overrideWithEnv(cfg *Config) error {
	if v := os.Getenv("BACKTEST_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return &domain.ConfigError{Field: "BACKTEST_SEED", Err: err}
		}
		cfg.Backtest.Seed = &seed
	}
	if v := os.Getenv("BACKTEST_SUCCESS_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &domain.ConfigError{Field: "BACKTEST_SUCCESS_RATE", Err: err}
		}
		cfg.Backtest.SuccessRate = rate
	}
	if v := os.Getenv("BACKTEST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("BACKTEST_FEED_PATH"); v != "" {
		cfg.Feed.Path = v
	}
	return nil
}

// ApplyEnv applies environment overrides to a config that was not read from a file.
func (c *Config) ApplyEnv() error {
	return overrideWithEnv(c)
}
