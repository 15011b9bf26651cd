package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"quiver/internal/domain"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Strategy variant names. The variant set is closed: exactly these two
// generators exist.
const (
	VariantMovingAverage = "moving_average"
	VariantMeanReversion = "mean_reversion"
)

// Config is the top-level configuration for a quiver run.
type Config struct {
	Data     Data     `yaml:"data"`
	Alpaca   Alpaca   `yaml:"alpaca"`
	Strategy Strategy `yaml:"strategy"`
	Backtest Backtest `yaml:"backtest"`
	Plot     Plot     `yaml:"plot"`
	Logging  Logging  `yaml:"logging"`
}

// Data selects the asset, benchmark, and date range, and holds paths for
// data persistence.
type Data struct {
	Ticker      string `yaml:"ticker"`
	Benchmark   string `yaml:"benchmark"`
	Start       string `yaml:"start"` // YYYY-MM-DD
	End         string `yaml:"end"`   // YYYY-MM-DD
	DataDir     string `yaml:"data_dir"`
	JournalPath string `yaml:"journal_path"`
	CSVLogPath  string `yaml:"csv_log_path"`
}

// Alpaca holds credentials and endpoint for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Strategy selects the signal generator variant and its parameters.
// FastWindow/SlowWindow apply to moving_average; Window and the thresholds
// apply to mean_reversion.
type Strategy struct {
	Variant        string  `yaml:"variant"`
	FastWindow     int     `yaml:"fast_window"`
	SlowWindow     int     `yaml:"slow_window"`
	Window         int     `yaml:"zscore_window"`
	EntryThreshold float64 `yaml:"entry_threshold"`
	ExitThreshold  float64 `yaml:"exit_threshold"`
	ShortOnDown    bool    `yaml:"short_on_down"`
}

// Backtest defines the portfolio simulation parameters.
type Backtest struct {
	InitialCash        float64 `yaml:"initial_cash"`
	AllowShort         bool    `yaml:"allow_short"`
	TransactionCostBps float64 `yaml:"transaction_cost_bps"`
	PeriodsPerYear     float64 `yaml:"periods_per_year"`
}

// Plot configures the comparison chart output.
type Plot struct {
	OutputPath string `yaml:"output_path"`
	Title      string `yaml:"title"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into
// a Config struct, and then applies environment variable overrides. The
// result is not validated; call Validate before running a simulation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Default returns a Config populated with the defaults a minimal YAML file
// leaves unset.
func Default() *Config {
	return &Config{
		Data: Data{
			Benchmark:   "SPY",
			DataDir:     "data",
			JournalPath: "quiver.db",
			CSVLogPath:  "transactions.csv",
		},
		Strategy: Strategy{
			Variant:        VariantMovingAverage,
			FastWindow:     12,
			SlowWindow:     24,
			Window:         50,
			EntryThreshold: 1.0,
			ExitThreshold:  0.25,
		},
		Backtest: Backtest{
			InitialCash:    10000,
			PeriodsPerYear: 252,
		},
		Plot: Plot{
			OutputPath: "portfolio_vs_benchmark.png",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.DataDir = v
	}
	if v := os.Getenv("QUIVER_TICKER"); v != "" {
		cfg.Data.Ticker = v
	}
	if v := os.Getenv("QUIVER_INITIAL_CASH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backtest.InitialCash = f
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the configuration surface consumed by the core and
// returns domain.ErrInvalidConfig for anything out of range. It runs
// before any data is fetched or simulated.
func (c *Config) Validate() error {
	if c.Data.Ticker == "" {
		return fmt.Errorf("%w: data.ticker is required", domain.ErrInvalidConfig)
	}
	if c.Backtest.InitialCash < 0 {
		return fmt.Errorf("%w: initial_cash %v is negative", domain.ErrInvalidConfig, c.Backtest.InitialCash)
	}
	if c.Backtest.TransactionCostBps < 0 {
		return fmt.Errorf("%w: transaction_cost_bps %v is negative", domain.ErrInvalidConfig, c.Backtest.TransactionCostBps)
	}
	if c.Backtest.PeriodsPerYear <= 0 {
		return fmt.Errorf("%w: periods_per_year %v must be positive", domain.ErrInvalidConfig, c.Backtest.PeriodsPerYear)
	}
	return c.Strategy.Validate()
}

// Validate checks the strategy parameters for the selected variant.
func (s *Strategy) Validate() error {
	switch s.Variant {
	case VariantMovingAverage:
		if s.FastWindow <= 0 || s.SlowWindow <= 0 {
			return fmt.Errorf("%w: windows must be positive (fast=%d slow=%d)", domain.ErrInvalidConfig, s.FastWindow, s.SlowWindow)
		}
		if s.FastWindow >= s.SlowWindow {
			return fmt.Errorf("%w: fast_window %d must be smaller than slow_window %d", domain.ErrInvalidConfig, s.FastWindow, s.SlowWindow)
		}
	case VariantMeanReversion:
		if s.Window <= 0 {
			return fmt.Errorf("%w: zscore_window must be positive, got %d", domain.ErrInvalidConfig, s.Window)
		}
		if s.EntryThreshold <= 0 {
			return fmt.Errorf("%w: entry_threshold must be positive, got %v", domain.ErrInvalidConfig, s.EntryThreshold)
		}
		if s.ExitThreshold < 0 || s.ExitThreshold > s.EntryThreshold {
			return fmt.Errorf("%w: exit_threshold %v must be in [0, entry_threshold]", domain.ErrInvalidConfig, s.ExitThreshold)
		}
	default:
		return fmt.Errorf("%w: unknown strategy variant %q", domain.ErrInvalidConfig, s.Variant)
	}
	return nil
}
