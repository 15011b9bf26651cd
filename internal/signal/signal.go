// Package signal turns a price series into a discrete trade-signal series.
// Exactly two generators exist: a moving-average crossover and a z-score
// mean reversion. Both produce one SignalPoint per input bar, aligned by
// timestamp, with Flat for every bar whose lookback window is not yet
// fully populated.
package signal

import (
	"fmt"

	"quiver/internal/config"
	"quiver/internal/domain"
)

// Generator maps a price series to a signal series of the same length and
// timestamp alignment.
type Generator interface {
	// Name returns the unique identifier for this generator.
	Name() string

	// Generate produces one signal per input bar. An empty price series is
	// an error; a lookback window longer than the series is not, and
	// yields an all-Flat signal series.
	Generate(prices []domain.PricePoint) ([]domain.SignalPoint, error)
}

// New returns the generator selected by the strategy configuration. The
// variant set is closed; an unknown variant is a configuration error.
func New(cfg config.Strategy) (Generator, error) {
	switch cfg.Variant {
	case config.VariantMovingAverage:
		return NewMACross(cfg.FastWindow, cfg.SlowWindow, cfg.ShortOnDown), nil
	case config.VariantMeanReversion:
		return NewMeanReversion(cfg.Window, cfg.EntryThreshold, cfg.ExitThreshold), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy variant %q", domain.ErrInvalidConfig, cfg.Variant)
	}
}
