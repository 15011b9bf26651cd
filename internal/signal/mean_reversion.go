package signal

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"quiver/internal/domain"
)

// Compile-time interface check.
var _ Generator = (*MeanReversion)(nil)

// MeanReversion implements a z-score mean reversion rule over a rolling
// window: a price far below the rolling mean signals Long, far above
// signals Short, and a z-score inside the exit band closes the position.
// Whether Short signals open real short positions is the simulator's
// policy, not the generator's.
type MeanReversion struct {
	window int
	entry  float64
	exit   float64
}

// NewMeanReversion creates a MeanReversion generator with the given
// rolling window and entry/exit z-score thresholds.
func NewMeanReversion(window int, entry, exit float64) *MeanReversion {
	return &MeanReversion{
		window: window,
		entry:  entry,
		exit:   exit,
	}
}

// Name returns "mean_reversion".
func (g *MeanReversion) Name() string { return "mean_reversion" }

// Generate produces one signal per bar. Bars before the window is fully
// populated are Flat, and a zero rolling standard deviation yields Flat
// rather than a fault.
func (g *MeanReversion) Generate(prices []domain.PricePoint) ([]domain.SignalPoint, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: empty price series", domain.ErrInsufficientData)
	}

	signals := make([]domain.SignalPoint, len(prices))
	window := make([]float64, g.window)
	prev := domain.Flat

	for i, p := range prices {
		sig := domain.Flat
		if i >= g.window-1 {
			for j := 0; j < g.window; j++ {
				window[j] = prices[i-g.window+1+j].Price
			}
			mean, sd := stat.MeanStdDev(window, nil)

			switch {
			case !(sd > 0):
				// Constant window (or single-element window): no z-score.
				sig = domain.Flat
			default:
				z := (p.Price - mean) / sd
				switch {
				case z <= -g.entry:
					sig = domain.Long
				case z >= g.entry:
					sig = domain.Short
				case z >= -g.exit && z <= g.exit:
					sig = domain.Flat
				default:
					sig = prev
				}
			}
		}

		signals[i] = domain.SignalPoint{Timestamp: p.Timestamp, Signal: sig}
		prev = sig
	}

	return signals, nil
}
