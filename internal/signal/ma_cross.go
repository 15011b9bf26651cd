package signal

import (
	"fmt"

	"quiver/internal/domain"
)

// Compile-time interface check.
var _ Generator = (*MACross)(nil)

// MACross implements a simple moving average crossover. It signals Long
// while the fast SMA is above the slow SMA and Short (or Flat, when
// shorting on the down-cross is disabled) while it is below. When the two
// averages are exactly equal the previous signal is carried forward.
type MACross struct {
	fastWindow  int
	slowWindow  int
	shortOnDown bool
}

// NewMACross creates a MACross with the given fast and slow SMA windows.
// When shortOnDown is false a down-cross signals Flat instead of Short.
func NewMACross(fast, slow int, shortOnDown bool) *MACross {
	return &MACross{
		fastWindow:  fast,
		slowWindow:  slow,
		shortOnDown: shortOnDown,
	}
}

// Name returns "moving_average".
func (g *MACross) Name() string { return "moving_average" }

// Generate produces one signal per bar. Bars before both windows are fully
// populated are Flat.
func (g *MACross) Generate(prices []domain.PricePoint) ([]domain.SignalPoint, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: empty price series", domain.ErrInsufficientData)
	}

	signals := make([]domain.SignalPoint, len(prices))

	// Rolling sums keep the pass O(n) regardless of window size.
	var fastSum, slowSum float64
	prev := domain.Flat

	for i, p := range prices {
		fastSum += p.Price
		if i >= g.fastWindow {
			fastSum -= prices[i-g.fastWindow].Price
		}
		slowSum += p.Price
		if i >= g.slowWindow {
			slowSum -= prices[i-g.slowWindow].Price
		}

		sig := domain.Flat
		if i >= g.slowWindow-1 && i >= g.fastWindow-1 {
			fast := fastSum / float64(g.fastWindow)
			slow := slowSum / float64(g.slowWindow)

			switch {
			case fast > slow:
				sig = domain.Long
			case fast < slow:
				if g.shortOnDown {
					sig = domain.Short
				} else {
					sig = domain.Flat
				}
			default:
				sig = prev
			}
		}

		signals[i] = domain.SignalPoint{Timestamp: p.Timestamp, Signal: sig}
		prev = sig
	}

	return signals, nil
}
