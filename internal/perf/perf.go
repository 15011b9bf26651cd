// Package perf computes summary performance statistics from an equity
// curve: CAGR, annualized Sharpe ratio, and maximum drawdown.
package perf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"quiver/internal/domain"
)

// Summary holds the performance metrics for one completed simulation. It
// is derived once from the full equity curve and immutable afterwards.
// MaxDrawdown is a negative fraction (0 for a curve that never declines
// from its running peak).
type Summary struct {
	CAGR        float64
	Sharpe      float64
	MaxDrawdown float64
}

// Evaluate derives a Summary from the equity curve. periodsPerYear maps
// the bar granularity to a year (252 for daily bars, 252*bars-per-day for
// intraday) and must be supplied explicitly; it is never inferred from
// the timestamps.
func Evaluate(equity []domain.EquityPoint, periodsPerYear float64) (Summary, error) {
	if len(equity) < 2 {
		return Summary{}, fmt.Errorf("%w: need at least 2 equity points, got %d", domain.ErrInsufficientData, len(equity))
	}
	if periodsPerYear <= 0 {
		return Summary{}, fmt.Errorf("%w: periods_per_year %v must be positive", domain.ErrInvalidConfig, periodsPerYear)
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, equity[i].Equity/prev-1)
	}

	return Summary{
		CAGR:        cagr(equity[0].Equity, equity[len(equity)-1].Equity, float64(len(equity)-1), periodsPerYear),
		Sharpe:      sharpe(returns, periodsPerYear),
		MaxDrawdown: maxDrawdown(equity),
	}, nil
}

// cagr annualizes the geometric return over nPeriods bars.
func cagr(start, end, nPeriods, periodsPerYear float64) float64 {
	if start <= 0 || nPeriods <= 0 {
		return 0
	}
	return math.Pow(end/start, periodsPerYear/nPeriods) - 1
}

// sharpe is the annualized mean/stddev of per-period returns. A
// zero-variance return series reports 0, not infinity.
func sharpe(returns []float64, periodsPerYear float64) float64 {
	mean, sd := stat.MeanStdDev(returns, nil)
	if !(sd > 0) {
		return 0
	}
	return mean / sd * math.Sqrt(periodsPerYear)
}

// maxDrawdown is the largest peak-to-trough decline, expressed as a
// negative fraction of the running peak.
func maxDrawdown(equity []domain.EquityPoint) float64 {
	peak := equity[0].Equity
	worst := 0.0
	for _, e := range equity {
		if e.Equity > peak {
			peak = e.Equity
		}
		if peak > 0 {
			dd := (e.Equity - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}
