// Package sweep runs several strategy variants over the same price series
// concurrently. Each run owns an independent portfolio state and output
// buffers, so runs never share mutable state.
package sweep

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"quiver/internal/backtest"
	"quiver/internal/config"
	"quiver/internal/domain"
	"quiver/internal/perf"
	"quiver/internal/signal"
)

// Result is the outcome of one variant's backtest.
type Result struct {
	Strategy     config.Strategy
	Name         string
	Equity       []domain.EquityPoint
	Transactions []domain.Transaction
	Summary      perf.Summary
}

// Run backtests every variant against the shared, read-only price series
// and returns one Result per variant in input order. The first failing
// variant aborts the sweep.
func Run(ctx context.Context, prices []domain.PricePoint, variants []config.Strategy, btCfg backtest.Config, periodsPerYear float64) ([]Result, error) {
	results := make([]Result, len(variants))

	g, ctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			gen, err := signal.New(v)
			if err != nil {
				return fmt.Errorf("variant %d: %w", i, err)
			}

			signals, err := gen.Generate(prices)
			if err != nil {
				return fmt.Errorf("variant %d (%s): %w", i, gen.Name(), err)
			}

			equity, txns, err := backtest.Simulate(prices, signals, btCfg)
			if err != nil {
				return fmt.Errorf("variant %d (%s): %w", i, gen.Name(), err)
			}

			summary, err := perf.Evaluate(equity, periodsPerYear)
			if err != nil {
				return fmt.Errorf("variant %d (%s): %w", i, gen.Name(), err)
			}

			results[i] = Result{
				Strategy:     v,
				Name:         gen.Name(),
				Equity:       equity,
				Transactions: txns,
				Summary:      summary,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Best returns the index of the result with the highest CAGR. It returns
// -1 for an empty slice.
func Best(results []Result) int {
	best := -1
	for i, r := range results {
		if best < 0 || r.Summary.CAGR > results[best].Summary.CAGR {
			best = i
		}
	}
	return best
}
