// quiver-sweep backtests a grid of strategy variants over the same cached
// price history, prints a comparison table, and plots the best run
// against the benchmark.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"quiver/internal/backtest"
	"quiver/internal/config"
	"quiver/internal/fetch"
	"quiver/internal/plot"
	"quiver/internal/store"
	"quiver/internal/sweep"
	"quiver/internal/util"
)

func main() {
	cfgPath := "config/quiver.yaml"
	if p := os.Getenv("QUIVER_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	start, end, err := dateRange(cfg.Data)
	if err != nil {
		return err
	}

	pstore := store.NewParquetStore(cfg.Data.DataDir)
	fetcher := fetch.NewCachedFetcher(pstore,
		fetch.NewAlpacaFetcher(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL))

	prices, err := fetcher.DailyPrices(ctx, cfg.Data.Ticker, start, end)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", cfg.Data.Ticker, err)
	}
	benchmark, err := fetcher.DailyPrices(ctx, cfg.Data.Benchmark, start, end)
	if err != nil {
		return fmt.Errorf("fetching benchmark %s: %w", cfg.Data.Benchmark, err)
	}

	btCfg := backtest.Config{
		InitialCash:        cfg.Backtest.InitialCash,
		AllowShort:         cfg.Backtest.AllowShort,
		TransactionCostBps: cfg.Backtest.TransactionCostBps,
	}

	variants := buildVariants(cfg.Strategy)
	slog.Info("starting sweep", "ticker", cfg.Data.Ticker, "variants", len(variants), "bars", len(prices))

	results, err := sweep.Run(ctx, prices, variants, btCfg, cfg.Backtest.PeriodsPerYear)
	if err != nil {
		return err
	}

	printTable(results)

	if best := sweep.Best(results); best >= 0 && cfg.Plot.OutputPath != "" {
		r := results[best]
		title := fmt.Sprintf("%s %s (best of %d variants) vs buy & hold",
			cfg.Data.Ticker, r.Name, len(results))
		bench := plot.NormalizeTo(benchmark, cfg.Backtest.InitialCash)
		if err := plot.Render(cfg.Plot.OutputPath, r.Equity, bench, r.Summary, title); err != nil {
			return fmt.Errorf("rendering plot: %w", err)
		}
		slog.Info("best run plotted", "variant", describe(r.Strategy), "path", cfg.Plot.OutputPath)
	}
	return nil
}

// buildVariants expands the configured strategy into a small grid around
// its parameters, plus the other variant at its defaults.
func buildVariants(s config.Strategy) []config.Strategy {
	var variants []config.Strategy

	for _, pair := range [][2]int{{s.FastWindow, s.SlowWindow}, {s.FastWindow / 2, s.SlowWindow}, {s.FastWindow, s.SlowWindow * 2}} {
		if pair[0] > 0 && pair[0] < pair[1] {
			v := s
			v.Variant = config.VariantMovingAverage
			v.FastWindow, v.SlowWindow = pair[0], pair[1]
			variants = append(variants, v)
		}
	}

	for _, entry := range []float64{s.EntryThreshold, s.EntryThreshold * 1.5, s.EntryThreshold * 2} {
		v := s
		v.Variant = config.VariantMeanReversion
		v.EntryThreshold = entry
		variants = append(variants, v)
	}

	return variants
}

func printTable(results []sweep.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tPARAMS\tTXNS\tFINAL EQUITY\tCAGR\tSHARPE\tMAX DD")
	for _, r := range results {
		final := 0.0
		if len(r.Equity) > 0 {
			final = r.Equity[len(r.Equity)-1].Equity
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f%%\t%.2f\t%.2f%%\n",
			r.Name, describe(r.Strategy), len(r.Transactions), final,
			r.Summary.CAGR*100, r.Summary.Sharpe, r.Summary.MaxDrawdown*100)
	}
	w.Flush()
}

func describe(s config.Strategy) string {
	if s.Variant == config.VariantMovingAverage {
		return fmt.Sprintf("fast=%d slow=%d", s.FastWindow, s.SlowWindow)
	}
	return fmt.Sprintf("window=%d entry=%.2f exit=%.2f", s.Window, s.EntryThreshold, s.ExitThreshold)
}

func dateRange(d config.Data) (time.Time, time.Time, error) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	if d.End != "" {
		var err error
		end, err = time.Parse("2006-01-02", d.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing data.end %q: %w", d.End, err)
		}
	}

	start := end.AddDate(-1, 0, 0)
	if d.Start != "" {
		var err error
		start, err = time.Parse("2006-01-02", d.Start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing data.start %q: %w", d.Start, err)
		}
	}
	return start, end, nil
}
