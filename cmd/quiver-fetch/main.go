// quiver-fetch downloads and caches the price history for the configured
// ticker and benchmark without running a backtest.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiver/internal/config"
	"quiver/internal/fetch"
	"quiver/internal/store"
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
	if cfg.Data.Ticker == "" {
		log.Fatal("data.ticker is required")
	}

	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start, end, err := dateRange(cfg.Data)
	if err != nil {
		log.Fatalf("invalid date range: %v", err)
	}

	pstore := store.NewParquetStore(cfg.Data.DataDir)
	fetcher := fetch.NewCachedFetcher(pstore,
		fetch.NewAlpacaFetcher(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL))

	for _, symbol := range []string{cfg.Data.Ticker, cfg.Data.Benchmark} {
		if symbol == "" {
			continue
		}
		prices, err := fetcher.DailyPrices(ctx, symbol, start, end)
		if err != nil {
			log.Fatalf("fetching %s: %v", symbol, err)
		}
		slog.Info("cached", "symbol", symbol, "bars", len(prices),
			"first", prices[0].Timestamp.Format("2006-01-02"),
			"last", prices[len(prices)-1].Timestamp.Format("2006-01-02"))
	}
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
