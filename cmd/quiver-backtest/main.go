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

	"quiver/internal/backtest"
	"quiver/internal/config"
	"quiver/internal/domain"
	"quiver/internal/fetch"
	"quiver/internal/perf"
	"quiver/internal/plot"
	qsignal "quiver/internal/signal"
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
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("backtest failed: %v", err)
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

	gen, err := qsignal.New(cfg.Strategy)
	if err != nil {
		return err
	}

	signals, err := gen.Generate(prices)
	if err != nil {
		return fmt.Errorf("generating signals: %w", err)
	}

	btCfg := backtest.Config{
		InitialCash:        cfg.Backtest.InitialCash,
		AllowShort:         cfg.Backtest.AllowShort,
		TransactionCostBps: cfg.Backtest.TransactionCostBps,
	}
	equity, txns, err := backtest.Simulate(prices, signals, btCfg)
	if err != nil {
		return fmt.Errorf("simulating: %w", err)
	}

	summary, err := perf.Evaluate(equity, cfg.Backtest.PeriodsPerYear)
	if err != nil {
		return fmt.Errorf("evaluating: %w", err)
	}

	slog.Info("backtest complete",
		"ticker", cfg.Data.Ticker,
		"strategy", gen.Name(),
		"bars", len(equity),
		"transactions", len(txns),
		"final_equity", fmt.Sprintf("%.2f", equity[len(equity)-1].Equity),
		"cagr", fmt.Sprintf("%.4f", summary.CAGR),
		"sharpe", fmt.Sprintf("%.4f", summary.Sharpe),
		"max_drawdown", fmt.Sprintf("%.4f", summary.MaxDrawdown),
	)

	if err := journalRun(ctx, cfg, gen.Name(), equity, txns, summary); err != nil {
		return err
	}

	if cfg.Data.CSVLogPath != "" {
		if err := store.AppendTransactionsCSV(cfg.Data.CSVLogPath, txns); err != nil {
			return err
		}
	}

	if cfg.Plot.OutputPath != "" {
		title := cfg.Plot.Title
		if title == "" {
			title = fmt.Sprintf("%s %s strategy vs buy & hold", cfg.Data.Ticker, gen.Name())
		}
		bench := plot.NormalizeTo(benchmark, cfg.Backtest.InitialCash)
		if err := plot.Render(cfg.Plot.OutputPath, equity, bench, summary, title); err != nil {
			return fmt.Errorf("rendering plot: %w", err)
		}
		slog.Info("plot saved", "path", cfg.Plot.OutputPath)
	}

	return nil
}

// journalRun records the run and its transaction log in the SQLite journal.
func journalRun(ctx context.Context, cfg *config.Config, strategyName string, equity []domain.EquityPoint, txns []domain.Transaction, summary perf.Summary) error {
	if cfg.Data.JournalPath == "" {
		return nil
	}

	journal, err := store.NewJournal(cfg.Data.JournalPath)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer journal.Close()

	runID, err := journal.SaveRun(ctx, store.Run{
		CreatedAt:   time.Now(),
		Ticker:      cfg.Data.Ticker,
		Strategy:    strategyName,
		InitialCash: cfg.Backtest.InitialCash,
		FinalEquity: equity[len(equity)-1].Equity,
		CAGR:        summary.CAGR,
		Sharpe:      summary.Sharpe,
		MaxDrawdown: summary.MaxDrawdown,
	})
	if err != nil {
		return fmt.Errorf("journaling run: %w", err)
	}

	if err := journal.SaveTransactions(ctx, runID, txns); err != nil {
		return fmt.Errorf("journaling transactions: %w", err)
	}

	slog.Info("run journaled", "run_id", runID, "path", cfg.Data.JournalPath)
	return nil
}

// dateRange parses the configured start/end dates. A missing end defaults
// to today, a missing start to one year before the end.
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

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("data.start %s must precede data.end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return start, end, nil
}
