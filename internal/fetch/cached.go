package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quiver/internal/domain"
	"quiver/internal/store"
)

// Compile-time interface check.
var _ Fetcher = (*CachedFetcher)(nil)

// CachedFetcher reads price series from a local store first and only hits
// the remote fetcher on a miss, writing the result back to the store.
type CachedFetcher struct {
	store  store.PriceStore
	remote Fetcher
	log    *slog.Logger
}

// NewCachedFetcher composes a PriceStore cache over a remote Fetcher.
func NewCachedFetcher(s store.PriceStore, remote Fetcher) *CachedFetcher {
	return &CachedFetcher{
		store:  s,
		remote: remote,
		log:    slog.Default().With("fetcher", "cached"),
	}
}

// DailyPrices returns cached prices when present, otherwise downloads and
// caches them.
func (f *CachedFetcher) DailyPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	cached, err := f.store.ReadPrices(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading cached prices for %s: %w", symbol, err)
	}
	if len(cached) > 0 {
		f.log.Debug("cache hit", "symbol", symbol, "bars", len(cached))
		return cached, nil
	}

	f.log.Info("cache miss, downloading", "symbol", symbol,
		"start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))

	prices, err := f.remote.DailyPrices(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	if err := f.store.WritePrices(ctx, symbol, prices); err != nil {
		return nil, fmt.Errorf("caching prices for %s: %w", symbol, err)
	}
	return prices, nil
}
