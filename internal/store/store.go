// Package store persists price history and simulation results as flat
// files: Parquet for cached price series, SQLite for the run journal, and
// CSV for the human-readable transaction log.
package store

import (
	"context"
	"time"

	"quiver/internal/domain"
)

// PriceStore persists and retrieves daily price series.
type PriceStore interface {
	// WritePrices persists a batch of price points for a symbol, merging
	// with any already stored.
	WritePrices(ctx context.Context, symbol string, prices []domain.PricePoint) error

	// ReadPrices returns the stored price points for symbol within
	// [start, end], ordered by timestamp.
	ReadPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error)

	// ListSymbols returns all symbols with stored price data.
	ListSymbols(ctx context.Context) ([]string, error)
}
