// Package fetch retrieves historical daily price series for the
// backtesting pipeline. The core never touches the network itself; these
// fetchers are the collaborators that hand it an ordered price series.
package fetch

import (
	"context"
	"time"

	"quiver/internal/domain"
)

// Fetcher retrieves the daily price series for one symbol. Returned
// series are ordered by timestamp with no duplicates.
type Fetcher interface {
	DailyPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error)
}
