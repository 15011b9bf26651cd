package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"quiver/internal/domain"
	"quiver/internal/util"
)

// Compile-time interface check.
var _ Fetcher = (*AlpacaFetcher)(nil)

// AlpacaFetcher retrieves daily bars from the Alpaca market-data API and
// reduces them to close prices.
type AlpacaFetcher struct {
	client *marketdata.Client
	log    *slog.Logger
}

// NewAlpacaFetcher creates an AlpacaFetcher with the given credentials.
// dataURL overrides the default API endpoint when non-empty.
func NewAlpacaFetcher(apiKey, apiSecret, dataURL string) *AlpacaFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaFetcher{
		client: marketdata.NewClient(opts),
		log:    slog.Default().With("fetcher", "alpaca"),
	}
}

// DailyPrices fetches daily bars for symbol in [start, end] and returns
// one PricePoint per bar using the close price. An empty response is an
// ErrInsufficientData: the caller cannot backtest without bars.
func (f *AlpacaFetcher) DailyPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	symbol = strings.ToUpper(symbol)

	var bars []marketdata.Bar
	err := util.Retry(ctx, 3, time.Second, 10*time.Second, func() error {
		var err error
		bars, err = f.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      "iex",
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s in [%s, %s]",
			domain.ErrInsufficientData, symbol,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	prices := make([]domain.PricePoint, 0, len(bars))
	for _, b := range bars {
		prices = append(prices, domain.PricePoint{
			Timestamp: b.Timestamp.UTC(),
			Price:     b.Close,
		})
	}

	f.log.Debug("fetched daily bars", "symbol", symbol, "bars", len(prices))
	return prices, nil
}
