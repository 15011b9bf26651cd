// Package plot renders the simulated equity curve against a buy-and-hold
// benchmark and saves the comparison chart to an image file.
package plot

import (
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"quiver/internal/domain"
	"quiver/internal/perf"
)

// Render draws the strategy equity curve and the benchmark curve on one
// chart, annotates the performance summary in the title, and writes the
// image to path. The image format follows the path extension (.png, .svg,
// .pdf).
func Render(path string, strategy, benchmark []domain.EquityPoint, summary perf.Summary, title string) error {
	if len(strategy) == 0 {
		return fmt.Errorf("%w: empty equity curve", domain.ErrInsufficientData)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s\nCAGR %.2f%%   Sharpe %.2f   Max Drawdown %.2f%%",
		title, summary.CAGR*100, summary.Sharpe, summary.MaxDrawdown*100)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Portfolio Value ($)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())

	stratLine, err := plotter.NewLine(toXYs(strategy))
	if err != nil {
		return fmt.Errorf("building strategy line: %w", err)
	}
	stratLine.Color = color.RGBA{B: 255, A: 255}
	stratLine.Width = vg.Points(2)
	p.Add(stratLine)
	p.Legend.Add("strategy", stratLine)

	if len(benchmark) > 0 {
		benchLine, err := plotter.NewLine(toXYs(benchmark))
		if err != nil {
			return fmt.Errorf("building benchmark line: %w", err)
		}
		benchLine.Color = color.RGBA{R: 255, G: 165, A: 255}
		benchLine.Width = vg.Points(2)
		p.Add(benchLine)
		p.Legend.Add("buy & hold", benchLine)
	}

	p.Legend.Top = true

	return p.Save(12*vg.Inch, 8*vg.Inch, path)
}

// NormalizeTo converts a raw price series into the equity curve of a
// buy-and-hold position opened with the given capital at the first bar.
func NormalizeTo(prices []domain.PricePoint, capital float64) []domain.EquityPoint {
	if len(prices) == 0 || prices[0].Price == 0 {
		return nil
	}

	first := prices[0].Price
	equity := make([]domain.EquityPoint, len(prices))
	for i, p := range prices {
		equity[i] = domain.EquityPoint{
			Timestamp: p.Timestamp,
			Equity:    p.Price / first * capital,
		}
	}
	return equity
}

// SelectRange returns the sub-series of points with timestamps in
// [start, end]. The input must be ordered by timestamp; the result shares
// its backing array.
func SelectRange(points []domain.EquityPoint, start, end time.Time) []domain.EquityPoint {
	lo := 0
	for lo < len(points) && points[lo].Timestamp.Before(start) {
		lo++
	}
	hi := lo
	for hi < len(points) && !points[hi].Timestamp.After(end) {
		hi++
	}
	return points[lo:hi]
}

func toXYs(points []domain.EquityPoint) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Timestamp.Unix())
		xys[i].Y = pt.Equity
	}
	return xys
}
