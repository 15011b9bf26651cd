package signal

import (
	"errors"
	"testing"
	"time"

	"quiver/internal/domain"
)

// series builds a daily price series starting 2024-01-02.
func series(prices ...float64) []domain.PricePoint {
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	pts := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		pts[i] = domain.PricePoint{Timestamp: t0.AddDate(0, 0, i), Price: p}
	}
	return pts
}

func signalsOf(points []domain.SignalPoint) []domain.Signal {
	out := make([]domain.Signal, len(points))
	for i, p := range points {
		out[i] = p.Signal
	}
	return out
}

func TestMACrossSignals(t *testing.T) {
	prices := series(10, 11, 12, 13, 12, 11, 10)

	g := NewMACross(2, 3, false)
	got, err := g.Generate(prices)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != len(prices) {
		t.Fatalf("Generate returned %d signals, want %d", len(got), len(prices))
	}

	// Flat until the slow window fills, Long on the rally, Flat on the
	// decline (shortOnDown disabled).
	want := []domain.Signal{domain.Flat, domain.Flat, domain.Long, domain.Long, domain.Long, domain.Flat, domain.Flat}
	for i, sig := range signalsOf(got) {
		if sig != want[i] {
			t.Errorf("signal[%d] = %v, want %v", i, sig, want[i])
		}
	}

	for i := range got {
		if !got[i].Timestamp.Equal(prices[i].Timestamp) {
			t.Errorf("signal[%d] timestamp %v misaligned with price %v", i, got[i].Timestamp, prices[i].Timestamp)
		}
	}
}

func TestMACrossShortOnDown(t *testing.T) {
	prices := series(10, 11, 12, 13, 12, 11, 10)

	g := NewMACross(2, 3, true)
	got, err := g.Generate(prices)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if got[5].Signal != domain.Short || got[6].Signal != domain.Short {
		t.Errorf("down-cross signals = %v, %v, want short, short", got[5].Signal, got[6].Signal)
	}
}

func TestMACrossTieCarriesPrevious(t *testing.T) {
	// Constant prices make the two averages exactly equal; the previous
	// signal (Flat from the warmup) carries forward.
	prices := series(5, 5, 5, 5, 5)

	g := NewMACross(2, 3, true)
	got, err := g.Generate(prices)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i, p := range got {
		if p.Signal != domain.Flat {
			t.Errorf("signal[%d] = %v, want flat", i, p.Signal)
		}
	}
}

func TestMACrossWindowLongerThanSeries(t *testing.T) {
	prices := series(10, 11, 12)

	g := NewMACross(5, 10, false)
	got, err := g.Generate(prices)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i, p := range got {
		if p.Signal != domain.Flat {
			t.Errorf("signal[%d] = %v, want flat for underpopulated window", i, p.Signal)
		}
	}
}

func TestMACrossEmptySeries(t *testing.T) {
	g := NewMACross(2, 3, false)
	_, err := g.Generate(nil)
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("Generate(nil) error = %v, want ErrInsufficientData", err)
	}
}

func TestNewSelectsVariant(t *testing.T) {
	tests := []struct {
		variant string
		want    string
	}{
		{"moving_average", "moving_average"},
		{"mean_reversion", "mean_reversion"},
	}
	for _, tt := range tests {
		g, err := New(stubStrategyConfig(tt.variant))
		if err != nil {
			t.Fatalf("New(%q): %v", tt.variant, err)
		}
		if g.Name() != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.variant, g.Name(), tt.want)
		}
	}
}

func TestNewUnknownVariant(t *testing.T) {
	_, err := New(stubStrategyConfig("bollinger"))
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("New(bollinger) error = %v, want ErrInvalidConfig", err)
	}
}
