package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"quiver/internal/domain"
)

func series(prices ...float64) []domain.PricePoint {
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	pts := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		pts[i] = domain.PricePoint{Timestamp: t0.AddDate(0, 0, i), Price: p}
	}
	return pts
}

func aligned(prices []domain.PricePoint, sigs ...domain.Signal) []domain.SignalPoint {
	out := make([]domain.SignalPoint, len(sigs))
	for i, s := range sigs {
		out[i] = domain.SignalPoint{Timestamp: prices[i].Timestamp, Signal: s}
	}
	return out
}

func approx(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

func TestSimulateRoundTrip(t *testing.T) {
	// Buy fully invested on day 1, liquidate on day 3.
	prices := series(100, 110, 90, 120)
	signals := aligned(prices, domain.Flat, domain.Long, domain.Long, domain.Flat)

	equity, txns, err := Simulate(prices, signals, Config{InitialCash: 1000})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if len(equity) != len(prices) {
		t.Fatalf("equity curve has %d points, want %d", len(equity), len(prices))
	}
	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txns))
	}

	buy, sell := txns[0], txns[1]
	if buy.Action != domain.ActionBuy || !buy.Timestamp.Equal(prices[1].Timestamp) {
		t.Errorf("first transaction = %v %s, want buy at day 1", buy.Action, buy.Timestamp)
	}
	wantUnits := 1000.0 / 110.0
	if !approx(buy.Units, wantUnits, 1e-9) {
		t.Errorf("buy units = %v, want %v", buy.Units, wantUnits)
	}
	if sell.Action != domain.ActionSell || !sell.Timestamp.Equal(prices[3].Timestamp) {
		t.Errorf("second transaction = %v %s, want sell at day 3", sell.Action, sell.Timestamp)
	}

	wantFinal := wantUnits * 120
	if !approx(equity[3].Equity, wantFinal, 1e-9) {
		t.Errorf("final equity = %v, want %v", equity[3].Equity, wantFinal)
	}
	if !approx(sell.Cash, wantFinal, 1e-9) {
		t.Errorf("post-sell cash = %v, want %v", sell.Cash, wantFinal)
	}

	// Equity is tracked through the dip even with no transaction.
	wantDip := wantUnits * 90
	if !approx(equity[2].Equity, wantDip, 1e-9) {
		t.Errorf("equity at dip = %v, want %v", equity[2].Equity, wantDip)
	}
}

func TestSimulateConservation(t *testing.T) {
	prices := series(100, 100)
	signals := aligned(prices, domain.Long, domain.Long)

	// Without cost, a buy moves value from cash to holdings exactly.
	equity, txns, err := Simulate(prices, signals, Config{InitialCash: 1000})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txns))
	}
	if !approx(equity[0].Equity, 1000, 1e-9) {
		t.Errorf("equity after free buy = %v, want 1000", equity[0].Equity)
	}

	// With cost, equity drops by exactly the cost at the transaction bar.
	equity, _, err = Simulate(prices, signals, Config{InitialCash: 1000, TransactionCostBps: 10})
	if err != nil {
		t.Fatalf("Simulate with cost: %v", err)
	}
	wantCost := 1000 * 10.0 / 10000 // units*price == initial cash here
	if !approx(equity[0].Equity, 1000-wantCost, 1e-9) {
		t.Errorf("equity after costed buy = %v, want %v", equity[0].Equity, 1000-wantCost)
	}
}

func TestSimulateTransactionIffTransition(t *testing.T) {
	prices := series(10, 11, 12, 13, 14, 15)
	signals := aligned(prices, domain.Flat, domain.Long, domain.Long, domain.Flat, domain.Flat, domain.Long)

	_, txns, err := Simulate(prices, signals, Config{InitialCash: 100})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	// Transitions: bar 1 (buy), bar 3 (sell), bar 5 (buy).
	if len(txns) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txns))
	}
	wantBars := []int{1, 3, 5}
	for i, txn := range txns {
		if !txn.Timestamp.Equal(prices[wantBars[i]].Timestamp) {
			t.Errorf("transaction %d at %s, want bar %d", i, txn.Timestamp, wantBars[i])
		}
	}
}

func TestSimulateFirstBarTransition(t *testing.T) {
	prices := series(50, 55)
	signals := aligned(prices, domain.Long, domain.Long)

	_, txns, err := Simulate(prices, signals, Config{InitialCash: 100})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(txns) != 1 || !txns[0].Timestamp.Equal(prices[0].Timestamp) {
		t.Fatalf("first-bar Long must record a buy at bar 0, got %v", txns)
	}
}

func TestSimulateShortDisabled(t *testing.T) {
	prices := series(100, 100, 100)
	signals := aligned(prices, domain.Flat, domain.Short, domain.Short)

	equity, txns, err := Simulate(prices, signals, Config{InitialCash: 1000, AllowShort: false})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("short signals with AllowShort=false produced %d transactions, want 0", len(txns))
	}
	for i, e := range equity {
		if !approx(e.Equity, 1000, 1e-9) {
			t.Errorf("equity[%d] = %v, want untouched 1000", i, e.Equity)
		}
	}
}

func TestSimulateShortEnabled(t *testing.T) {
	prices := series(100, 100, 50)
	signals := aligned(prices, domain.Flat, domain.Short, domain.Flat)

	equity, txns, err := Simulate(prices, signals, Config{InitialCash: 1000, AllowShort: true})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2 (sell short, buy to cover)", len(txns))
	}

	open, cover := txns[0], txns[1]
	if open.Action != domain.ActionSell || !approx(open.Units, -10, 1e-9) {
		t.Errorf("short open = %v units via %v, want -10 via sell", open.Units, open.Action)
	}
	if cover.Action != domain.ActionBuy {
		t.Errorf("short close action = %v, want buy to cover", cover.Action)
	}

	// Shorted at 100, covered at 50: 10 units * 50 profit.
	if !approx(equity[2].Equity, 1500, 1e-9) {
		t.Errorf("final equity = %v, want 1500", equity[2].Equity)
	}
}

func TestSimulateIdempotent(t *testing.T) {
	prices := series(100, 104, 98, 103, 110, 90)
	signals := aligned(prices, domain.Flat, domain.Long, domain.Long, domain.Flat, domain.Long, domain.Flat)
	cfg := Config{InitialCash: 5000, TransactionCostBps: 5}

	eq1, tx1, err := Simulate(prices, signals, cfg)
	if err != nil {
		t.Fatalf("Simulate (first): %v", err)
	}
	eq2, tx2, err := Simulate(prices, signals, cfg)
	if err != nil {
		t.Fatalf("Simulate (second): %v", err)
	}

	if len(eq1) != len(eq2) || len(tx1) != len(tx2) {
		t.Fatalf("re-run produced different output sizes")
	}
	for i := range eq1 {
		if eq1[i] != eq2[i] {
			t.Errorf("equity[%d] differs between identical runs: %v vs %v", i, eq1[i], eq2[i])
		}
	}
	for i := range tx1 {
		if tx1[i] != tx2[i] {
			t.Errorf("transaction[%d] differs between identical runs: %v vs %v", i, tx1[i], tx2[i])
		}
	}
}

func TestSimulateErrors(t *testing.T) {
	prices := series(100, 110)
	signals := aligned(prices, domain.Flat, domain.Long)

	if _, _, err := Simulate(nil, nil, Config{InitialCash: 100}); !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("empty series error = %v, want ErrInsufficientData", err)
	}

	if _, _, err := Simulate(prices, signals[:1], Config{InitialCash: 100}); !errors.Is(err, domain.ErrAlignment) {
		t.Errorf("length mismatch error = %v, want ErrAlignment", err)
	}

	shifted := aligned(prices, domain.Flat, domain.Long)
	shifted[1].Timestamp = shifted[1].Timestamp.Add(time.Hour)
	if _, _, err := Simulate(prices, shifted, Config{InitialCash: 100}); !errors.Is(err, domain.ErrAlignment) {
		t.Errorf("timestamp mismatch error = %v, want ErrAlignment", err)
	}

	if _, _, err := Simulate(prices, signals, Config{InitialCash: -1}); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("negative cash error = %v, want ErrInvalidConfig", err)
	}
}

func TestSimulateNoOutputOnFailure(t *testing.T) {
	prices := series(100, 110)
	signals := aligned(prices, domain.Flat, domain.Long)
	signals[1].Timestamp = signals[1].Timestamp.Add(time.Minute)

	equity, txns, err := Simulate(prices, signals, Config{InitialCash: 100})
	if err == nil {
		t.Fatal("Simulate succeeded on misaligned input")
	}
	if equity != nil || txns != nil {
		t.Errorf("failing run returned partial output: %d equity points, %d transactions", len(equity), len(txns))
	}
}
