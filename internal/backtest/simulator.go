// Package backtest simulates a single-asset portfolio over an aligned
// price and signal series. It walks the series once, trades at signal
// transitions, and produces an equity curve plus an append-only
// transaction log.
package backtest

import (
	"fmt"

	"quiver/internal/domain"
)

// Config holds the portfolio simulation parameters.
//
// Shorting convention: with AllowShort enabled a Short signal opens a
// position with negative Units sized by cash/price, and the short
// proceeds are added to Cash. Equity stays Cash + Units*Price, so Cash
// may exceed equity while short — a known simplification, no margin is
// modeled. With AllowShort disabled a Short signal is executed as Flat:
// any open position is liquidated and none is opened.
type Config struct {
	InitialCash        float64
	AllowShort         bool
	TransactionCostBps float64 // cost = |units|*price*bps/10000, charged on entries
}

// state is the portfolio state owned by one Simulate call.
type state struct {
	cash   float64
	units  float64
	signal domain.Signal
}

// Simulate walks the aligned (price, signal) pairs and returns the equity
// curve and transaction log. Exactly one EquityPoint is emitted per input
// bar; a Transaction is recorded iff the position signal changes between
// consecutive bars, the first bar's transition from the implicit Flat
// included. A failing run returns before producing any output.
func Simulate(prices []domain.PricePoint, signals []domain.SignalPoint, cfg Config) ([]domain.EquityPoint, []domain.Transaction, error) {
	if cfg.InitialCash < 0 {
		return nil, nil, fmt.Errorf("%w: initial cash %v is negative", domain.ErrInvalidConfig, cfg.InitialCash)
	}
	if cfg.TransactionCostBps < 0 {
		return nil, nil, fmt.Errorf("%w: transaction cost %v bps is negative", domain.ErrInvalidConfig, cfg.TransactionCostBps)
	}
	if len(prices) == 0 {
		return nil, nil, fmt.Errorf("%w: empty price series", domain.ErrInsufficientData)
	}
	if err := checkAligned(prices, signals); err != nil {
		return nil, nil, err
	}

	st := state{cash: cfg.InitialCash, signal: domain.Flat}
	equity := make([]domain.EquityPoint, 0, len(prices))
	var txns []domain.Transaction

	for i, p := range prices {
		target := signals[i].Signal
		if target == domain.Short && !cfg.AllowShort {
			// Policy: shorting disabled, treat the signal as Flat.
			target = domain.Flat
		}

		if target != st.signal {
			// Liquidate the existing position at the current bar's price.
			if st.units != 0 {
				txns = append(txns, st.close(p))
			}

			// Open the new position, fully invested.
			if target != domain.Flat && p.Price > 0 {
				txns = append(txns, st.open(p, target, cfg.TransactionCostBps))
			}
			st.signal = target
		}

		equity = append(equity, domain.EquityPoint{
			Timestamp: p.Timestamp,
			Equity:    st.cash + st.units*p.Price,
		})
	}

	return equity, txns, nil
}

// close liquidates the open position at bar p and returns the transaction.
// A long position sells, a short position buys to cover.
func (st *state) close(p domain.PricePoint) domain.Transaction {
	action := domain.ActionSell
	if st.units < 0 {
		action = domain.ActionBuy
	}

	st.cash += st.units * p.Price
	units := st.units
	st.units = 0

	return domain.Transaction{
		Timestamp: p.Timestamp,
		Action:    action,
		Price:     p.Price,
		Units:     units,
		Cash:      st.cash,
		Equity:    st.cash,
	}
}

// open enters a fully-invested position in the target direction at bar p,
// deducting the transaction cost from cash, and returns the transaction.
func (st *state) open(p domain.PricePoint, target domain.Signal, costBps float64) domain.Transaction {
	units := st.cash / p.Price
	action := domain.ActionBuy
	if target == domain.Short {
		units = -units
		action = domain.ActionSell
	}

	cost := abs(units) * p.Price * costBps / 10000

	st.cash -= units*p.Price + cost
	st.units = units

	return domain.Transaction{
		Timestamp: p.Timestamp,
		Action:    action,
		Price:     p.Price,
		Units:     units,
		Cash:      st.cash,
		Equity:    st.cash + units*p.Price,
	}
}

// checkAligned verifies that the signal series covers the price series
// bar for bar. Any mismatch is fatal: it indicates an upstream bug.
func checkAligned(prices []domain.PricePoint, signals []domain.SignalPoint) error {
	if len(prices) != len(signals) {
		return fmt.Errorf("%w: %d prices vs %d signals", domain.ErrAlignment, len(prices), len(signals))
	}
	for i := range prices {
		if !prices[i].Timestamp.Equal(signals[i].Timestamp) {
			return fmt.Errorf("%w: bar %d has price at %s but signal at %s",
				domain.ErrAlignment, i,
				prices[i].Timestamp.Format("2006-01-02T15:04:05"),
				signals[i].Timestamp.Format("2006-01-02T15:04:05"))
		}
	}
	return nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
