// Package domain defines the value types shared across the quiver
// backtesting pipeline: price bars, trade signals, transactions, and
// equity curve points.
package domain

import "time"

// Signal is the discrete desired position state derived from price history.
type Signal int

// Signal values. Long holds the asset, Short holds a negative position,
// Flat holds cash only.
const (
	Short Signal = -1
	Flat  Signal = 0
	Long  Signal = 1
)

// String returns the lower-case name of the signal.
func (s Signal) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Action identifies the direction of a recorded transaction.
type Action string

// Action values.
const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// PricePoint is one bar of the underlying asset. A price series is
// strictly increasing in Timestamp with no duplicates.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
}

// SignalPoint is the signal for one bar. Signal series are aligned 1:1 by
// timestamp with the price series they were generated from.
type SignalPoint struct {
	Timestamp time.Time
	Signal    Signal
}

// Transaction records one position change during a simulation. Entries are
// append-only and created exactly when the position signal changes between
// consecutive bars.
type Transaction struct {
	Timestamp time.Time `csv:"timestamp"`
	Action    Action    `csv:"action"`
	Price     float64   `csv:"price"`
	Units     float64   `csv:"units"`
	Cash      float64   `csv:"cash"`
	Equity    float64   `csv:"equity"`
}

// EquityPoint is the total portfolio value (cash plus market value of
// holdings) at one bar. A simulation emits exactly one EquityPoint per
// input bar, including bars with no transaction.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}
