package domain

import "errors"

// Error taxonomy for the pipeline. All three are surfaced to the caller
// immediately; a failing run aborts before producing any output.
var (
	// ErrInsufficientData indicates a series too short for the requested
	// window or metric. Recoverable by the caller adjusting parameters.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrAlignment indicates a price/signal timestamp mismatch. Fatal: it
	// points at an upstream bug, the caller must re-align its inputs.
	ErrAlignment = errors.New("price/signal series misaligned")

	// ErrInvalidConfig indicates out-of-range configuration such as
	// negative cash or non-positive windows. Surfaced before simulation.
	ErrInvalidConfig = errors.New("invalid configuration")
)
