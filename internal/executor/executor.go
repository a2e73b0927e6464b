// Package executor turns entry and exit decisions into swaps. The live
// implementation routes through a Jupiter-style aggregator; the simulator
// fills orders at the quoted price for dry runs.
package executor

import (
	"context"
	"errors"
	"time"
)

// ErrExecution marks swap failures. A failed swap leaves all position state
// untouched; callers retry on a later tick, not here.
var ErrExecution = errors.New("execution failed")

// Side says which leg of the pair is the token being traded.
type Side int

const (
	// SideBuy spends the quote currency (input) for the token (output).
	SideBuy Side = iota
	// SideSell spends the token (input) for the quote currency (output).
	SideSell
)

// SwapRequest describes one swap. Amount is in UI units of the input mint.
// QuotePrice is the USD price of the token leg at decision time; the
// simulator fills at it, the live client only records it.
type SwapRequest struct {
	Side       Side
	InputMint  string
	OutputMint string
	Amount     float64
	QuotePrice float64
}

// SwapResult describes a confirmed swap. OutputAmount is in UI units of the
// output mint.
type SwapResult struct {
	Signature    string
	OutputAmount float64
	PriceImpact  float64
	Elapsed      time.Duration
}

// Executor executes swaps.
type Executor interface {
	Swap(ctx context.Context, req SwapRequest) (*SwapResult, error)
}
