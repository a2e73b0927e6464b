package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Simulator fills swaps at the quoted price without touching the chain.
// Used in dry-run mode and in tests.
type Simulator struct {
	logger *log.Logger
}

func NewSimulator(logger *log.Logger) *Simulator {
	if logger == nil {
		logger = log.Default()
	}
	return &Simulator{logger: logger}
}

var _ Executor = (*Simulator)(nil)

// Swap fills the request at QuotePrice. Buying token with quote currency
// yields Amount/QuotePrice tokens; selling yields Amount*QuotePrice quote
// units. Zero quotes are rejected rather than minting infinite tokens.
func (s *Simulator) Swap(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount %f", ErrExecution, req.Amount)
	}
	if req.QuotePrice <= 0 {
		return nil, fmt.Errorf("%w: non-positive quote price %f", ErrExecution, req.QuotePrice)
	}

	start := time.Now()
	var out float64
	switch req.Side {
	case SideBuy:
		out = req.Amount / req.QuotePrice
	case SideSell:
		out = req.Amount * req.QuotePrice
	default:
		return nil, fmt.Errorf("%w: unknown side %d", ErrExecution, req.Side)
	}

	res := &SwapResult{
		Signature:    "sim-" + uuid.NewString(),
		OutputAmount: out,
		Elapsed:      time.Since(start),
	}
	s.logger.Printf("simulated swap %s -> %s: in=%f out=%f ref=%s",
		req.InputMint, req.OutputMint, req.Amount, out, res.Signature)
	return res, nil
}
