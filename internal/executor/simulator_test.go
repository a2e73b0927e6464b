package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSimulatorBuy(t *testing.T) {
	sim := NewSimulator(nil)

	res, err := sim.Swap(context.Background(), SwapRequest{
		Side:       SideBuy,
		InputMint:  "USDC",
		OutputMint: "mint-1",
		Amount:     10,
		QuotePrice: 0.5,
	})
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if res.OutputAmount != 20 {
		t.Errorf("buy output = %f, want 20 tokens", res.OutputAmount)
	}
	if !strings.HasPrefix(res.Signature, "sim-") {
		t.Errorf("signature %q should carry the sim- prefix", res.Signature)
	}
}

func TestSimulatorSell(t *testing.T) {
	sim := NewSimulator(nil)

	res, err := sim.Swap(context.Background(), SwapRequest{
		Side:       SideSell,
		InputMint:  "mint-1",
		OutputMint: "USDC",
		Amount:     20,
		QuotePrice: 0.75,
	})
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if res.OutputAmount != 15 {
		t.Errorf("sell output = %f, want 15 USDC", res.OutputAmount)
	}
}

func TestSimulatorRejectsBadInput(t *testing.T) {
	sim := NewSimulator(nil)
	ctx := context.Background()

	for _, req := range []SwapRequest{
		{Side: SideBuy, Amount: 0, QuotePrice: 1},
		{Side: SideBuy, Amount: -5, QuotePrice: 1},
		{Side: SideBuy, Amount: 10, QuotePrice: 0},
		{Side: SideSell, Amount: 10, QuotePrice: -1},
	} {
		if _, err := sim.Swap(ctx, req); !errors.Is(err, ErrExecution) {
			t.Errorf("Swap(%+v) = %v, want ErrExecution", req, err)
		}
	}
}

func TestSimulatorSignaturesUnique(t *testing.T) {
	sim := NewSimulator(nil)
	req := SwapRequest{Side: SideBuy, InputMint: "USDC", OutputMint: "m", Amount: 1, QuotePrice: 1}

	a, _ := sim.Swap(context.Background(), req)
	b, _ := sim.Swap(context.Background(), req)
	if a.Signature == b.Signature {
		t.Error("simulated signatures must be unique")
	}
}
