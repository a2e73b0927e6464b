package solana

import (
	"context"
	"fmt"
	"sync"
)

// USDCMint is the mainnet USDC mint address.
const USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

// DecimalsResolver resolves and caches per-mint decimal counts via
// getTokenSupply. Decimals never change for a mint, so entries live forever.
type DecimalsResolver struct {
	rpc RPCClient

	mu    sync.RWMutex
	cache map[string]uint8
}

// NewDecimalsResolver creates a resolver preseeded with USDC's 6 decimals.
func NewDecimalsResolver(rpc RPCClient) *DecimalsResolver {
	return &DecimalsResolver{
		rpc:   rpc,
		cache: map[string]uint8{USDCMint: 6},
	}
}

// Decimals returns the decimal count for the mint, querying the RPC node on
// a cache miss.
func (r *DecimalsResolver) Decimals(ctx context.Context, mint string) (uint8, error) {
	r.mu.RLock()
	d, ok := r.cache[mint]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	supply, err := r.rpc.GetTokenSupply(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("resolve decimals for %s: %w", mint, err)
	}

	r.mu.Lock()
	r.cache[mint] = supply.Decimals
	r.mu.Unlock()
	return supply.Decimals, nil
}
