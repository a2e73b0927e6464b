// Package solana provides thin Solana JSON-RPC and WebSocket clients for
// transaction submission, confirmation, and mint metadata lookups.
package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface the agent depends on.
type RPCClient interface {
	// SendTransaction submits a base64-encoded signed transaction and
	// returns its signature.
	SendTransaction(ctx context.Context, txBase64 string) (string, error)

	// GetTokenSupply retrieves supply info for a mint, including decimals.
	GetTokenSupply(ctx context.Context, mint string) (*TokenSupply, error)

	// GetHealth reports whether the RPC node considers itself healthy.
	GetHealth(ctx context.Context) error
}

// TokenSupply is the result of getTokenSupply for a mint.
type TokenSupply struct {
	Amount   string // raw supply in base units
	Decimals uint8
	UIAmount float64
}
