package solana

import "context"

// Confirmer waits for on-chain confirmation of a submitted transaction.
type Confirmer interface {
	// ConfirmSignature blocks until the signature reaches confirmed
	// commitment or the context expires. A non-nil error means the
	// transaction's fate is unknown or it failed on chain.
	ConfirmSignature(ctx context.Context, signature string) error
}
