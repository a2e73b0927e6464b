package feed

import (
	"context"
	"fmt"
	"strconv"
)

// PriceLookup resolves the current USD price of a token through the feed's
// token-pairs endpoint. The first chain-matching pair with a usable price
// wins; a token with no such pair is treated as unavailable for this tick.
type PriceLookup struct {
	client  *Client
	chainID string
}

// NewPriceLookup creates a price lookup for the given chain.
func NewPriceLookup(client *Client, chainID string) *PriceLookup {
	return &PriceLookup{client: client, chainID: chainID}
}

// FetchPrice returns the current USD price for a token address.
// Returns ErrUnavailable when the feed fails or no usable pair exists.
func (p *PriceLookup) FetchPrice(ctx context.Context, address string) (float64, error) {
	pairs, err := p.client.PairsForToken(ctx, address)
	if err != nil {
		return 0, err
	}

	for _, pair := range pairs {
		if pair.ChainID != p.chainID {
			continue
		}
		price, err := strconv.ParseFloat(pair.PriceUSD, 64)
		if err != nil || price <= 0 {
			continue
		}
		return price, nil
	}

	return 0, fmt.Errorf("%w: no usable pair for %s", ErrUnavailable, address)
}
