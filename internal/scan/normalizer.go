// Package scan holds the decision core: candidate normalization, the
// opportunity filter, and the scheduler driving the scan/monitor loop.
package scan

import (
	"strconv"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
	"github.com/Claw16z/claw16z-trading-agent/internal/feed"
)

// Normalize converts raw feed pairs into canonical candidates for one tick.
// Pure transform:
//   - only pairs on chainID are kept
//   - one candidate per pool address, first occurrence wins
//   - pairs missing price, volume, symbol, address, or pool are dropped
//     silently; absent data is expected from a noisy feed
//   - optional numeric fields that fail to parse become zero, never an error
//
// Output preserves feed order.
func Normalize(pairs []feed.Pair, chainID string) []domain.Candidate {
	seen := make(map[string]struct{}, len(pairs))
	candidates := make([]domain.Candidate, 0, len(pairs))

	for _, pair := range pairs {
		if pair.ChainID != chainID {
			continue
		}
		if pair.PairAddress == "" || pair.BaseToken.Address == "" || pair.BaseToken.Symbol == "" {
			continue
		}
		if pair.PriceUSD == "" || pair.Volume == nil {
			continue
		}
		if _, dup := seen[pair.PairAddress]; dup {
			continue
		}

		price, err := strconv.ParseFloat(pair.PriceUSD, 64)
		if err != nil {
			price = 0
		}
		if price <= 0 {
			continue
		}

		c := domain.Candidate{
			Address:   pair.BaseToken.Address,
			Symbol:    pair.BaseToken.Symbol,
			PriceUSD:  price,
			Volume24h: pair.Volume.H24,
			MarketCap: pair.FDV,
			Pool:      pair.PairAddress,
		}
		if pair.PriceChange != nil {
			c.PriceChange24h = pair.PriceChange.H24
		}
		if pair.Liquidity != nil {
			c.Liquidity = pair.Liquidity.USD
		}

		seen[pair.PairAddress] = struct{}{}
		candidates = append(candidates, c)
	}

	return candidates
}
