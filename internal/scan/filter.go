package scan

import (
	"strings"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
)

// maxEntriesPerTick caps how many new positions a single tick may open.
const maxEntriesPerTick = 3

// PositionSet answers membership queries against currently open positions.
type PositionSet interface {
	Has(address string) bool
}

// FilterConfig holds the entry thresholds. All threshold comparisons are
// inclusive: a candidate sitting exactly at a threshold qualifies.
type FilterConfig struct {
	MinLiquidityUSD   float64
	MinVolume24hUSD   float64
	MinPriceChangePct float64
	MinMarketCapUSD   float64
	Blacklist         []string
}

// Filter evaluates candidates against the entry rules.
type Filter struct {
	cfg       FilterConfig
	blacklist []string
}

func NewFilter(cfg FilterConfig) *Filter {
	bl := make([]string, 0, len(cfg.Blacklist))
	for _, term := range cfg.Blacklist {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			bl = append(bl, term)
		}
	}
	return &Filter{cfg: cfg, blacklist: bl}
}

// Qualifies reports whether a single candidate passes every entry rule.
// Rules are conjunctive; order does not matter for the outcome:
//
//	liquidity >= min, volume24h >= min, priceChange24h >= min,
//	priceChange24h > 0, marketCap >= min, symbol not blacklisted,
//	no open position for the token.
func (f *Filter) Qualifies(c domain.Candidate, open PositionSet) bool {
	if c.Liquidity < f.cfg.MinLiquidityUSD {
		return false
	}
	if c.Volume24h < f.cfg.MinVolume24hUSD {
		return false
	}
	if c.PriceChange24h < f.cfg.MinPriceChangePct {
		return false
	}
	if c.PriceChange24h <= 0 {
		return false
	}
	if c.MarketCap < f.cfg.MinMarketCapUSD {
		return false
	}
	if f.blacklisted(c.Symbol) {
		return false
	}
	if open.Has(c.Address) {
		return false
	}
	return true
}

// Select returns qualifying candidates in feed order, capped at
// maxEntriesPerTick and at most one per token address. No re-ranking: the
// feed's ordering is the priority.
func (f *Filter) Select(candidates []domain.Candidate, open PositionSet) []domain.Candidate {
	selected := make([]domain.Candidate, 0, maxEntriesPerTick)
	seen := make(map[string]struct{}, maxEntriesPerTick)
	for _, c := range candidates {
		if !f.Qualifies(c, open) {
			continue
		}
		// One entry per token: the same mint can appear under several pools.
		if _, dup := seen[c.Address]; dup {
			continue
		}
		seen[c.Address] = struct{}{}
		selected = append(selected, c)
		if len(selected) == maxEntriesPerTick {
			break
		}
	}
	return selected
}

func (f *Filter) blacklisted(symbol string) bool {
	s := strings.ToLower(symbol)
	for _, term := range f.blacklist {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
