package domain

import "time"

// Position is an open exposure to one token, created by a successful entry
// swap. At most one Position exists per token address at any time.
type Position struct {
	Token        string    `json:"token"`        // ticker symbol
	Address      string    `json:"address"`      // token mint address, store key
	EntryPrice   float64   `json:"entryPrice"`   // USD price at entry
	EntryTime    time.Time `json:"entryTime"`    // when the entry swap confirmed
	Amount       float64   `json:"amount"`       // token units held
	USDCInvested float64   `json:"usdcInvested"` // capital committed, quote units
	Signature    string    `json:"executionRef"` // entry execution reference
	StopLoss     float64   `json:"stopLoss"`     // fixed at entry, never revised
}

// PnLPct returns the signed profit percentage at the given current price.
func (p *Position) PnLPct(currentPrice float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (currentPrice - p.EntryPrice) / p.EntryPrice * 100
}

// Age returns how long the position has been held as of now.
func (p *Position) Age(now time.Time) time.Duration {
	return now.Sub(p.EntryTime)
}
