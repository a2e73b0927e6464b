package domain

import "time"

// Trade record types.
const (
	TradeTypeEntry = "ENTRY"
	TradeTypeExit  = "EXIT"
)

// Exit reason codes, in evaluation priority order.
const (
	ExitReasonStopLoss     = "stop loss"
	ExitReasonTimeExit     = "time exit"
	ExitReasonProfitTaking = "profit taking"
)

// TradeRecord describes one entry or exit action. Records are append-only:
// written once to the trade log, never mutated or deleted.
type TradeRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"` // ENTRY | EXIT
	Token     string    `json:"token"`
	Address   string    `json:"address"`
	Reason    string    `json:"reason,omitempty"` // exit only

	EntryPrice float64    `json:"entryPrice"`
	EntryTime  time.Time  `json:"entryTime"`
	ExitTime   *time.Time `json:"exitTime,omitempty"`

	Invested   float64  `json:"invested"`             // quote units committed
	FinalValue *float64 `json:"finalValue,omitempty"` // quote units received on exit
	PnL        *float64 `json:"pnl,omitempty"`        // FinalValue - Invested
	PnLPercent *float64 `json:"pnlPercent,omitempty"`

	Signature string `json:"executionRef"`
}
