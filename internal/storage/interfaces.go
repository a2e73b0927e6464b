package storage

import (
	"context"
	"time"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
)

// PositionMirror persists a full snapshot of all open positions. The snapshot
// is written in full on every mutation and reloaded into the in-memory store
// on restart; the store, not the mirror, is the runtime source of truth.
type PositionMirror interface {
	// Save replaces the persisted snapshot with the given positions.
	// A successful Save guarantees a subsequent Load returns every position.
	Save(ctx context.Context, positions []*domain.Position) error

	// Load returns the last persisted snapshot. An absent snapshot is not an
	// error; it returns an empty slice.
	Load(ctx context.Context) ([]*domain.Position, error)
}

// TradeLog records entry and exit actions. Records are append-only.
type TradeLog interface {
	// Append writes one trade record. Returns ErrInvalidInput on nil records.
	Append(ctx context.Context, rec *domain.TradeRecord) error
}

// CandidateSnapshot is one normalized candidate as seen during a scan tick,
// kept for offline analysis of filter behavior.
type CandidateSnapshot struct {
	ScannedAt      time.Time
	Address        string
	Symbol         string
	PriceUSD       float64
	PriceChange24h float64
	Volume24h      float64
	Liquidity      float64
	MarketCap      float64
	Pool           string
	Qualified      bool
}

// ScanHistory stores per-tick candidate snapshots. Writes are best-effort:
// the scheduler logs failures and carries on.
type ScanHistory interface {
	// InsertTick appends all candidate snapshots observed in one tick.
	InsertTick(ctx context.Context, snapshots []*CandidateSnapshot) error
}
