package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/Claw16z/claw16z-trading-agent/internal/storage"
)

// ScanHistoryStore implements storage.ScanHistory using ClickHouse.
// Every tick appends one row per normalized candidate; the MergeTree table
// is insert-only and meant for offline analysis of filter behavior.
type ScanHistoryStore struct {
	conn *Conn
}

// NewScanHistoryStore creates a new ScanHistoryStore.
func NewScanHistoryStore(conn *Conn) *ScanHistoryStore {
	return &ScanHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScanHistory = (*ScanHistoryStore)(nil)

// InsertTick appends all candidate snapshots observed in one tick.
func (s *ScanHistoryStore) InsertTick(ctx context.Context, snapshots []*storage.CandidateSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO scan_candidates (
			scanned_at, address, symbol, price_usd, price_change_24h,
			volume_24h, liquidity, market_cap, pool, qualified
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		if snap == nil {
			return storage.ErrInvalidInput
		}
		qualified := uint8(0)
		if snap.Qualified {
			qualified = 1
		}
		err = batch.Append(
			snap.ScannedAt, snap.Address, snap.Symbol, snap.PriceUSD, snap.PriceChange24h,
			snap.Volume24h, snap.Liquidity, snap.MarketCap, snap.Pool, qualified,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves snapshots scanned within [start, end] (inclusive),
// ordered by scan time ASC.
func (s *ScanHistoryStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*storage.CandidateSnapshot, error) {
	query := `
		SELECT scanned_at, address, symbol, price_usd, price_change_24h,
		       volume_24h, liquidity, market_cap, pool, qualified
		FROM scan_candidates
		WHERE scanned_at >= ? AND scanned_at <= ?
		ORDER BY scanned_at ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	var result []*storage.CandidateSnapshot
	for rows.Next() {
		var snap storage.CandidateSnapshot
		var qualified uint8
		if err := rows.Scan(
			&snap.ScannedAt, &snap.Address, &snap.Symbol, &snap.PriceUSD, &snap.PriceChange24h,
			&snap.Volume24h, &snap.Liquidity, &snap.MarketCap, &snap.Pool, &qualified,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		snap.Qualified = qualified != 0
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
