package postgres

import (
	"context"
	"fmt"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
	"github.com/Claw16z/claw16z-trading-agent/internal/storage"
)

// TradeLog implements storage.TradeLog using PostgreSQL.
type TradeLog struct {
	pool *Pool
}

// NewTradeLog creates a new TradeLog.
func NewTradeLog(pool *Pool) *TradeLog {
	return &TradeLog{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeLog = (*TradeLog)(nil)

// Append writes one trade record.
func (l *TradeLog) Append(ctx context.Context, rec *domain.TradeRecord) error {
	if rec == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_records (
			ts, type, token, address, reason,
			entry_price, entry_time, exit_time,
			invested, final_value, pnl, pnl_percent, execution_ref
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := l.pool.Exec(ctx, query,
		rec.Timestamp, rec.Type, rec.Token, rec.Address, nullableString(rec.Reason),
		rec.EntryPrice, rec.EntryTime, rec.ExitTime,
		rec.Invested, rec.FinalValue, rec.PnL, rec.PnLPercent, rec.Signature,
	)
	if err != nil {
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// Recent returns the most recent trade records, newest first.
func (l *TradeLog) Recent(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ts, type, token, address, COALESCE(reason, ''),
		       entry_price, entry_time, exit_time,
		       invested, final_value, pnl, pnl_percent, execution_ref
		FROM trade_records
		ORDER BY ts DESC
		LIMIT $1
	`

	rows, err := l.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query trade records: %w", err)
	}
	defer rows.Close()

	records := []*domain.TradeRecord{}
	for rows.Next() {
		var rec domain.TradeRecord
		if err := rows.Scan(
			&rec.Timestamp, &rec.Type, &rec.Token, &rec.Address, &rec.Reason,
			&rec.EntryPrice, &rec.EntryTime, &rec.ExitTime,
			&rec.Invested, &rec.FinalValue, &rec.PnL, &rec.PnLPercent, &rec.Signature,
		); err != nil {
			return nil, fmt.Errorf("scan trade record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade records: %w", err)
	}
	return records, nil
}

// nullableString maps "" to NULL for optional text columns.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
