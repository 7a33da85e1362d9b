package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/observability"
	"solana-buy-ranking/internal/storage"
)

// BuyEventArchive implements storage.BuyEventArchive using ClickHouse.
// The buy_events table is a ReplacingMergeTree keyed by event_id, so
// re-archiving a window replaces rows instead of duplicating them.
type BuyEventArchive struct {
	conn *Conn
}

// NewBuyEventArchive creates a new BuyEventArchive.
func NewBuyEventArchive(conn *Conn) *BuyEventArchive {
	return &BuyEventArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.BuyEventArchive = (*BuyEventArchive)(nil)

// InsertBuyEvents appends events in one batch.
func (a *BuyEventArchive) InsertBuyEvents(ctx context.Context, groupID, token string, events []*domain.BuyEvent) (err error) {
	if token == "" {
		return storage.ErrInvalidInput
	}
	if len(events) == 0 {
		return nil
	}
	defer func(started time.Time) {
		observability.RecordDBQuery("clickhouse", "insert_buy_events", started, err)
	}(time.Now())

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO buy_events (
			event_id, group_id, token, wallet, tx_id,
			native_spent, token_received, block_time
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range storage.ToArchiveRows(groupID, token, events) {
		err = batch.Append(
			row.EventID, row.GroupID, row.Token, row.Wallet, row.TxID,
			row.NativeSpent, row.TokenReceived, time.Unix(row.Timestamp, 0).UTC(),
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

// ListByGroup returns the group's rows for token ordered by block time.
// FINAL collapses rows replaced by re-archiving.
func (a *BuyEventArchive) ListByGroup(ctx context.Context, groupID, token string) ([]storage.ArchivedBuyEvent, error) {
	query := `
		SELECT event_id, group_id, token, wallet, tx_id, native_spent, token_received, block_time
		FROM buy_events FINAL
		WHERE group_id = ? AND token = ?
		ORDER BY block_time ASC, tx_id ASC
	`

	rows, err := a.conn.Query(ctx, query, groupID, token)
	if err != nil {
		return nil, fmt.Errorf("query buy events: %w", err)
	}
	defer rows.Close()

	var out []storage.ArchivedBuyEvent
	for rows.Next() {
		var (
			row       storage.ArchivedBuyEvent
			spent     decimal.Decimal
			received  decimal.Decimal
			blockTime time.Time
		)
		if err := rows.Scan(&row.EventID, &row.GroupID, &row.Token, &row.Wallet, &row.TxID, &spent, &received, &blockTime); err != nil {
			return nil, fmt.Errorf("scan buy event: %w", err)
		}
		row.NativeSpent = spent
		row.TokenReceived = received
		row.Timestamp = blockTime.Unix()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buy events: %w", err)
	}
	return out, nil
}
