package storage

import (
	"github.com/shopspring/decimal"

	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/idhash"
)

// ArchivedBuyEvent is one row of the buy event archive.
type ArchivedBuyEvent struct {
	EventID       string
	GroupID       string
	Token         string
	Wallet        string
	TxID          string
	NativeSpent   decimal.Decimal
	TokenReceived decimal.Decimal
	Timestamp     int64
}

// ToArchiveRows converts events into archive rows keyed by a deterministic
// event ID, so re-archiving the same window does not duplicate rows.
func ToArchiveRows(groupID, token string, events []*domain.BuyEvent) []ArchivedBuyEvent {
	rows := make([]ArchivedBuyEvent, 0, len(events))
	for _, ev := range events {
		rows = append(rows, ArchivedBuyEvent{
			EventID:       idhash.ComputeBuyEventID(groupID, token, ev.TxID, ev.Wallet),
			GroupID:       groupID,
			Token:         token,
			Wallet:        ev.Wallet,
			TxID:          ev.TxID,
			NativeSpent:   ev.NativeSpent,
			TokenReceived: ev.TokenReceived,
			Timestamp:     ev.Timestamp,
		})
	}
	return rows
}
