package memory

import (
	"context"
	"sort"
	"sync"

	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/storage"
)

// BuyEventArchive is an in-memory implementation of storage.BuyEventArchive.
type BuyEventArchive struct {
	mu   sync.RWMutex
	rows map[string]storage.ArchivedBuyEvent // keyed by event_id
}

// NewBuyEventArchive creates a new in-memory archive.
func NewBuyEventArchive() *BuyEventArchive {
	return &BuyEventArchive{rows: make(map[string]storage.ArchivedBuyEvent)}
}

// Compile-time interface check.
var _ storage.BuyEventArchive = (*BuyEventArchive)(nil)

// InsertBuyEvents stores events, replacing rows with the same event_id.
func (a *BuyEventArchive) InsertBuyEvents(_ context.Context, groupID, token string, events []*domain.BuyEvent) error {
	if token == "" {
		return storage.ErrInvalidInput
	}

	rows := storage.ToArchiveRows(groupID, token, events)

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, row := range rows {
		a.rows[row.EventID] = row
	}
	return nil
}

// ListByGroup returns the group's rows ordered by timestamp, then tx ID.
func (a *BuyEventArchive) ListByGroup(groupID string) []storage.ArchivedBuyEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []storage.ArchivedBuyEvent
	for _, row := range a.rows {
		if row.GroupID == groupID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].TxID < out[j].TxID
	})
	return out
}
