package metrics

import (
	"sort"

	"solana-buy-ranking/internal/domain"
)

// Rank orders wallets by total native spend, descending. Wallets with equal
// totals keep their first-seen order. limit <= 0 disables truncation.
func Rank(agg *Aggregation, limit int) *domain.Ranking {
	entries := make([]domain.RankingEntry, 0, len(agg.Order))
	for _, wallet := range agg.Order {
		entries = append(entries, domain.RankingEntry{
			Wallet:           wallet,
			TotalNativeSpent: agg.Totals[wallet],
			BuyCount:         agg.BuyCount[wallet],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalNativeSpent.GreaterThan(entries[j].TotalNativeSpent)
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	ranking := &domain.Ranking{TotalWallets: len(entries)}
	if limit > 0 && len(entries) > limit {
		ranking.Omitted = len(entries) - limit
		entries = entries[:limit]
	}
	ranking.Entries = entries
	return ranking
}
