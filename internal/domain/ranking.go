package domain

import "github.com/shopspring/decimal"

// RankingEntry is one wallet's position in a ranking.
type RankingEntry struct {
	Rank             int
	Wallet           string
	TotalNativeSpent decimal.Decimal
	BuyCount         int
}

// Ranking is an ordered, possibly truncated list of entries.
type Ranking struct {
	Entries      []RankingEntry
	TotalWallets int
	Omitted      int // entries cut by the limit
}

// Truncated reports whether entries were omitted.
func (r *Ranking) Truncated() bool {
	return r.Omitted > 0
}
