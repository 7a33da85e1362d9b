package metrics

import (
	"testing"

	"solana-buy-ranking/internal/domain"
)

func TestRank_SortedDescending(t *testing.T) {
	agg := FoldEvents([]*domain.BuyEvent{
		{Wallet: walletA, NativeSpent: domain.LamportsToNative(10_000_000), Position: 0},
		{Wallet: walletB, NativeSpent: domain.LamportsToNative(50_000_000), Position: 1},
		{Wallet: walletC, NativeSpent: domain.LamportsToNative(20_000_000), Position: 2},
	})

	ranking := Rank(agg, 0)

	order := []string{walletB, walletC, walletA}
	for i, wallet := range order {
		if ranking.Entries[i].Wallet != wallet {
			t.Errorf("Position %d: expected %s, got %s", i, wallet, ranking.Entries[i].Wallet)
		}
		if ranking.Entries[i].Rank != i+1 {
			t.Errorf("Position %d: expected rank %d, got %d", i, i+1, ranking.Entries[i].Rank)
		}
	}
	if ranking.Truncated() {
		t.Error("Expected no truncation with limit 0")
	}
}

func TestRank_TieKeepsFirstSeen(t *testing.T) {
	agg := FoldEvents([]*domain.BuyEvent{
		{Wallet: walletC, NativeSpent: domain.LamportsToNative(20_000_000), Position: 0},
		{Wallet: walletA, NativeSpent: domain.LamportsToNative(20_000_000), Position: 1},
		{Wallet: walletB, NativeSpent: domain.LamportsToNative(20_000_000), Position: 2},
	})

	ranking := Rank(agg, 0)

	for i, wallet := range []string{walletC, walletA, walletB} {
		if ranking.Entries[i].Wallet != wallet {
			t.Errorf("Position %d: expected %s, got %s", i, wallet, ranking.Entries[i].Wallet)
		}
	}
}

func TestRank_TruncationReportsOmitted(t *testing.T) {
	var events []*domain.BuyEvent
	for i := 0; i < 25; i++ {
		events = append(events, &domain.BuyEvent{
			Wallet:      string(rune('A' + i)),
			NativeSpent: domain.LamportsToNative(uint64(i+1) * 1_000_000),
			Position:    i,
		})
	}

	ranking := Rank(FoldEvents(events), 10)

	if len(ranking.Entries) != 10 {
		t.Fatalf("Expected 10 entries, got %d", len(ranking.Entries))
	}
	if ranking.Omitted != 15 || !ranking.Truncated() {
		t.Errorf("Expected 15 omitted, got %d", ranking.Omitted)
	}
	if ranking.TotalWallets != 25 {
		t.Errorf("Expected 25 total wallets, got %d", ranking.TotalWallets)
	}
	if ranking.Entries[0].Wallet != string(rune('A'+24)) {
		t.Errorf("Expected largest spender first, got %s", ranking.Entries[0].Wallet)
	}
}

func TestRank_Empty(t *testing.T) {
	ranking := Rank(NewAggregation(), 10)
	if len(ranking.Entries) != 0 || ranking.Omitted != 0 {
		t.Errorf("Expected empty ranking, got %+v", ranking)
	}
}
