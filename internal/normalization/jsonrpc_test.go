package normalization

import (
	"encoding/json"
	"errors"
	"testing"

	"solana-buy-ranking/internal/solana/stub"
)

const (
	testPayer = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	testMint  = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestJSONRPCNormalizer_ParsedShape(t *testing.T) {
	p := stub.BuyPayload{
		Signature:    "sig1",
		Payer:        testPayer,
		Mint:         testMint,
		BlockTime:    1700000000,
		PreLamports:  2_000_000_000,
		PostLamports: 1_500_000_000,
		PostTokens:   "1234.5",
	}

	rec, err := NewJSONRPCNormalizer().Normalize("sig1", mustJSON(t, p.Map()))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if rec.Signature != "sig1" {
		t.Errorf("Expected signature sig1, got %s", rec.Signature)
	}
	if rec.BlockTime == nil || *rec.BlockTime != 1700000000 {
		t.Errorf("Expected block time 1700000000, got %v", rec.BlockTime)
	}
	if rec.Failed {
		t.Error("Expected successful transaction")
	}
	if len(rec.AccountKeys) != 2 {
		t.Fatalf("Expected 2 account keys, got %d", len(rec.AccountKeys))
	}
	if rec.AccountKeys[0].Address != testPayer || !rec.AccountKeys[0].Signer {
		t.Errorf("Expected signer fee payer at index 0, got %+v", rec.AccountKeys[0])
	}
	if rec.AccountKeys[1].Signer {
		t.Error("Expected token account not to be a signer")
	}
	if rec.NativePreBalances[0] != 2_000_000_000 || rec.NativePostBalances[0] != 1_500_000_000 {
		t.Errorf("Unexpected native balances: %v -> %v", rec.NativePreBalances, rec.NativePostBalances)
	}
	if len(rec.TokenPreBalances) != 0 {
		t.Errorf("Expected no pre token balances, got %d", len(rec.TokenPreBalances))
	}
	if len(rec.TokenPostBalances) != 1 {
		t.Fatalf("Expected 1 post token balance, got %d", len(rec.TokenPostBalances))
	}
	post := rec.TokenPostBalances[0]
	if post.Owner != testPayer || post.Mint != testMint || post.Decimals != 6 {
		t.Errorf("Unexpected post token balance: %+v", post)
	}
	amt, err := post.Amount()
	if err != nil || amt.String() != "1234.5" {
		t.Errorf("Expected amount 1234.5, got %s (%v)", amt, err)
	}
}

func TestJSONRPCNormalizer_PlainKeysUseHeader(t *testing.T) {
	payload := `{
		"slot": 5,
		"blockTime": 100,
		"meta": {"err": null, "preBalances": [10, 20, 30], "postBalances": [5, 20, 30]},
		"transaction": {
			"signatures": ["s"],
			"message": {
				"header": {"numRequiredSignatures": 2},
				"accountKeys": ["A", "B", "C"]
			}
		}
	}`

	rec, err := NewJSONRPCNormalizer().Normalize("s", json.RawMessage(payload))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	want := []bool{true, true, false}
	for i, k := range rec.AccountKeys {
		if k.Signer != want[i] {
			t.Errorf("Key %d (%s): expected signer=%v, got %v", i, k.Address, want[i], k.Signer)
		}
	}
	if rec.TokenPreBalances == nil || rec.TokenPostBalances == nil {
		t.Error("Expected absent token balance arrays to normalize to empty slices")
	}
}

func TestJSONRPCNormalizer_PlainKeysWithoutHeader(t *testing.T) {
	payload := `{
		"meta": {"preBalances": [1, 2], "postBalances": [1, 2]},
		"transaction": {"message": {"accountKeys": ["A", "B"]}}
	}`

	rec, err := NewJSONRPCNormalizer().Normalize("s", json.RawMessage(payload))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !rec.AccountKeys[0].Signer || rec.AccountKeys[1].Signer {
		t.Errorf("Expected only fee payer to be a signer, got %+v", rec.AccountKeys)
	}
	if rec.HasBlockTime() {
		t.Error("Expected no block time")
	}
}

func TestJSONRPCNormalizer_FailedTransaction(t *testing.T) {
	p := stub.BuyPayload{Signature: "f", Payer: testPayer, Mint: testMint, Failed: true}

	rec, err := NewJSONRPCNormalizer().Normalize("f", mustJSON(t, p.Map()))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !rec.Failed {
		t.Error("Expected failed transaction")
	}
}

func TestJSONRPCNormalizer_LoadedAddresses(t *testing.T) {
	payload := `{
		"meta": {
			"preBalances": [1, 2, 3, 4],
			"postBalances": [1, 2, 3, 4],
			"loadedAddresses": {"writable": ["W"], "readonly": ["R"]}
		},
		"transaction": {"message": {"accountKeys": ["A", "B"]}}
	}`

	rec, err := NewJSONRPCNormalizer().Normalize("s", json.RawMessage(payload))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(rec.AccountKeys) != 4 {
		t.Fatalf("Expected 4 account keys, got %d", len(rec.AccountKeys))
	}
	if rec.AccountKeys[2].Address != "W" || rec.AccountKeys[3].Address != "R" {
		t.Errorf("Expected loaded addresses appended in order, got %+v", rec.AccountKeys)
	}
}

func TestJSONRPCNormalizer_MissingTokenAmount(t *testing.T) {
	payload := `{
		"meta": {
			"preBalances": [1], "postBalances": [1],
			"postTokenBalances": [{"accountIndex": 0, "mint": "M", "owner": "A"}]
		},
		"transaction": {"message": {"accountKeys": ["A"]}}
	}`

	rec, err := NewJSONRPCNormalizer().Normalize("s", json.RawMessage(payload))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	amt, err := rec.TokenPostBalances[0].Amount()
	if err != nil {
		t.Fatalf("Amount failed: %v", err)
	}
	if !amt.IsZero() {
		t.Errorf("Expected zero amount, got %s", amt)
	}
}

func TestJSONRPCNormalizer_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ``},
		{"null", `null`},
		{"not json", `{"meta":`},
		{"missing meta", `{"transaction": {"message": {"accountKeys": ["A"]}}}`},
		{"missing account keys", `{"meta": {"preBalances": [1], "postBalances": [1]}, "transaction": {"message": {}}}`},
		{"missing transaction", `{"meta": {"preBalances": [1], "postBalances": [1]}}`},
		{"missing pre balances", `{"meta": {"postBalances": [1]}, "transaction": {"message": {"accountKeys": ["A"]}}}`},
		{"missing post balances", `{"meta": {"preBalances": [1]}, "transaction": {"message": {"accountKeys": ["A"]}}}`},
	}

	n := NewJSONRPCNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize("bad", json.RawMessage(tt.payload))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestJSONRPCNormalizer_EmptyAccountKeysIsNotMalformed(t *testing.T) {
	payload := `{"meta": {"preBalances": [], "postBalances": []}, "transaction": {"message": {"accountKeys": []}}}`

	rec, err := NewJSONRPCNormalizer().Normalize("s", json.RawMessage(payload))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(rec.AccountKeys) != 0 {
		t.Errorf("Expected no account keys, got %d", len(rec.AccountKeys))
	}
}
