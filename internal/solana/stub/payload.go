package stub

// BuyPayload describes a synthetic jsonParsed getTransaction result in which
// Payer pays lamports and (optionally) receives Mint tokens.
type BuyPayload struct {
	Signature    string
	Payer        string
	Mint         string
	BlockTime    int64
	NoBlockTime  bool
	PreLamports  uint64
	PostLamports uint64

	// Token amounts as decimal strings. Empty means no balance entry.
	PreTokens  string
	PostTokens string

	Failed   bool
	Programs []string
}

const stubTokenAccount = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

// Map renders the payload in the jsonParsed encoding shape.
func (p BuyPayload) Map() map[string]interface{} {
	keys := []interface{}{
		map[string]interface{}{"pubkey": p.Payer, "signer": true, "writable": true, "source": "transaction"},
		map[string]interface{}{"pubkey": stubTokenAccount, "signer": false, "writable": true, "source": "transaction"},
	}
	for _, prog := range p.Programs {
		keys = append(keys, map[string]interface{}{"pubkey": prog, "signer": false, "writable": false, "source": "transaction"})
	}

	pre := make([]uint64, len(keys))
	post := make([]uint64, len(keys))
	pre[0] = p.PreLamports
	post[0] = p.PostLamports

	var errField interface{}
	if p.Failed {
		errField = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}
	}

	result := map[string]interface{}{
		"slot": 1000,
		"meta": map[string]interface{}{
			"err":               errField,
			"fee":               5000,
			"preBalances":       pre,
			"postBalances":      post,
			"preTokenBalances":  p.tokenBalances(p.PreTokens),
			"postTokenBalances": p.tokenBalances(p.PostTokens),
			"logMessages":       []string{},
		},
		"transaction": map[string]interface{}{
			"signatures": []string{p.Signature},
			"message": map[string]interface{}{
				"accountKeys": keys,
			},
		},
	}
	if !p.NoBlockTime {
		result["blockTime"] = p.BlockTime
	}
	return result
}

func (p BuyPayload) tokenBalances(amount string) []interface{} {
	if amount == "" {
		return []interface{}{}
	}
	return []interface{}{
		map[string]interface{}{
			"accountIndex": 1,
			"mint":         p.Mint,
			"owner":        p.Payer,
			"uiTokenAmount": map[string]interface{}{
				"uiAmountString": amount,
				"decimals":       6,
			},
		},
	}
}

// AddBuy stores p under its signature.
func (c *RPCClient) AddBuy(p BuyPayload) error {
	return c.AddTransaction(p.Signature, p.Map())
}
