package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeBuyEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(group_id|token|tx_id|wallet)
// Returns hex-encoded hash (64 characters).
func ComputeBuyEventID(groupID, token, txID, wallet string) string {
	data := fmt.Sprintf("%s|%s|%s|%s", groupID, token, txID, wallet)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
