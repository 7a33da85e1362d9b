package domain

import "github.com/shopspring/decimal"

// BuyEvent is a transaction classified as the acting wallet acquiring the
// target token by spending native currency.
type BuyEvent struct {
	Wallet        string
	NativeSpent   decimal.Decimal
	TokenReceived decimal.Decimal
	TxID          string
	Timestamp     int64 // Unix seconds

	// Position is the index of the transaction in the original signature list.
	// It anchors first-seen order independent of fetch completion order.
	Position int
}
