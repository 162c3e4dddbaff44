package models

import "github.com/shopspring/decimal"

// SettlementSuggestion is a single payment that, if made, reduces net debt in a group.
type SettlementSuggestion struct {
	// FromUserID is the debtor who should pay.
	FromUserID string

	// ToUserID is the creditor who should receive.
	ToUserID string

	// Amount is the suggested transfer. Always greater than one cent.
	Amount decimal.Decimal
}
