package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SplitType names the rule used to derive an expense's splits.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitExact      SplitType = "exact"
	SplitShares     SplitType = "shares"
	SplitPercentage SplitType = "percentage"
)

// Expense represents one shared cost paid by a single member.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group the expense belongs to.
	GroupID string

	// Description is a short human-readable label (e.g., "Groceries").
	Description string

	// Category is a free-form spending category (e.g., "food"). Empty means uncategorized.
	Category string

	// Amount is the total cost. Always positive.
	Amount decimal.Decimal

	// PayerID is the member who paid the full amount.
	PayerID string

	// SplitType records how the splits were derived. Informational for the engine.
	SplitType SplitType

	// Date is the calendar day of the expense.
	Date time.Time

	// IsDeleted marks a soft-deleted expense. Deleted expenses never affect balances.
	IsDeleted bool

	// CreatedBy is the user who recorded the expense.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// ExpenseSplit is one participant's share of an expense.
// For a given expense the split amounts sum to the expense amount.
type ExpenseSplit struct {
	ExpenseID string
	UserID    string
	Amount    decimal.Decimal

	// Shares is set for share-based splits, zero otherwise.
	Shares int64

	// Percentage is set for percentage splits, zero otherwise.
	Percentage decimal.Decimal
}
