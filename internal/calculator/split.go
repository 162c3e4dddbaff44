package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

var (
	ErrNonPositiveAmount    = errors.New("expense amount must be positive")
	ErrNoParticipants       = errors.New("must have at least one participant")
	ErrDuplicateParticipant = errors.New("participant listed more than once")
	ErrSplitMismatch        = errors.New("split amounts don't equal expense amount")
	ErrInvalidSplitAmount   = errors.New("split amount must be non-negative with at most two decimals")
	ErrPercentageMismatch   = errors.New("percentages don't equal 100")
	ErrUnknownSplitType     = errors.New("invalid split type")
)

var hundred = decimal.NewFromInt(100)

// SplitInput describes one participant of an expense. Which field matters depends on the
// split type: Amount for exact splits, Shares for share splits, Percentage for percentage
// splits. Equal splits only use UserID.
type SplitInput struct {
	UserID     string
	Amount     decimal.Decimal
	Shares     int64
	Percentage decimal.Decimal
}

// CalculateSplits derives the per-participant splits of an expense.
// Computed shares are rounded down to the cent and the leftover cents are handed out in
// participant order, so the result always sums exactly to amount.
func CalculateSplits(amount decimal.Decimal, splitType models.SplitType, inputs []SplitInput) ([]models.ExpenseSplit, error) {
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	if len(inputs) == 0 {
		return nil, ErrNoParticipants
	}
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if in.UserID == "" {
			return nil, fmt.Errorf("%w: empty user id", ErrNoParticipants)
		}
		if seen[in.UserID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, in.UserID)
		}
		seen[in.UserID] = true
	}

	splits := make([]models.ExpenseSplit, len(inputs))
	for i, in := range inputs {
		splits[i] = models.ExpenseSplit{UserID: in.UserID}
	}

	weights := make([]decimal.Decimal, len(inputs))
	switch splitType {
	case models.SplitEqual:
		for i := range inputs {
			weights[i] = decimal.NewFromInt(1)
		}

	case models.SplitExact:
		total := decimal.Zero
		for i, in := range inputs {
			if in.Amount.IsNegative() || !in.Amount.Equal(in.Amount.Round(money.Places)) {
				return nil, fmt.Errorf("%w: %s for %s", ErrInvalidSplitAmount, in.Amount, in.UserID)
			}
			splits[i].Amount = in.Amount
			total = total.Add(in.Amount)
		}
		if money.Significant(total.Sub(amount)) {
			return nil, fmt.Errorf("%w: splits %s, expense %s", ErrSplitMismatch, total, amount)
		}
		return splits, nil

	case models.SplitShares:
		for i, in := range inputs {
			shares := in.Shares
			if shares <= 0 {
				shares = 1
			}
			splits[i].Shares = shares
			weights[i] = decimal.NewFromInt(shares)
		}

	case models.SplitPercentage:
		total := decimal.Zero
		for i, in := range inputs {
			splits[i].Percentage = in.Percentage
			weights[i] = in.Percentage
			total = total.Add(in.Percentage)
		}
		if money.Significant(total.Sub(hundred)) {
			return nil, fmt.Errorf("%w: got %s", ErrPercentageMismatch, total)
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSplitType, splitType)
	}

	shares, err := money.Allocate(amount, weights)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate split: %w", err)
	}
	for i := range splits {
		splits[i].Amount = shares[i]
	}
	return splits, nil
}
