package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Snapshot is a consistent, in-memory view of one group's ledger.
// The caller is responsible for reading it in a single consistent batch.
type Snapshot struct {
	Expenses []models.Expense
	Splits   []models.ExpenseSplit
	Payments []models.Payment
}

// liveExpenses indexes the non-deleted expenses of the snapshot by ID.
func (s Snapshot) liveExpenses() map[string]models.Expense {
	live := make(map[string]models.Expense, len(s.Expenses))
	for _, e := range s.Expenses {
		if e.IsDeleted {
			continue
		}
		live[e.ID] = e
	}
	return live
}

// ComputeGroupBalances returns subject's signed balance against every counterparty in the
// snapshot. A positive value means the counterparty owes subject; negative means subject
// owes the counterparty.
//
// Algorithm:
//   - subject paid an expense: every other participant owes subject their split
//   - someone else paid and subject has a split: subject owes the payer that split
//   - confirmed payment from subject: moves the balance towards subject (+amount)
//   - confirmed payment to subject: moves it away (-amount)
//
// The steps are plain sums, so input order never matters. Counterparties that net to zero
// stay in the result; display layers prune them.
func ComputeGroupBalances(snap Snapshot, subjectUserID string) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	live := snap.liveExpenses()

	for _, split := range snap.Splits {
		expense, ok := live[split.ExpenseID]
		if !ok {
			continue
		}
		switch {
		case expense.PayerID == subjectUserID && split.UserID != subjectUserID:
			balances[split.UserID] = balances[split.UserID].Add(split.Amount)
		case expense.PayerID != subjectUserID && split.UserID == subjectUserID:
			balances[expense.PayerID] = balances[expense.PayerID].Sub(split.Amount)
		}
	}

	for _, p := range snap.Payments {
		if p.Status != models.PaymentConfirmed {
			continue
		}
		switch subjectUserID {
		case p.PayerID:
			balances[p.ReceiverID] = balances[p.ReceiverID].Add(p.Amount)
		case p.ReceiverID:
			balances[p.PayerID] = balances[p.PayerID].Sub(p.Amount)
		}
	}

	return balances
}

// ComputeGroupNetPositions collapses the whole group into one signed number per user:
// positive means the group owes the user, negative means the user owes the group.
// The values always sum to zero.
func ComputeGroupNetPositions(snap Snapshot) map[string]decimal.Decimal {
	positions := make(map[string]decimal.Decimal)
	live := snap.liveExpenses()

	for _, split := range snap.Splits {
		expense, ok := live[split.ExpenseID]
		if !ok || expense.PayerID == split.UserID {
			continue
		}
		positions[expense.PayerID] = positions[expense.PayerID].Add(split.Amount)
		positions[split.UserID] = positions[split.UserID].Sub(split.Amount)
	}

	for _, p := range snap.Payments {
		if p.Status != models.PaymentConfirmed {
			continue
		}
		positions[p.PayerID] = positions[p.PayerID].Add(p.Amount)
		positions[p.ReceiverID] = positions[p.ReceiverID].Sub(p.Amount)
	}

	return positions
}
