package calculator

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// party is one side of the matching loop with the amount still to settle.
type party struct {
	userID    string
	remaining decimal.Decimal
}

// byRemainingDesc orders parties largest first, breaking ties by ascending user ID so the
// output is deterministic for equal amounts.
func byRemainingDesc(a, b party) int {
	if c := b.remaining.Cmp(a.remaining); c != 0 {
		return c
	}
	return strings.Compare(a.userID, b.userID)
}

// Simplify turns net positions into settling payments using greedy min-cash-flow matching:
// the largest remaining debtor pays the largest remaining creditor as much as both allow,
// until one side runs out. Positions within one cent of zero are ignored.
//
// Every iteration exhausts at least one party, so at most creditors+debtors-1 suggestions
// are returned. This is a heuristic, not a proven minimum.
func Simplify(netPositions map[string]decimal.Decimal) []models.SettlementSuggestion {
	var creditors, debtors []party
	for userID, balance := range netPositions {
		switch {
		case balance.GreaterThan(money.Tolerance):
			creditors = append(creditors, party{userID: userID, remaining: balance})
		case balance.LessThan(money.Tolerance.Neg()):
			debtors = append(debtors, party{userID: userID, remaining: balance.Neg()})
		}
	}

	slices.SortFunc(creditors, byRemainingDesc)
	slices.SortFunc(debtors, byRemainingDesc)

	var settlements []models.SettlementSuggestion
	for len(creditors) > 0 && len(debtors) > 0 {
		creditor, debtor := &creditors[0], &debtors[0]

		transfer := decimal.Min(creditor.remaining, debtor.remaining)
		if transfer.GreaterThan(money.Tolerance) {
			settlements = append(settlements, models.SettlementSuggestion{
				FromUserID: debtor.userID,
				ToUserID:   creditor.userID,
				Amount:     transfer,
			})
		}

		creditor.remaining = creditor.remaining.Sub(transfer)
		debtor.remaining = debtor.remaining.Sub(transfer)

		if creditor.remaining.LessThan(money.Tolerance) {
			creditors = creditors[1:]
		}
		if debtor.remaining.LessThan(money.Tolerance) {
			debtors = debtors[1:]
		}
	}

	return settlements
}

// CountSignificant returns how many positions are more than one cent away from zero.
// This is the "before simplification" transaction count shown to users.
func CountSignificant(netPositions map[string]decimal.Decimal) int {
	n := 0
	for _, balance := range netPositions {
		if money.Significant(balance) {
			n++
		}
	}
	return n
}
