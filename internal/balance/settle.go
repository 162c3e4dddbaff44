package balance

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// SettlementPlan returns the simplified payments that would settle the group.
func (s *Service) SettlementPlan(ctx context.Context, viewerID, groupID string) (*SettlementPlan, error) {
	defer s.observe("settlement", time.Now())

	group, err := s.authorize(ctx, viewerID, groupID)
	if err != nil {
		return nil, err
	}
	net, suggestions, users, err := s.simplify(ctx, groupID)
	if err != nil {
		return nil, err
	}

	plan := &SettlementPlan{
		GroupID:                    groupID,
		GroupName:                  group.Name,
		Suggestions:                named(suggestions, users),
		OriginalTransactionCount:   calculator.CountSignificant(net),
		SimplifiedTransactionCount: len(suggestions),
	}
	plan.TransactionsSaved = max(0, plan.OriginalTransactionCount-plan.SimplifiedTransactionCount)
	s.metrics.ObserveSimplification(len(suggestions), plan.TransactionsSaved)
	return plan, nil
}

// Simplification returns the group's significant net positions alongside the
// simplified payments.
func (s *Service) Simplification(ctx context.Context, viewerID, groupID string) (*Simplification, error) {
	defer s.observe("simplification", time.Now())

	group, err := s.authorize(ctx, viewerID, groupID)
	if err != nil {
		return nil, err
	}
	net, suggestions, users, err := s.simplify(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var original []NetPosition
	for userID, b := range net {
		if !money.Significant(b) {
			continue
		}
		original = append(original, NetPosition{UserID: userID, UserName: nameOf(users, userID), Balance: b})
	}
	// Largest creditor first, largest debtor last.
	slices.SortFunc(original, func(a, b NetPosition) int {
		return cmp.Or(b.Balance.Cmp(a.Balance), cmp.Compare(a.UserID, b.UserID))
	})

	result := &Simplification{
		GroupID:           groupID,
		GroupName:         group.Name,
		OriginalDebts:     original,
		SimplifiedDebts:   named(suggestions, users),
		TransactionsSaved: max(0, len(original)-len(suggestions)),
	}
	s.metrics.ObserveSimplification(len(suggestions), result.TransactionsSaved)
	return result, nil
}

func (s *Service) simplify(ctx context.Context, groupID string) (map[string]decimal.Decimal, []models.SettlementSuggestion, map[string]*models.User, error) {
	snap, err := s.snapshot(ctx, groupID, storage.DateRange{})
	if err != nil {
		return nil, nil, nil, err
	}
	net := calculator.ComputeGroupNetPositions(snap)
	suggestions := calculator.Simplify(net)

	users, err := s.users(ctx, slices.Collect(maps.Keys(net)))
	if err != nil {
		return nil, nil, nil, err
	}
	return net, suggestions, users, nil
}

func nameOf(users map[string]*models.User, userID string) string {
	if u, ok := users[userID]; ok {
		return u.Name
	}
	return ""
}

func named(suggestions []models.SettlementSuggestion, users map[string]*models.User) []Settlement {
	out := make([]Settlement, len(suggestions))
	for i, sg := range suggestions {
		out[i] = Settlement{
			FromUserID:   sg.FromUserID,
			FromUserName: nameOf(users, sg.FromUserID),
			ToUserID:     sg.ToUserID,
			ToUserName:   nameOf(users, sg.ToUserID),
			Amount:       sg.Amount,
		}
	}
	return out
}
