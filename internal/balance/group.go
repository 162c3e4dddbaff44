package balance

import (
	"context"
	"maps"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// GroupBalance returns the viewer's balances inside one group. Expenses outside dates are
// ignored; a zero DateRange covers everything.
func (s *Service) GroupBalance(ctx context.Context, viewerID, groupID string, dates storage.DateRange) (*GroupSummary, error) {
	defer s.observe("group", time.Now())

	group, err := s.authorize(ctx, viewerID, groupID)
	if err != nil {
		return nil, err
	}
	summary, err := s.groupSummary(ctx, viewerID, *group, dates)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Service) groupSummary(ctx context.Context, viewerID string, group models.Group, dates storage.DateRange) (GroupSummary, error) {
	snap, err := s.snapshot(ctx, group.ID, dates)
	if err != nil {
		return GroupSummary{}, err
	}
	raw := calculator.ComputeGroupBalances(snap, viewerID)

	users, err := s.users(ctx, slices.Collect(maps.Keys(raw)))
	if err != nil {
		return GroupSummary{}, err
	}
	balances, totals := displayBalances(raw, users)

	return GroupSummary{
		GroupID:       group.ID,
		GroupName:     group.Name,
		IsFriendGroup: group.IsFriendGroup,
		Totals:        totals,
		Balances:      balances,
	}, nil
}

// Overview returns the viewer's balances across all their active groups. Groups where the
// viewer is fully settled are left out of the listing.
func (s *Service) Overview(ctx context.Context, viewerID string) (*Overview, error) {
	defer s.observe("overview", time.Now())

	groups, err := s.ledger.ListUserGroups(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.fanOut(ctx, groups, func(ctx context.Context, g models.Group) (GroupSummary, error) {
		return s.groupSummary(ctx, viewerID, g, storage.DateRange{})
	})
	if err != nil {
		return nil, err
	}

	overview := &Overview{}
	for _, summary := range summaries {
		if len(summary.Balances) == 0 {
			continue
		}
		for _, b := range summary.Balances {
			overview.add(b.Balance)
		}
		overview.Groups = append(overview.Groups, summary)
	}
	return overview, nil
}

// fanOut runs fn for every group with bounded concurrency and returns results in input order.
func (s *Service) fanOut(ctx context.Context, groups []models.Group, fn func(context.Context, models.Group) (GroupSummary, error)) ([]GroupSummary, error) {
	results := make([]GroupSummary, len(groups))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for i, group := range groups {
		g.Go(func() error {
			summary, err := fn(ctx, group)
			if err != nil {
				return err
			}
			results[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
