package balance

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// FriendBalance is the viewer's balance with one friend, summed over every friend group
// the two share.
type FriendBalance struct {
	UserBalance
	FriendGroupIDs []string `json:"friend_group_ids"`
}

// Friends lists every friend with their merged balance. Settled friends are included
// with a zero balance.
type Friends struct {
	Totals
	Friends []FriendBalance `json:"friends"`
}

// FriendBalances computes the viewer's balance with each friend across all friend groups.
func (s *Service) FriendBalances(ctx context.Context, viewerID string) (*Friends, error) {
	defer s.observe("friends", time.Now())

	groups, err := s.ledger.ListUserGroups(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		balances = map[string]decimal.Decimal{}
		groupIDs = map[string][]string{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for _, group := range groups {
		if !group.IsFriendGroup {
			continue
		}
		g.Go(func() error {
			members, err := s.ledger.ListActiveMembers(gctx, group.ID)
			if err != nil {
				return fmt.Errorf("failed to list members: %w", err)
			}
			snap, err := s.snapshot(gctx, group.ID, storage.DateRange{})
			if err != nil {
				return err
			}
			raw := calculator.ComputeGroupBalances(snap, viewerID)
			for _, m := range members {
				if _, ok := raw[m]; !ok && m != viewerID {
					raw[m] = decimal.Zero
				}
			}

			mu.Lock()
			defer mu.Unlock()
			for userID, b := range raw {
				balances[userID] = balances[userID].Add(b)
				groupIDs[userID] = append(groupIDs[userID], group.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	users, err := s.users(ctx, slices.Collect(maps.Keys(balances)))
	if err != nil {
		return nil, err
	}

	result := &Friends{}
	for userID, b := range balances {
		u, ok := users[userID]
		if !ok {
			continue
		}
		if money.Negligible(b) {
			b = decimal.Zero
		} else {
			result.add(b)
		}
		ids := groupIDs[userID]
		slices.Sort(ids)
		result.Friends = append(result.Friends, FriendBalance{
			UserBalance: UserBalance{
				UserID:         userID,
				UserName:       u.Name,
				UserEmail:      u.Email,
				ProfilePicture: u.ProfilePicture,
				Balance:        b,
			},
			FriendGroupIDs: ids,
		})
	}
	slices.SortFunc(result.Friends, func(a, b FriendBalance) int {
		return compareBalances(a.UserBalance, b.UserBalance)
	})
	return result, nil
}
