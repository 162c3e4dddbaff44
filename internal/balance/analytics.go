package balance

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/storage"
)

// ErrInvalidPeriod is returned for a period other than 7d, 30d, 3m or 1y.
var ErrInvalidPeriod = errors.New("invalid analytics period")

// Period is a trailing window of days ending today.
type Period string

const (
	PeriodWeek    Period = "7d"
	PeriodMonth   Period = "30d"
	PeriodQuarter Period = "3m"
	PeriodYear    Period = "1y"
)

var periodDays = map[Period]int{
	PeriodWeek:    7,
	PeriodMonth:   30,
	PeriodQuarter: 90,
	PeriodYear:    365,
}

// ParsePeriod validates s. The empty string is PeriodMonth.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return PeriodMonth, nil
	}
	p := Period(s)
	if _, ok := periodDays[p]; !ok {
		return "", fmt.Errorf("%w: %q (want 7d, 30d, 3m or 1y)", ErrInvalidPeriod, s)
	}
	return p, nil
}

// Range returns the inclusive calendar-day window of p ending on today's UTC date.
func (p Period) Range(today time.Time) storage.DateRange {
	y, m, d := today.UTC().Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return storage.DateRange{From: end.AddDate(0, 0, 1-periodDays[p]), To: end}
}

// CategorySpending is the spending under one category within the period.
type CategorySpending struct {
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
	Percentage   decimal.Decimal `json:"percentage"`
	ExpenseCount int             `json:"expense_count"`
}

// SpendingPoint is the spending recorded on one day.
type SpendingPoint struct {
	Date         string          `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	ExpenseCount int             `json:"expense_count"`
}

// MemberContribution compares what a member paid with what they consumed.
type MemberContribution struct {
	UserID          string          `json:"user_id"`
	UserName        string          `json:"user_name"`
	ProfilePicture  string          `json:"profile_picture,omitempty"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	TotalShare      decimal.Decimal `json:"total_share"`
	NetContribution decimal.Decimal `json:"net_contribution"`
}

// FriendSpending is the spending shared with one friend within the period.
type FriendSpending struct {
	FriendID       string          `json:"friend_id"`
	FriendName     string          `json:"friend_name"`
	ProfilePicture string          `json:"profile_picture,omitempty"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	ExpenseCount   int             `json:"expense_count"`
}

// SpendingReport holds the figures shared by group and friends analytics.
type SpendingReport struct {
	Period            Period             `json:"period"`
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	TotalSpending     decimal.Decimal    `json:"total_spending"`
	ExpenseCount      int                `json:"expense_count"`
	AverageExpense    decimal.Decimal    `json:"average_expense"`
	TopCategory       string             `json:"top_category,omitempty"`
	CategoryBreakdown []CategorySpending `json:"category_breakdown"`
	SpendingOverTime  []SpendingPoint    `json:"spending_over_time"`
}

// GroupAnalytics is the spending report of one group.
type GroupAnalytics struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	SpendingReport
	MemberContributions []MemberContribution `json:"member_contributions"`
}

// FriendsAnalytics is the spending report across the viewer's friend groups.
type FriendsAnalytics struct {
	SpendingReport
	FriendBreakdown []FriendSpending `json:"friend_breakdown"`
}

func newReport(period Period, dates storage.DateRange, spending calculator.Spending) SpendingReport {
	r := SpendingReport{
		Period:            period,
		StartDate:         dates.From.Format(time.DateOnly),
		EndDate:           dates.To.Format(time.DateOnly),
		TotalSpending:     spending.Total,
		ExpenseCount:      spending.ExpenseCount,
		AverageExpense:    calculator.Average(spending.Total, spending.ExpenseCount),
		CategoryBreakdown: make([]CategorySpending, 0, len(spending.Categories)),
		SpendingOverTime:  make([]SpendingPoint, 0, len(spending.Daily)),
	}
	for _, c := range spending.Categories {
		r.CategoryBreakdown = append(r.CategoryBreakdown, CategorySpending{
			Category:     c.Category,
			Amount:       c.Amount,
			Percentage:   calculator.Percentage(c.Amount, spending.Total),
			ExpenseCount: c.ExpenseCount,
		})
	}
	if len(r.CategoryBreakdown) > 0 {
		r.TopCategory = r.CategoryBreakdown[0].Category
	}
	for _, d := range spending.Daily {
		r.SpendingOverTime = append(r.SpendingOverTime, SpendingPoint{
			Date:         d.Date.Format(time.DateOnly),
			Amount:       d.Amount,
			ExpenseCount: d.ExpenseCount,
		})
	}
	return r
}

// GroupAnalytics reports the group's spending over the trailing period. Only members
// who paid for or shared in an expense appear in the contributions.
func (s *Service) GroupAnalytics(ctx context.Context, viewerID, groupID string, period Period) (*GroupAnalytics, error) {
	defer s.observe("group_analytics", time.Now())

	period, err := ParsePeriod(string(period))
	if err != nil {
		return nil, err
	}

	group, err := s.authorize(ctx, viewerID, groupID)
	if err != nil {
		return nil, err
	}
	dates := period.Range(s.now())

	snap, err := s.snapshot(ctx, group.ID, dates)
	if err != nil {
		return nil, err
	}
	spending := calculator.SummarizeSpending(snap)

	members, err := s.ledger.ListActiveMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	users, err := s.users(ctx, members)
	if err != nil {
		return nil, err
	}

	contributions := make([]MemberContribution, 0, len(members))
	for _, id := range members {
		u, ok := users[id]
		if !ok {
			continue
		}
		paid, share := spending.Paid[id], spending.Share[id]
		if !paid.IsPositive() && !share.IsPositive() {
			continue
		}
		contributions = append(contributions, MemberContribution{
			UserID:          id,
			UserName:        u.Name,
			ProfilePicture:  u.ProfilePicture,
			TotalPaid:       paid,
			TotalShare:      share,
			NetContribution: paid.Sub(share),
		})
	}
	slices.SortFunc(contributions, func(a, b MemberContribution) int {
		return cmp.Or(b.TotalPaid.Cmp(a.TotalPaid), cmp.Compare(a.UserName, b.UserName), cmp.Compare(a.UserID, b.UserID))
	})

	return &GroupAnalytics{
		GroupID:             group.ID,
		GroupName:           group.Name,
		SpendingReport:      newReport(period, dates, spending),
		MemberContributions: contributions,
	}, nil
}

// FriendsAnalytics reports spending across every friend group of the viewer over the
// trailing period. Spending with the same friend in several friend groups is merged.
func (s *Service) FriendsAnalytics(ctx context.Context, viewerID string, period Period) (*FriendsAnalytics, error) {
	defer s.observe("friends_analytics", time.Now())

	period, err := ParsePeriod(string(period))
	if err != nil {
		return nil, err
	}
	dates := period.Range(s.now())
	groups, err := s.ledger.ListUserGroups(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		combined calculator.Snapshot
		perGroup = map[string]calculator.Spending{}
		friendOf = map[string]string{}
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
			snap, err := s.snapshot(gctx, group.ID, dates)
			if err != nil {
				return err
			}
			spending := calculator.SummarizeSpending(snap)

			mu.Lock()
			defer mu.Unlock()
			combined.Expenses = append(combined.Expenses, snap.Expenses...)
			combined.Splits = append(combined.Splits, snap.Splits...)
			perGroup[group.ID] = spending
			if i := slices.IndexFunc(members, func(m string) bool { return m != viewerID }); i >= 0 {
				friendOf[group.ID] = members[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	users, err := s.users(ctx, slices.Collect(maps.Values(friendOf)))
	if err != nil {
		return nil, err
	}

	byFriend := map[string]*FriendSpending{}
	for groupID, spending := range perGroup {
		if spending.ExpenseCount == 0 {
			continue
		}
		u, ok := users[friendOf[groupID]]
		if !ok {
			continue
		}
		f, ok := byFriend[u.ID]
		if !ok {
			f = &FriendSpending{FriendID: u.ID, FriendName: u.Name, ProfilePicture: u.ProfilePicture}
			byFriend[u.ID] = f
		}
		f.TotalSpent = f.TotalSpent.Add(spending.Total)
		f.ExpenseCount += spending.ExpenseCount
	}

	breakdown := make([]FriendSpending, 0, len(byFriend))
	for _, f := range byFriend {
		breakdown = append(breakdown, *f)
	}
	slices.SortFunc(breakdown, func(a, b FriendSpending) int {
		return cmp.Or(b.TotalSpent.Cmp(a.TotalSpent), cmp.Compare(a.FriendName, b.FriendName), cmp.Compare(a.FriendID, b.FriendID))
	})

	return &FriendsAnalytics{
		SpendingReport:  newReport(period, dates, calculator.SummarizeSpending(combined)),
		FriendBreakdown: breakdown,
	}, nil
}
