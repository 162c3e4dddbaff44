package balance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// spend records a categorized expense split equally between owers.
func (f *fixture) spend(groupID, payer, amount, date, category string, owers ...string) {
	d, err := time.Parse(time.DateOnly, date)
	require.NoError(f.t, err)
	share := dec(amount).Div(decimal.NewFromInt(int64(len(owers))))
	splits := make([]models.ExpenseSplit, len(owers))
	for i, u := range owers {
		splits[i] = models.ExpenseSplit{UserID: u, Amount: share}
	}
	e := &models.Expense{
		GroupID:   groupID,
		Category:  category,
		Amount:    dec(amount),
		PayerID:   payer,
		SplitType: models.SplitEqual,
		Date:      d,
	}
	require.NoError(f.t, f.store.CreateExpense(f.ctx, e, splits))
}

func fixedClock(date string) Option {
	return WithClock(func() time.Time {
		t, _ := time.Parse(time.DateOnly, date)
		return t.Add(15 * time.Hour)
	})
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodMonth, false},
		{"7d", PeriodWeek, false},
		{"3m", PeriodQuarter, false},
		{"1y", PeriodYear, false},
		{"2w", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPeriod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriodRange(t *testing.T) {
	today := time.Date(2024, 3, 31, 22, 0, 0, 0, time.UTC)
	tests := []struct {
		period Period
		from   string
	}{
		{PeriodWeek, "2024-03-25"},
		{PeriodMonth, "2024-03-02"},
		{PeriodQuarter, "2024-01-02"},
		{PeriodYear, "2023-04-02"},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			r := tt.period.Range(today)
			assert.Equal(t, tt.from, r.From.Format(time.DateOnly))
			assert.Equal(t, "2024-03-31", r.To.Format(time.DateOnly))
		})
	}
}

func TestGroupAnalytics(t *testing.T) {
	f := newFixture(t, "x", "y", "z", "w")
	f.group("g1", false, "x", "y", "z", "w")
	f.spend("g1", "x", "90", "2024-03-30", "food", "x", "y", "z")
	f.spend("g1", "y", "30", "2024-03-30", "", "x", "y")
	f.spend("g1", "z", "60", "2024-03-25", "travel", "y", "z")
	f.spend("g1", "x", "500", "2024-02-01", "rent", "x", "y")
	f.payment("g1", "y", "x", "30", models.PaymentConfirmed)

	svc := NewService(f.store, fixedClock("2024-03-31"))

	t.Run("week", func(t *testing.T) {
		got, err := svc.GroupAnalytics(f.ctx, "y", "g1", PeriodWeek)
		require.NoError(t, err)

		assert.Equal(t, "Group g1", got.GroupName)
		assert.Equal(t, "2024-03-25", got.StartDate)
		assert.Equal(t, "2024-03-31", got.EndDate)
		assert.True(t, dec("180").Equal(got.TotalSpending))
		assert.Equal(t, 3, got.ExpenseCount)
		assert.True(t, dec("60").Equal(got.AverageExpense))
		assert.Equal(t, "food", got.TopCategory)

		require.Len(t, got.CategoryBreakdown, 3)
		assert.Equal(t, "travel", got.CategoryBreakdown[1].Category)
		assert.Equal(t, "Other", got.CategoryBreakdown[2].Category)
		assert.True(t, dec("50").Equal(got.CategoryBreakdown[0].Percentage))
		assert.True(t, dec("16.7").Equal(got.CategoryBreakdown[2].Percentage))

		require.Len(t, got.SpendingOverTime, 2)
		assert.Equal(t, "2024-03-25", got.SpendingOverTime[0].Date)
		assert.True(t, dec("120").Equal(got.SpendingOverTime[1].Amount))

		require.Len(t, got.MemberContributions, 3, "w has no activity")
		x := got.MemberContributions[0]
		assert.Equal(t, "x", x.UserID)
		assert.True(t, dec("90").Equal(x.TotalPaid))
		assert.True(t, dec("45").Equal(x.TotalShare))
		assert.True(t, dec("45").Equal(x.NetContribution))
		y := got.MemberContributions[2]
		assert.Equal(t, "y", y.UserID)
		assert.True(t, dec("75").Equal(y.TotalShare))
		assert.True(t, dec("-45").Equal(y.NetContribution))
	})

	t.Run("year includes older expenses", func(t *testing.T) {
		got, err := svc.GroupAnalytics(f.ctx, "x", "g1", PeriodYear)
		require.NoError(t, err)
		assert.True(t, dec("680").Equal(got.TotalSpending))
		assert.Equal(t, "rent", got.TopCategory)
	})

	t.Run("empty period", func(t *testing.T) {
		late := NewService(f.store, fixedClock("2025-01-01"))
		got, err := late.GroupAnalytics(f.ctx, "x", "g1", PeriodWeek)
		require.NoError(t, err)
		assert.True(t, got.TotalSpending.IsZero())
		assert.True(t, got.AverageExpense.IsZero())
		assert.Empty(t, got.TopCategory)
		assert.Empty(t, got.CategoryBreakdown)
		assert.Empty(t, got.MemberContributions)
	})

	t.Run("non-member", func(t *testing.T) {
		other := newFixture(t, "q")
		_, err := NewService(other.store).GroupAnalytics(f.ctx, "q", "g1", PeriodWeek)
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = svc.GroupAnalytics(f.ctx, "nobody", "g1", PeriodWeek)
		require.ErrorIs(t, err, ErrNotMember)
	})

	t.Run("invalid period", func(t *testing.T) {
		_, err := svc.GroupAnalytics(f.ctx, "x", "g1", "2w")
		require.ErrorIs(t, err, ErrInvalidPeriod)
	})
}

func TestFriendsAnalytics(t *testing.T) {
	f := newFixture(t, "me", "ann", "ben", "cat")
	f.group("f-ann", true, "me", "ann")
	f.group("f-ann-2", true, "ann", "me")
	f.group("f-ben", true, "me", "ben")
	f.group("f-cat", true, "me", "cat")
	f.group("trip", false, "me", "ann", "ben")

	f.spend("f-ann", "me", "20", "2024-03-29", "food", "me", "ann")
	f.spend("f-ann-2", "ann", "10", "2024-03-30", "food", "me", "ann")
	f.spend("f-ben", "ben", "50", "2024-03-30", "games", "me", "ben")
	f.spend("f-cat", "cat", "99", "2024-01-01", "food", "me", "cat")
	f.spend("trip", "me", "300", "2024-03-30", "travel", "me", "ann", "ben")

	svc := NewService(f.store, fixedClock("2024-03-31"))
	got, err := svc.FriendsAnalytics(f.ctx, "me", PeriodWeek)
	require.NoError(t, err)

	assert.True(t, dec("80").Equal(got.TotalSpending), "group expenses are not friend spending")
	assert.Equal(t, 3, got.ExpenseCount)
	assert.Equal(t, "games", got.TopCategory)
	require.Len(t, got.CategoryBreakdown, 2)
	assert.True(t, dec("37.5").Equal(got.CategoryBreakdown[1].Percentage))

	require.Len(t, got.FriendBreakdown, 2, "cat has no spending in the period")
	assert.Equal(t, "ben", got.FriendBreakdown[0].FriendID)
	assert.Equal(t, "ann", got.FriendBreakdown[1].FriendID)
	assert.True(t, dec("30").Equal(got.FriendBreakdown[1].TotalSpent))
	assert.Equal(t, 2, got.FriendBreakdown[1].ExpenseCount)

	t.Run("no friend groups", func(t *testing.T) {
		lonely := newFixture(t, "solo")
		got, err := NewService(lonely.store, fixedClock("2024-03-31")).FriendsAnalytics(lonely.ctx, "solo", "")
		require.NoError(t, err)
		assert.Equal(t, PeriodMonth, got.Period)
		assert.True(t, got.TotalSpending.Equal(decimal.Zero))
		assert.Empty(t, got.FriendBreakdown)
	})
}
