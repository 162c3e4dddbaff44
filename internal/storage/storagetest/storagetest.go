// Package storagetest holds a behavioural suite shared by every storage.Store backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) storage.Store

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seed creates three users and a group holding all of them.
func seed(t *testing.T, ctx context.Context, s storage.Store) (alice, bob, carol *models.User, group *models.Group) {
	t.Helper()
	alice = models.NewUser("Alice", "alice@example.com")
	bob = models.NewUser("Bob", "bob@example.com")
	carol = models.NewUser("Carol", "carol@example.com")
	for _, u := range []*models.User{alice, bob, carol} {
		require.NoError(t, s.CreateUser(ctx, u))
		require.NotEmpty(t, u.ID)
	}
	group = &models.Group{Name: "Flat", CreatedBy: alice.ID}
	require.NoError(t, s.CreateGroup(ctx, group, []string{alice.ID, bob.ID, carol.ID}))
	require.NotEmpty(t, group.ID)
	return alice, bob, carol, group
}

func addExpense(t *testing.T, ctx context.Context, s storage.Store, groupID, payer, amount, date string, owers ...string) *models.Expense {
	t.Helper()
	e := &models.Expense{
		GroupID:     groupID,
		Description: "shared",
		Category:    "groceries",
		Amount:      dec(amount),
		PayerID:     payer,
		SplitType:   models.SplitExact,
		Date:        day(date),
		CreatedBy:   payer,
	}
	share := dec(amount).Div(decimal.NewFromInt(int64(len(owers))))
	splits := make([]models.ExpenseSplit, len(owers))
	for i, u := range owers {
		splits[i] = models.ExpenseSplit{UserID: u, Amount: share}
	}
	require.NoError(t, s.CreateExpense(ctx, e, splits))
	return e
}

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		defer s.Close()

		alice, bob, _, _ := seed(t, ctx, s)

		dup := models.NewUser("Alice Again", "alice@example.com")
		require.ErrorIs(t, s.CreateUser(ctx, dup), storage.ErrConflict)

		users, err := s.GetUsersByIDs(ctx, []string{alice.ID, bob.ID, "missing"})
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "Alice", users[alice.ID].Name)
		assert.Equal(t, "bob@example.com", users[bob.ID].Email)

		empty, err := s.GetUsersByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("groups and memberships", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		defer s.Close()

		alice, bob, carol, group := seed(t, ctx, s)

		got, err := s.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Flat", got.Name)
		assert.False(t, got.IsFriendGroup)

		_, err = s.GetGroup(ctx, "missing")
		require.ErrorIs(t, err, storage.ErrNotFound)

		members, err := s.ListActiveMembers(ctx, group.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{alice.ID, bob.ID, carol.ID}, members)

		ok, err := s.IsActiveMember(ctx, group.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.IsActiveMember(ctx, group.ID, "stranger")
		require.NoError(t, err)
		assert.False(t, ok)

		friends := &models.Group{Name: "Alice & Bob", CreatedBy: alice.ID, IsFriendGroup: true}
		require.NoError(t, s.CreateGroup(ctx, friends, []string{alice.ID, bob.ID}))

		groups, err := s.ListUserGroups(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, groups, 2)

		groups, err = s.ListUserGroups(ctx, carol.ID)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, group.ID, groups[0].ID)

		dan := models.NewUser("Dan", "dan@example.com")
		require.NoError(t, s.CreateUser(ctx, dan))
		require.NoError(t, s.AddMember(ctx, friends.ID, dan.ID, models.RoleMember))
		ok, err = s.IsActiveMember(ctx, friends.ID, dan.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		require.ErrorIs(t, s.AddMember(ctx, "missing", dan.ID, models.RoleMember), storage.ErrNotFound)
	})

	t.Run("expenses", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		defer s.Close()

		alice, bob, carol, group := seed(t, ctx, s)

		e1 := addExpense(t, ctx, s, group.ID, alice.ID, "90", "2024-01-10", alice.ID, bob.ID, carol.ID)
		e2 := addExpense(t, ctx, s, group.ID, bob.ID, "40.50", "2024-02-20", alice.ID, bob.ID)
		require.NotEmpty(t, e1.ID)

		got, splits, err := s.GetExpense(ctx, e2.ID)
		require.NoError(t, err)
		assert.True(t, dec("40.50").Equal(got.Amount))
		assert.Equal(t, bob.ID, got.PayerID)
		assert.Equal(t, models.SplitExact, got.SplitType)
		assert.Equal(t, "groceries", got.Category)
		assert.True(t, day("2024-02-20").Equal(got.Date))
		require.Len(t, splits, 2)
		assert.Equal(t, e2.ID, splits[0].ExpenseID)
		assert.True(t, dec("20.25").Equal(splits[0].Amount))

		expenses, err := s.ListNonDeletedExpenses(ctx, group.ID, storage.DateRange{})
		require.NoError(t, err)
		require.Len(t, expenses, 2)

		expenses, err = s.ListNonDeletedExpenses(ctx, group.ID, storage.DateRange{From: day("2024-02-01")})
		require.NoError(t, err)
		require.Len(t, expenses, 1)
		assert.Equal(t, e2.ID, expenses[0].ID)

		expenses, err = s.ListNonDeletedExpenses(ctx, group.ID, storage.DateRange{To: day("2024-01-10")})
		require.NoError(t, err)
		require.Len(t, expenses, 1)
		assert.Equal(t, e1.ID, expenses[0].ID)

		all, err := s.ListSplits(ctx, group.ID)
		require.NoError(t, err)
		assert.Len(t, all, 5)

		require.NoError(t, s.DeleteExpense(ctx, e1.ID))

		expenses, err = s.ListNonDeletedExpenses(ctx, group.ID, storage.DateRange{})
		require.NoError(t, err)
		require.Len(t, expenses, 1)

		all, err = s.ListSplits(ctx, group.ID)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		deleted, _, err := s.GetExpense(ctx, e1.ID)
		require.NoError(t, err)
		assert.True(t, deleted.IsDeleted)

		require.ErrorIs(t, s.DeleteExpense(ctx, "missing"), storage.ErrNotFound)
		_, _, err = s.GetExpense(ctx, "missing")
		require.ErrorIs(t, err, storage.ErrNotFound)

		orphan := &models.Expense{GroupID: "missing", Amount: dec("1"), PayerID: alice.ID, Date: day("2024-01-01")}
		require.ErrorIs(t, s.CreateExpense(ctx, orphan, nil), storage.ErrNotFound)
	})

	t.Run("payments", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		defer s.Close()

		alice, bob, carol, group := seed(t, ctx, s)

		p := &models.Payment{
			GroupID:    group.ID,
			PayerID:    bob.ID,
			ReceiverID: alice.ID,
			Amount:     dec("25.10"),
			Date:       day("2024-03-01"),
		}
		require.NoError(t, s.CreatePayment(ctx, p))
		require.NotEmpty(t, p.ID)
		assert.Equal(t, models.PaymentPending, p.Status)

		confirmed, err := s.ListConfirmedPayments(ctx, group.ID)
		require.NoError(t, err)
		assert.Empty(t, confirmed)

		require.NoError(t, s.UpdatePaymentStatus(ctx, p.ID, models.PaymentPending, models.PaymentConfirmed))

		// A second writer that read the payment while it was pending loses.
		err = s.UpdatePaymentStatus(ctx, p.ID, models.PaymentPending, models.PaymentCancelled)
		require.ErrorIs(t, err, models.ErrInvalidTransition)

		got, err := s.GetPayment(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentConfirmed, got.Status)
		assert.True(t, dec("25.10").Equal(got.Amount))
		assert.True(t, day("2024-03-01").Equal(got.Date))

		rejected := &models.Payment{
			GroupID:    group.ID,
			PayerID:    carol.ID,
			ReceiverID: alice.ID,
			Amount:     dec("5"),
			Status:     models.PaymentRejected,
			Date:       day("2024-03-02"),
		}
		require.NoError(t, s.CreatePayment(ctx, rejected))

		confirmed, err = s.ListConfirmedPayments(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, confirmed, 1)
		assert.Equal(t, p.ID, confirmed[0].ID)

		_, err = s.GetPayment(ctx, "missing")
		require.ErrorIs(t, err, storage.ErrNotFound)
		require.ErrorIs(t, s.UpdatePaymentStatus(ctx, "missing", models.PaymentPending, models.PaymentConfirmed), storage.ErrNotFound)
	})
}
