// Package storage provides abstractions for the persistent ledger.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

// DateRange bounds expenses by calendar date, inclusive on both ends.
// A zero From or To leaves that side unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// LedgerReader is the read side the balance engine needs for one group.
type LedgerReader interface {
	// ListNonDeletedExpenses returns the group's expenses that are not soft-deleted.
	ListNonDeletedExpenses(ctx context.Context, groupID string, dates DateRange) ([]models.Expense, error)

	// ListSplits returns the splits of every non-deleted expense in the group.
	ListSplits(ctx context.Context, groupID string) ([]models.ExpenseSplit, error)

	// ListConfirmedPayments returns the group's payments with status confirmed.
	ListConfirmedPayments(ctx context.Context, groupID string) ([]models.Payment, error)

	// ListActiveMembers returns the user IDs of the group's active members.
	ListActiveMembers(ctx context.Context, groupID string) ([]string, error)
}

// Directory resolves groups, memberships and users for the presentation layer.
type Directory interface {
	// GetGroup retrieves a group by ID. Returns ErrNotFound if it does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListUserGroups returns the non-deleted groups in which the user has an active membership.
	ListUserGroups(ctx context.Context, userID string) ([]models.Group, error)

	// IsActiveMember reports whether the user holds an active membership in the group.
	IsActiveMember(ctx context.Context, groupID, userID string) (bool, error)

	// GetUsersByIDs retrieves multiple users. Unknown IDs are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// LedgerWriter is the ledger-management side that owns and mutates records.
type LedgerWriter interface {
	// CreateUser persists a new user. The ID and CreatedAt are assigned when empty.
	CreateUser(ctx context.Context, user *models.User) error

	// CreateGroup persists a group and its initial active members.
	CreateGroup(ctx context.Context, group *models.Group, memberIDs []string) error

	// AddMember adds or reactivates a membership.
	AddMember(ctx context.Context, groupID, userID, role string) error

	// CreateExpense persists an expense together with its splits in one transaction.
	CreateExpense(ctx context.Context, expense *models.Expense, splits []models.ExpenseSplit) error

	// GetExpense retrieves an expense (deleted or not) and its splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, []models.ExpenseSplit, error)

	// DeleteExpense soft-deletes an expense.
	DeleteExpense(ctx context.Context, expenseID string) error

	// CreatePayment persists a new payment.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// GetPayment retrieves a payment by ID.
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)

	// UpdatePaymentStatus moves a payment from status from to status to. It fails with
	// models.ErrInvalidTransition when the stored status is no longer from.
	UpdatePaymentStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus) error
}

// Store combines every storage capability. Backends (memory, SQLite, PostgreSQL)
// implement it so they can be swapped without touching the service layer.
type Store interface {
	LedgerReader
	Directory
	LedgerWriter

	// Close releases any resources held by the store.
	Close() error
}
