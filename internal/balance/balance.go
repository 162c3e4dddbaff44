// Package balance assembles user-facing balance views on top of the calculator.
//
// Every call reads a fresh snapshot from the ledger and recomputes from scratch;
// nothing is cached between calls.
package balance

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// ErrNotMember is returned when the viewer has no active membership in the requested group.
var ErrNotMember = errors.New("not a member of this group")

// DefaultFanout bounds how many groups are computed concurrently.
const DefaultFanout = 8

// Ledger is everything the assembly layer reads.
type Ledger interface {
	storage.LedgerReader
	storage.Directory
}

// UserBalance is the viewer's balance against one counterparty, with display metadata.
// Positive means the counterparty owes the viewer.
type UserBalance struct {
	UserID         string          `json:"user_id"`
	UserName       string          `json:"user_name"`
	UserEmail      string          `json:"user_email"`
	ProfilePicture string          `json:"profile_picture,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
}

// Totals aggregates a list of balances.
type Totals struct {
	TotalBalance decimal.Decimal `json:"total_balance"`
	YouAreOwed   decimal.Decimal `json:"you_are_owed"`
	YouOwe       decimal.Decimal `json:"you_owe"`
}

func (t *Totals) add(b decimal.Decimal) {
	if b.IsPositive() {
		t.YouAreOwed = t.YouAreOwed.Add(b)
	} else {
		t.YouOwe = t.YouOwe.Add(b.Neg())
	}
	t.TotalBalance = t.YouAreOwed.Sub(t.YouOwe)
}

// GroupSummary is the viewer's position inside one group.
type GroupSummary struct {
	GroupID       string        `json:"group_id"`
	GroupName     string        `json:"group_name"`
	IsFriendGroup bool          `json:"is_friend_group,omitempty"`
	Totals
	Balances []UserBalance `json:"balances"`
}

// Overview is the viewer's position across every group they belong to.
type Overview struct {
	Totals
	Groups []GroupSummary `json:"group_balances"`
}

// Settlement is a settlement suggestion with the parties' display names.
type Settlement struct {
	FromUserID   string          `json:"from_user_id"`
	FromUserName string          `json:"from_user_name"`
	ToUserID     string          `json:"to_user_id"`
	ToUserName   string          `json:"to_user_name"`
	Amount       decimal.Decimal `json:"amount"`
}

// SettlementPlan is the simplified set of payments that settles a group.
type SettlementPlan struct {
	GroupID                    string       `json:"group_id"`
	GroupName                  string       `json:"group_name"`
	Suggestions                []Settlement `json:"suggestions"`
	OriginalTransactionCount   int          `json:"original_transactions"`
	SimplifiedTransactionCount int          `json:"total_transactions"`
	TransactionsSaved          int          `json:"transactions_saved"`
}

// NetPosition is one member's collapsed balance within a group.
type NetPosition struct {
	UserID   string          `json:"user_id"`
	UserName string          `json:"user_name"`
	Balance  decimal.Decimal `json:"balance"`
}

// Simplification shows the net positions next to the payments that settle them.
type Simplification struct {
	GroupID           string        `json:"group_id"`
	GroupName         string        `json:"group_name"`
	OriginalDebts     []NetPosition `json:"original_debts"`
	SimplifiedDebts   []Settlement  `json:"simplified_debts"`
	TransactionsSaved int           `json:"transactions_saved"`
}

// Service builds balance views.
type Service struct {
	ledger  Ledger
	fanout  int
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithFanout sets how many groups are computed concurrently. Values below 1 are ignored.
func WithFanout(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanout = n
		}
	}
}

// WithMetrics records computation timings into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock sets the clock that anchors analytics periods.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a balance service reading from ledger.
func NewService(ledger Ledger, opts ...Option) *Service {
	s := &Service{ledger: ledger, fanout: DefaultFanout, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// authorize loads the group and checks the viewer's membership.
func (s *Service) authorize(ctx context.Context, viewerID, groupID string) (*models.Group, error) {
	group, err := s.ledger.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.IsDeleted {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	ok, err := s.ledger.IsActiveMember(ctx, groupID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	return group, nil
}

// snapshot reads everything the calculator needs for one group.
func (s *Service) snapshot(ctx context.Context, groupID string, dates storage.DateRange) (calculator.Snapshot, error) {
	expenses, err := s.ledger.ListNonDeletedExpenses(ctx, groupID, dates)
	if err != nil {
		return calculator.Snapshot{}, fmt.Errorf("failed to list expenses: %w", err)
	}
	splits, err := s.ledger.ListSplits(ctx, groupID)
	if err != nil {
		return calculator.Snapshot{}, fmt.Errorf("failed to list splits: %w", err)
	}
	payments, err := s.ledger.ListConfirmedPayments(ctx, groupID)
	if err != nil {
		return calculator.Snapshot{}, fmt.Errorf("failed to list payments: %w", err)
	}
	return calculator.Snapshot{Expenses: expenses, Splits: splits, Payments: payments}, nil
}

// users resolves display metadata for ids.
func (s *Service) users(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users, err := s.ledger.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

func (s *Service) observe(view string, start time.Time) {
	s.metrics.ObserveComputation(view, time.Since(start))
}

// sortBalances orders by display name, then user ID.
func sortBalances(balances []UserBalance) {
	slices.SortFunc(balances, compareBalances)
}

func compareBalances(a, b UserBalance) int {
	return cmp.Or(cmp.Compare(a.UserName, b.UserName), cmp.Compare(a.UserID, b.UserID))
}

// displayBalances drops negligible balances and counterparties the directory doesn't know.
func displayBalances(raw map[string]decimal.Decimal, users map[string]*models.User) ([]UserBalance, Totals) {
	var (
		out    []UserBalance
		totals Totals
	)
	for userID, b := range raw {
		if money.Negligible(b) {
			continue
		}
		u, ok := users[userID]
		if !ok {
			continue
		}
		out = append(out, UserBalance{
			UserID:         userID,
			UserName:       u.Name,
			UserEmail:      u.Email,
			ProfilePicture: u.ProfilePicture,
			Balance:        b,
		})
		totals.add(b)
	}
	sortBalances(out)
	return out, totals
}
