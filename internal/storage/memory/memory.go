// Package memory provides an in-process implementation of storage.Store. It backs the
// offline CLI commands and tests; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps every record in maps guarded by a single mutex.
// Slices preserve insertion order so listings are stable.
type Store struct {
	mu          sync.RWMutex
	users       map[string]models.User
	groups      map[string]models.Group
	groupOrder  []string
	memberships map[string][]models.Membership // by group ID
	expenses    map[string]models.Expense
	expOrder    []string
	splits      map[string][]models.ExpenseSplit // by expense ID
	payments    map[string]models.Payment
	payOrder    []string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]models.User),
		groups:      make(map[string]models.Group),
		memberships: make(map[string][]models.Membership),
		expenses:    make(map[string]models.Expense),
		splits:      make(map[string][]models.ExpenseSplit),
		payments:    make(map[string]models.Payment),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func newID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = newID(user.ID)
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("%w: user %s", storage.ErrConflict, user.ID)
	}
	for _, u := range s.users {
		if user.Email != "" && u.Email == user.Email {
			return fmt.Errorf("%w: email %s", storage.ErrConflict, user.Email)
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = &u
		}
	}
	return out, nil
}

func (s *Store) CreateGroup(_ context.Context, group *models.Group, memberIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group.ID = newID(group.ID)
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if _, exists := s.groups[group.ID]; exists {
		return fmt.Errorf("%w: group %s", storage.ErrConflict, group.ID)
	}
	s.groups[group.ID] = *group
	s.groupOrder = append(s.groupOrder, group.ID)

	for _, userID := range memberIDs {
		role := models.RoleMember
		if userID == group.CreatedBy {
			role = models.RoleAdmin
		}
		s.addMemberLocked(group.ID, userID, role)
	}
	return nil
}

func (s *Store) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return &g, nil
}

func (s *Store) AddMember(_ context.Context, groupID, userID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	s.addMemberLocked(groupID, userID, role)
	return nil
}

func (s *Store) addMemberLocked(groupID, userID, role string) {
	members := s.memberships[groupID]
	for i := range members {
		if members[i].UserID == userID {
			members[i].IsActive = true
			members[i].Role = role
			return
		}
	}
	s.memberships[groupID] = append(members, models.Membership{
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		IsActive: true,
		JoinedAt: time.Now().Unix(),
	})
}

func (s *Store) IsActiveMember(_ context.Context, groupID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.memberships[groupID] {
		if m.UserID == userID {
			return m.IsActive, nil
		}
	}
	return false, nil
}

func (s *Store) ListActiveMembers(_ context.Context, groupID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, m := range s.memberships[groupID] {
		if m.IsActive {
			out = append(out, m.UserID)
		}
	}
	return out, nil
}

func (s *Store) ListUserGroups(_ context.Context, userID string) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Group
	for _, id := range s.groupOrder {
		g := s.groups[id]
		if g.IsDeleted {
			continue
		}
		if slices.ContainsFunc(s.memberships[id], func(m models.Membership) bool {
			return m.UserID == userID && m.IsActive
		}) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, expense *models.Expense, splits []models.ExpenseSplit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[expense.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", expense.GroupID, storage.ErrNotFound)
	}
	expense.ID = newID(expense.ID)
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if _, exists := s.expenses[expense.ID]; exists {
		return fmt.Errorf("%w: expense %s", storage.ErrConflict, expense.ID)
	}

	stored := make([]models.ExpenseSplit, len(splits))
	for i, split := range splits {
		split.ExpenseID = expense.ID
		stored[i] = split
	}
	s.expenses[expense.ID] = *expense
	s.expOrder = append(s.expOrder, expense.ID)
	s.splits[expense.ID] = stored
	return nil
}

func (s *Store) GetExpense(_ context.Context, expenseID string) (*models.Expense, []models.ExpenseSplit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[expenseID]
	if !ok {
		return nil, nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return &e, slices.Clone(s.splits[expenseID]), nil
}

func (s *Store) DeleteExpense(_ context.Context, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[expenseID]
	if !ok {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	e.IsDeleted = true
	s.expenses[expenseID] = e
	return nil
}

func (s *Store) ListNonDeletedExpenses(_ context.Context, groupID string, dates storage.DateRange) ([]models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Expense
	for _, id := range s.expOrder {
		e := s.expenses[id]
		if e.GroupID != groupID || e.IsDeleted || !dates.Contains(e.Date) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) ListSplits(_ context.Context, groupID string) ([]models.ExpenseSplit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ExpenseSplit
	for _, id := range s.expOrder {
		e := s.expenses[id]
		if e.GroupID != groupID || e.IsDeleted {
			continue
		}
		out = append(out, s.splits[id]...)
	}
	return out, nil
}

func (s *Store) CreatePayment(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[payment.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", payment.GroupID, storage.ErrNotFound)
	}
	payment.ID = newID(payment.ID)
	now := time.Now().Unix()
	if payment.CreatedAt == 0 {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = payment.CreatedAt
	if payment.Status == "" {
		payment.Status = models.PaymentPending
	}
	if _, exists := s.payments[payment.ID]; exists {
		return fmt.Errorf("%w: payment %s", storage.ErrConflict, payment.ID)
	}
	s.payments[payment.ID] = *payment
	s.payOrder = append(s.payOrder, payment.ID)
	return nil
}

func (s *Store) GetPayment(_ context.Context, paymentID string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) UpdatePaymentStatus(_ context.Context, paymentID string, from, to models.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	if p.Status != from {
		return fmt.Errorf("%w: payment %s is no longer %s", models.ErrInvalidTransition, paymentID, from)
	}
	p.Status = to
	p.UpdatedAt = time.Now().Unix()
	s.payments[paymentID] = p
	return nil
}

func (s *Store) ListConfirmedPayments(_ context.Context, groupID string) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Payment
	for _, id := range s.payOrder {
		p := s.payments[id]
		if p.GroupID == groupID && p.Status == models.PaymentConfirmed {
			out = append(out, p)
		}
	}
	return out, nil
}
