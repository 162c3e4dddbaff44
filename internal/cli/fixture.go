package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// Fixture is a complete ledger described in YAML: users, groups, expenses and payments.
// Amounts are strings so they are read as exact decimals.
type Fixture struct {
	// Currency is an optional ISO 4217 code used for text output.
	Currency string         `yaml:"currency,omitempty"`
	Users    []FixtureUser  `yaml:"users"`
	Groups   []FixtureGroup `yaml:"groups"`
}

type FixtureUser struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Email   string `yaml:"email,omitempty"`
	Picture string `yaml:"picture,omitempty"`
}

type FixtureGroup struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// CreatedBy defaults to the first member.
	CreatedBy string `yaml:"created_by,omitempty"`

	// Friend marks a two-person friend group.
	Friend bool `yaml:"friend,omitempty"`

	Members  []string         `yaml:"members"`
	Expenses []FixtureExpense `yaml:"expenses,omitempty"`
	Payments []FixturePayment `yaml:"payments,omitempty"`
}

type FixtureExpense struct {
	ID          string `yaml:"id,omitempty"`
	Description string `yaml:"description"`
	Category    string `yaml:"category,omitempty"`
	Amount      string `yaml:"amount"`
	Payer       string `yaml:"payer"`

	// Split is equal (default), exact, shares or percentage.
	Split string `yaml:"split,omitempty"`
	Date  string `yaml:"date,omitempty"`

	// Participants defaults to every member for equal splits.
	Participants []FixtureParticipant `yaml:"participants,omitempty"`
	Deleted      bool                 `yaml:"deleted,omitempty"`
}

type FixtureParticipant struct {
	User       string `yaml:"user"`
	Amount     string `yaml:"amount,omitempty"`
	Shares     int64  `yaml:"shares,omitempty"`
	Percentage string `yaml:"percentage,omitempty"`
}

type FixturePayment struct {
	From        string `yaml:"from"`
	To          string `yaml:"to"`
	Amount      string `yaml:"amount"`
	Description string `yaml:"description,omitempty"`
	Date        string `yaml:"date,omitempty"`

	// Status defaults to confirmed.
	Status string `yaml:"status,omitempty"`
}

// LoadFixture reads and parses a fixture file, rejecting unknown fields.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var fixture Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := fixture.validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &fixture, nil
}

// validate checks references between users, groups and ledger entries.
func (f *Fixture) validate() error {
	users := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.ID == "" || u.Name == "" {
			return fmt.Errorf("users[%d]: id and name are required", i)
		}
		if users[u.ID] {
			return fmt.Errorf("users[%d]: duplicate id %q", i, u.ID)
		}
		users[u.ID] = true
	}

	groups := make(map[string]bool, len(f.Groups))
	var errs []error
	for i, g := range f.Groups {
		if g.ID == "" || g.Name == "" {
			errs = append(errs, fmt.Errorf("groups[%d]: id and name are required", i))
			continue
		}
		if groups[g.ID] {
			errs = append(errs, fmt.Errorf("groups[%d]: duplicate id %q", i, g.ID))
		}
		groups[g.ID] = true
		if len(g.Members) == 0 {
			errs = append(errs, fmt.Errorf("group %s: members are required", g.ID))
		}
		if g.Friend && len(g.Members) != 2 {
			errs = append(errs, fmt.Errorf("group %s: a friend group has exactly two members", g.ID))
		}
		for _, m := range g.Members {
			if !users[m] {
				errs = append(errs, fmt.Errorf("group %s: unknown member %q", g.ID, m))
			}
		}
		if g.CreatedBy != "" && !slices.Contains(g.Members, g.CreatedBy) {
			errs = append(errs, fmt.Errorf("group %s: creator %q is not a member", g.ID, g.CreatedBy))
		}
		for j, e := range g.Expenses {
			if !slices.Contains(g.Members, e.Payer) {
				errs = append(errs, fmt.Errorf("group %s: expenses[%d]: payer %q is not a member", g.ID, j, e.Payer))
			}
			for _, p := range e.Participants {
				if !slices.Contains(g.Members, p.User) {
					errs = append(errs, fmt.Errorf("group %s: expenses[%d]: participant %q is not a member", g.ID, j, p.User))
				}
			}
		}
		for j, p := range g.Payments {
			if p.From == p.To {
				errs = append(errs, fmt.Errorf("group %s: payments[%d]: payer and receiver are the same", g.ID, j))
			}
			if !slices.Contains(g.Members, p.From) || !slices.Contains(g.Members, p.To) {
				errs = append(errs, fmt.Errorf("group %s: payments[%d]: both parties must be members", g.ID, j))
			}
			if p.Status != "" && !models.PaymentStatus(p.Status).Valid() {
				errs = append(errs, fmt.Errorf("group %s: payments[%d]: unknown status %q", g.ID, j, p.Status))
			}
		}
	}
	return errors.Join(errs...)
}

// Apply writes the fixture into w. Group, user and explicit expense IDs are kept as given.
func (f *Fixture) Apply(ctx context.Context, w storage.LedgerWriter) error {
	for _, u := range f.Users {
		user := &models.User{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePicture: u.Picture}
		if err := w.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to create user %s: %w", u.ID, err)
		}
	}

	for _, g := range f.Groups {
		creator := g.CreatedBy
		if creator == "" {
			creator = g.Members[0]
		}
		group := &models.Group{ID: g.ID, Name: g.Name, CreatedBy: creator, IsFriendGroup: g.Friend}
		if err := w.CreateGroup(ctx, group, g.Members); err != nil {
			return fmt.Errorf("failed to create group %s: %w", g.ID, err)
		}

		for i, e := range g.Expenses {
			if err := applyExpense(ctx, w, g, e); err != nil {
				return fmt.Errorf("group %s: expenses[%d]: %w", g.ID, i, err)
			}
		}
		for i, p := range g.Payments {
			if err := applyPayment(ctx, w, g.ID, p); err != nil {
				return fmt.Errorf("group %s: payments[%d]: %w", g.ID, i, err)
			}
		}
	}
	return nil
}

func applyExpense(ctx context.Context, w storage.LedgerWriter, g FixtureGroup, e FixtureExpense) error {
	amount, err := money.Parse(e.Amount)
	if err != nil {
		return err
	}
	date, err := parseFixtureDate(e.Date)
	if err != nil {
		return err
	}

	splitType := models.SplitType(e.Split)
	if splitType == "" {
		splitType = models.SplitEqual
	}

	participants := e.Participants
	if len(participants) == 0 && splitType == models.SplitEqual {
		for _, m := range g.Members {
			participants = append(participants, FixtureParticipant{User: m})
		}
	}
	inputs := make([]calculator.SplitInput, len(participants))
	for i, p := range participants {
		in := calculator.SplitInput{UserID: p.User, Shares: p.Shares}
		if p.Amount != "" {
			if in.Amount, err = decimal.NewFromString(p.Amount); err != nil {
				return fmt.Errorf("participant %s: %w", p.User, err)
			}
		}
		if p.Percentage != "" {
			if in.Percentage, err = decimal.NewFromString(p.Percentage); err != nil {
				return fmt.Errorf("participant %s: %w", p.User, err)
			}
		}
		inputs[i] = in
	}

	splits, err := calculator.CalculateSplits(amount, splitType, inputs)
	if err != nil {
		return err
	}

	expense := &models.Expense{
		ID:          e.ID,
		GroupID:     g.ID,
		Description: e.Description,
		Category:    strings.TrimSpace(e.Category),
		Amount:      amount,
		PayerID:     e.Payer,
		SplitType:   splitType,
		Date:        date,
		CreatedBy:   e.Payer,
	}
	if err := w.CreateExpense(ctx, expense, splits); err != nil {
		return err
	}
	if e.Deleted {
		return w.DeleteExpense(ctx, expense.ID)
	}
	return nil
}

func applyPayment(ctx context.Context, w storage.LedgerWriter, groupID string, p FixturePayment) error {
	amount, err := money.Parse(p.Amount)
	if err != nil {
		return err
	}
	date, err := parseFixtureDate(p.Date)
	if err != nil {
		return err
	}
	status := models.PaymentStatus(p.Status)
	if status == "" {
		status = models.PaymentConfirmed
	}
	return w.CreatePayment(ctx, &models.Payment{
		GroupID:     groupID,
		PayerID:     p.From,
		ReceiverID:  p.To,
		Amount:      amount,
		Status:      status,
		Description: p.Description,
		Date:        date,
	})
}

func parseFixtureDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
