package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const dateLayout = "2006-01-02"

// parseDate reads an optional YYYY-MM-DD date. Empty yields the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseRange(from, to string) (storage.DateRange, error) {
	f, err := parseDate(from)
	if err != nil {
		return storage.DateRange{}, err
	}
	t, err := parseDate(to)
	if err != nil {
		return storage.DateRange{}, err
	}
	if !f.IsZero() && !t.IsZero() && t.Before(f) {
		return storage.DateRange{}, fmt.Errorf("date range ends before it starts")
	}
	return storage.DateRange{From: f, To: t}, nil
}

// Balance service messages.

type GetMyBalancesRequest struct{}

type GetGroupBalanceRequest struct {
	GroupID string `json:"group_id"`
	// From and To optionally bound expense dates (YYYY-MM-DD, inclusive).
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type GetSettlementSuggestionsRequest struct {
	GroupID string `json:"group_id"`
}

type SimplifyGroupDebtsRequest struct {
	GroupID string `json:"group_id"`
}

type GetFriendBalancesRequest struct{}

type GetGroupAnalyticsRequest struct {
	GroupID string `json:"group_id"`
	// Period is one of 7d, 30d, 3m or 1y. Empty means 30d.
	Period string `json:"period,omitempty"`
}

type GetFriendsAnalyticsRequest struct {
	Period string `json:"period,omitempty"`
}

// Ledger service messages.

type Group struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	CreatedBy     string   `json:"created_by"`
	IsFriendGroup bool     `json:"is_friend_group"`
	MemberIDs     []string `json:"member_ids"`
	CreatedAt     int64    `json:"created_at"`
}

type CreateGroupRequest struct {
	Name          string   `json:"name"`
	MemberIDs     []string `json:"member_ids"`
	IsFriendGroup bool     `json:"is_friend_group,omitempty"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type AddMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type AddMemberResponse struct{}

type Split struct {
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Shares     int64           `json:"shares,omitempty"`
	Percentage decimal.Decimal `json:"percentage,omitzero"`
}

type SplitInput struct {
	UserID string `json:"user_id"`
	// Amount is used by exact splits.
	Amount string `json:"amount,omitempty"`
	// Shares is used by share splits.
	Shares int64 `json:"shares,omitempty"`
	// Percentage is used by percentage splits.
	Percentage string `json:"percentage,omitempty"`
}

type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	PayerID     string          `json:"payer_id"`
	SplitType   string          `json:"split_type"`
	Date        string          `json:"date"`
	CreatedBy   string          `json:"created_by"`
	Splits      []Split         `json:"splits"`
}

type CreateExpenseRequest struct {
	GroupID     string `json:"group_id"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Amount      string `json:"amount"`
	// PayerID defaults to the caller.
	PayerID   string       `json:"payer_id,omitempty"`
	SplitType string       `json:"split_type"`
	Date      string       `json:"date,omitempty"`
	Splits    []SplitInput `json:"splits"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type Payment struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	PayerID     string          `json:"payer_id"`
	ReceiverID  string          `json:"receiver_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	Date        string          `json:"date"`
}

type RecordPaymentRequest struct {
	GroupID     string `json:"group_id"`
	ReceiverID  string `json:"receiver_id"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

type RecordPaymentResponse struct {
	Payment Payment `json:"payment"`
}

type UpdatePaymentStatusRequest struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

type UpdatePaymentStatusResponse struct {
	Payment Payment `json:"payment"`
}

func toExpense(e *models.Expense, splits []models.ExpenseSplit) Expense {
	out := Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Category:    e.Category,
		Amount:      e.Amount,
		PayerID:     e.PayerID,
		SplitType:   string(e.SplitType),
		Date:        formatDate(e.Date),
		CreatedBy:   e.CreatedBy,
		Splits:      make([]Split, len(splits)),
	}
	for i, s := range splits {
		out.Splits[i] = Split{UserID: s.UserID, Amount: s.Amount, Shares: s.Shares, Percentage: s.Percentage}
	}
	return out
}

func toPayment(p *models.Payment) Payment {
	return Payment{
		ID:          p.ID,
		GroupID:     p.GroupID,
		PayerID:     p.PayerID,
		ReceiverID:  p.ReceiverID,
		Amount:      p.Amount,
		Status:      string(p.Status),
		Description: p.Description,
		Date:        formatDate(p.Date),
	}
}
