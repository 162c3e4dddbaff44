package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/balance"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
)

// LedgerService implements the write side: groups, expenses and payments.
// Every mutation that can move a balance notifies the users it affects.
type LedgerService struct {
	store    storage.Store
	notifier notify.Notifier
}

// NewLedgerService creates a LedgerService. A nil notifier logs events instead.
func NewLedgerService(store storage.Store, notifier notify.Notifier) *LedgerService {
	if notifier == nil {
		notifier = notify.NewLogNotifier(nil)
	}
	return &LedgerService{store: store, notifier: notifier}
}

// requireMember checks the caller belongs to a live group.
func (s *LedgerService) requireMember(ctx context.Context, groupID, userID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.IsDeleted {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	ok, err := s.store.IsActiveMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		return nil, balance.ErrNotMember
	}
	return group, nil
}

// notifyAll sends ev to each distinct user. Failures are logged, never returned:
// the write has already been committed.
func (s *LedgerService) notifyAll(ctx context.Context, ev notify.Event, userIDs ...string) {
	slices.Sort(userIDs)
	for _, userID := range slices.Compact(userIDs) {
		if err := s.notifier.NotifyBalanceChanged(ctx, userID, ev); err != nil {
			slog.Warn("Balance notification failed",
				"user_id", userID,
				"kind", ev.Kind,
				"group_id", ev.GroupID,
				"error", err,
			)
		}
	}
}

// CreateGroup creates a group with the caller as admin.
func (s *LedgerService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received",
		"user_id", userID,
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberIDs),
		"friend_group", req.Msg.IsFriendGroup,
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument(errors.New("group name is required"))
	}

	members := []string{userID}
	for _, id := range req.Msg.MemberIDs {
		if id != "" && !slices.Contains(members, id) {
			members = append(members, id)
		}
	}
	if req.Msg.IsFriendGroup && len(members) != 2 {
		return nil, invalidArgument(errors.New("a friend group has exactly two members"))
	}

	users, err := s.store.GetUsersByIDs(ctx, members)
	if err != nil {
		return nil, toConnectError(err)
	}
	for _, id := range members {
		if _, ok := users[id]; !ok {
			return nil, invalidArgument(fmt.Errorf("unknown user %s", id))
		}
	}

	group := &models.Group{Name: name, CreatedBy: userID, IsFriendGroup: req.Msg.IsFriendGroup}
	if err := s.store.CreateGroup(ctx, group, members); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&CreateGroupResponse{Group: Group{
		ID:            group.ID,
		Name:          group.Name,
		CreatedBy:     group.CreatedBy,
		IsFriendGroup: group.IsFriendGroup,
		MemberIDs:     members,
		CreatedAt:     group.CreatedAt,
	}}), nil
}

// AddMember adds an existing user to a group the caller belongs to.
func (s *LedgerService) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddMember request received", "user_id", userID, "group_id", req.Msg.GroupID, "member_id", req.Msg.UserID)

	group, err := s.requireMember(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if group.IsFriendGroup {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("friend groups cannot take new members"))
	}

	users, err := s.store.GetUsersByIDs(ctx, []string{req.Msg.UserID})
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, ok := users[req.Msg.UserID]; !ok {
		return nil, invalidArgument(fmt.Errorf("unknown user %s", req.Msg.UserID))
	}

	if err := s.store.AddMember(ctx, group.ID, req.Msg.UserID, models.RoleMember); err != nil {
		slog.Error("AddMember failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&AddMemberResponse{}), nil
}

// CreateExpense records an expense and derives its splits from the split type.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("CreateExpense request received",
		"user_id", userID,
		"group_id", msg.GroupID,
		"amount", msg.Amount,
		"split_type", msg.SplitType,
		"participants", len(msg.Splits),
	)

	if _, err := s.requireMember(ctx, msg.GroupID, userID); err != nil {
		return nil, toConnectError(err)
	}

	amount, err := money.Parse(msg.Amount)
	if err != nil {
		return nil, invalidArgument(err)
	}
	date, err := parseDate(msg.Date)
	if err != nil {
		return nil, invalidArgument(err)
	}
	if date.IsZero() {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	payerID := msg.PayerID
	if payerID == "" {
		payerID = userID
	}
	splitType := models.SplitType(msg.SplitType)
	if splitType == "" {
		splitType = models.SplitEqual
	}

	inputs, err := splitInputs(msg.Splits)
	if err != nil {
		return nil, invalidArgument(err)
	}

	members, err := s.store.ListActiveMembers(ctx, msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	for _, id := range append([]string{payerID}, participantIDs(inputs)...) {
		if !slices.Contains(members, id) {
			return nil, invalidArgument(fmt.Errorf("user %s is not an active member of the group", id))
		}
	}

	splits, err := calculator.CalculateSplits(amount, splitType, inputs)
	if err != nil {
		return nil, toConnectError(err)
	}

	expense := &models.Expense{
		GroupID:     msg.GroupID,
		Description: strings.TrimSpace(msg.Description),
		Category:    strings.TrimSpace(msg.Category),
		Amount:      amount,
		PayerID:     payerID,
		SplitType:   splitType,
		Date:        date,
		CreatedBy:   userID,
	}
	if err := s.store.CreateExpense(ctx, expense, splits); err != nil {
		slog.Error("CreateExpense failed", "group_id", msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	for i := range splits {
		splits[i].ExpenseID = expense.ID
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", expense.GroupID)
	s.notifyAll(ctx, notify.NewEvent(notify.ExpenseCreated, expense.GroupID, userID, expense.ID),
		append([]string{payerID}, participantIDs(inputs)...)...)

	return connect.NewResponse(&CreateExpenseResponse{Expense: toExpense(expense, splits)}), nil
}

func splitInputs(in []SplitInput) ([]calculator.SplitInput, error) {
	out := make([]calculator.SplitInput, len(in))
	for i, s := range in {
		out[i] = calculator.SplitInput{UserID: s.UserID, Shares: s.Shares}
		if s.Amount != "" {
			d, err := decimal.NewFromString(s.Amount)
			if err != nil {
				return nil, fmt.Errorf("%w: split amount for %s", money.ErrInvalidAmount, s.UserID)
			}
			out[i].Amount = d
		}
		if s.Percentage != "" {
			d, err := decimal.NewFromString(s.Percentage)
			if err != nil {
				return nil, fmt.Errorf("%w: percentage for %s", money.ErrInvalidAmount, s.UserID)
			}
			out[i].Percentage = d
		}
	}
	return out, nil
}

func participantIDs(inputs []calculator.SplitInput) []string {
	ids := make([]string, len(inputs))
	for i, in := range inputs {
		ids[i] = in.UserID
	}
	return ids
}

// DeleteExpense soft-deletes an expense. Only its creator or the group's creator may delete it.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteExpense request received", "user_id", userID, "expense_id", req.Msg.ExpenseID)

	expense, splits, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if expense.IsDeleted {
		return nil, toConnectError(fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound))
	}
	group, err := s.requireMember(ctx, expense.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if userID != expense.CreatedBy && userID != group.CreatedBy {
		return nil, toConnectError(fmt.Errorf("%w: can only delete your own expenses", errForbidden))
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}

	affected := []string{expense.PayerID}
	for _, split := range splits {
		affected = append(affected, split.UserID)
	}
	s.notifyAll(ctx, notify.NewEvent(notify.ExpenseDeleted, expense.GroupID, userID, expense.ID), affected...)

	return connect.NewResponse(&DeleteExpenseResponse{}), nil
}

// RecordPayment records a pending payment from the caller to another member.
// It only affects balances once the receiver confirms it.
func (s *LedgerService) RecordPayment(ctx context.Context, req *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("RecordPayment request received",
		"user_id", userID,
		"group_id", msg.GroupID,
		"receiver_id", msg.ReceiverID,
		"amount", msg.Amount,
	)

	if msg.ReceiverID == userID {
		return nil, invalidArgument(errors.New("cannot pay yourself"))
	}
	if _, err := s.requireMember(ctx, msg.GroupID, userID); err != nil {
		return nil, toConnectError(err)
	}
	ok, err := s.store.IsActiveMember(ctx, msg.GroupID, msg.ReceiverID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !ok {
		return nil, invalidArgument(fmt.Errorf("user %s is not an active member of the group", msg.ReceiverID))
	}

	amount, err := money.Parse(msg.Amount)
	if err != nil {
		return nil, invalidArgument(err)
	}
	date, err := parseDate(msg.Date)
	if err != nil {
		return nil, invalidArgument(err)
	}

	payment := &models.Payment{
		GroupID:     msg.GroupID,
		PayerID:     userID,
		ReceiverID:  msg.ReceiverID,
		Amount:      amount,
		Status:      models.PaymentPending,
		Description: strings.TrimSpace(msg.Description),
		Date:        date,
	}
	if payment.Date.IsZero() {
		payment.Date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		slog.Error("RecordPayment failed", "group_id", msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Payment recorded", "payment_id", payment.ID)
	s.notifyAll(ctx, notify.NewEvent(notify.PaymentRecorded, payment.GroupID, userID, payment.ID), payment.ReceiverID)

	return connect.NewResponse(&RecordPaymentResponse{Payment: toPayment(payment)}), nil
}

// UpdatePaymentStatus moves a payment through its lifecycle. The receiver confirms,
// rejects or disputes; the payer cancels.
func (s *LedgerService) UpdatePaymentStatus(ctx context.Context, req *connect.Request[UpdatePaymentStatusRequest]) (*connect.Response[UpdatePaymentStatusResponse], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdatePaymentStatus request received", "user_id", userID, "payment_id", req.Msg.PaymentID, "status", req.Msg.Status)

	next := models.PaymentStatus(req.Msg.Status)
	if !next.Valid() {
		return nil, invalidArgument(fmt.Errorf("unknown payment status %q", req.Msg.Status))
	}

	payment, err := s.store.GetPayment(ctx, req.Msg.PaymentID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, err := s.requireMember(ctx, payment.GroupID, userID); err != nil {
		return nil, toConnectError(err)
	}

	switch next {
	case models.PaymentCancelled:
		if userID != payment.PayerID {
			return nil, toConnectError(fmt.Errorf("%w: only the payer can cancel this payment", errForbidden))
		}
	default:
		if userID != payment.ReceiverID {
			return nil, toConnectError(fmt.Errorf("%w: only the receiver can %s this payment", errForbidden, verb(next)))
		}
	}
	if err := models.CheckTransition(payment.Status, next); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.UpdatePaymentStatus(ctx, payment.ID, payment.Status, next); err != nil {
		slog.Error("UpdatePaymentStatus failed", "payment_id", payment.ID, "error", err)
		return nil, toConnectError(err)
	}
	payment.Status = next

	slog.Info("Payment status updated", "payment_id", payment.ID, "status", next)
	s.notifyAll(ctx, notify.NewEvent(notify.PaymentStatusChanged, payment.GroupID, userID, payment.ID),
		payment.PayerID, payment.ReceiverID)

	return connect.NewResponse(&UpdatePaymentStatusResponse{Payment: toPayment(payment)}), nil
}

func verb(status models.PaymentStatus) string {
	switch status {
	case models.PaymentConfirmed:
		return "confirm"
	case models.PaymentRejected:
		return "reject"
	case models.PaymentDisputed:
		return "dispute"
	}
	return "update"
}
