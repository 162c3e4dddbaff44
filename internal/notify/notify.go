// Package notify publishes balance-change events for realtime delivery.
//
// Ledger writes call NotifyBalanceChanged once per affected user after the mutation is
// committed. Delivery is best effort: a failed notification never rolls back a write.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/metrics"
)

// Kind names the mutation that changed a balance.
type Kind string

const (
	ExpenseCreated       Kind = "expense_created"
	ExpenseDeleted       Kind = "expense_deleted"
	PaymentRecorded      Kind = "payment_recorded"
	PaymentStatusChanged Kind = "payment_status_changed"
)

// Event describes one balance-affecting mutation.
type Event struct {
	Kind       Kind      `json:"kind"`
	GroupID    string    `json:"group_id"`
	ActorID    string    `json:"actor_id"`
	ResourceID string    `json:"resource_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(kind Kind, groupID, actorID, resourceID string) Event {
	return Event{
		Kind:       kind,
		GroupID:    groupID,
		ActorID:    actorID,
		ResourceID: resourceID,
		Timestamp:  time.Now().UTC(),
	}
}

// message is the wire form of a notification.
type message struct {
	UserID string `json:"user_id"`
	Event
}

func encode(userID string, ev Event) ([]byte, error) {
	return json.Marshal(message{UserID: userID, Event: ev})
}

// Notifier delivers balance-change events to one user.
type Notifier interface {
	NotifyBalanceChanged(ctx context.Context, userID string, ev Event) error
}

// LogNotifier writes each event to a slog logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier logging to logger, or slog.Default() when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyBalanceChanged(ctx context.Context, userID string, ev Event) error {
	n.logger.InfoContext(ctx, "Balance changed",
		"user_id", userID,
		"kind", ev.Kind,
		"group_id", ev.GroupID,
		"actor_id", ev.ActorID,
		"resource_id", ev.ResourceID)
	return nil
}

// Multi fans every event out to all notifiers and joins their errors.
type Multi []Notifier

func (m Multi) NotifyBalanceChanged(ctx context.Context, userID string, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyBalanceChanged(ctx, userID, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type observed struct {
	next    Notifier
	metrics *metrics.Metrics
}

// Observed wraps n so every attempt is counted in m.
func Observed(n Notifier, m *metrics.Metrics) Notifier {
	return &observed{next: n, metrics: m}
}

func (o *observed) NotifyBalanceChanged(ctx context.Context, userID string, ev Event) error {
	err := o.next.NotifyBalanceChanged(ctx, userID, ev)
	o.metrics.ObserveNotification(err)
	return err
}
