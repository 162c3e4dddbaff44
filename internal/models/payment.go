package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the confirmation state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRejected  PaymentStatus = "rejected"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentDisputed  PaymentStatus = "disputed"
)

var ErrInvalidTransition = errors.New("invalid payment status transition")

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentConfirmed, PaymentRejected, PaymentCancelled, PaymentDisputed:
		return true
	}
	return false
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentConfirmed, PaymentRejected, PaymentCancelled, PaymentDisputed},
	PaymentDisputed: {PaymentConfirmed, PaymentRejected},
}

// CheckTransition returns ErrInvalidTransition unless a payment may move from one status to the other.
func CheckTransition(from, to PaymentStatus) error {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Payment represents money sent from one member to another inside a group.
// Only confirmed payments count towards balances.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group this payment settles debt in.
	GroupID string

	// PayerID is the member who sent the money.
	PayerID string

	// ReceiverID is the member who received it. Never equal to PayerID.
	ReceiverID string

	// Amount is the transferred amount. Always positive.
	Amount decimal.Decimal

	// Status is the confirmation state.
	Status PaymentStatus

	// Description is an optional note.
	Description string

	// Date is the calendar day of the transfer.
	Date time.Time

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last status change.
	UpdatedAt int64
}
