package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		ok       bool
	}{
		{PaymentPending, PaymentConfirmed, true},
		{PaymentPending, PaymentRejected, true},
		{PaymentPending, PaymentCancelled, true},
		{PaymentPending, PaymentDisputed, true},
		{PaymentDisputed, PaymentConfirmed, true},
		{PaymentDisputed, PaymentRejected, true},
		{PaymentDisputed, PaymentCancelled, false},
		{PaymentConfirmed, PaymentRejected, false},
		{PaymentRejected, PaymentConfirmed, false},
		{PaymentCancelled, PaymentPending, false},
		{PaymentPending, PaymentPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestPaymentStatusValid(t *testing.T) {
	assert.True(t, PaymentDisputed.Valid())
	assert.False(t, PaymentStatus("settled").Valid())
}
