package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sumSplits(splits []models.ExpenseSplit) decimal.Decimal {
	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.Amount)
	}
	return total
}

func TestCalculateSplits(t *testing.T) {
	tests := []struct {
		name         string
		amount       string
		splitType    models.SplitType
		inputs       []SplitInput
		wantErr      error
		validateFunc func(t *testing.T, splits []models.ExpenseSplit)
	}{
		{
			name:      "equal three-way split",
			amount:    "90",
			splitType: models.SplitEqual,
			inputs:    []SplitInput{{UserID: "x"}, {UserID: "y"}, {UserID: "z"}},
			validateFunc: func(t *testing.T, splits []models.ExpenseSplit) {
				for _, s := range splits {
					if !s.Amount.Equal(dec("30")) {
						t.Errorf("%s amount = %s, want 30", s.UserID, s.Amount)
					}
				}
			},
		},
		{
			name:      "equal split hands leftover cent to first participant",
			amount:    "10",
			splitType: models.SplitEqual,
			inputs:    []SplitInput{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}},
			validateFunc: func(t *testing.T, splits []models.ExpenseSplit) {
				want := []string{"3.34", "3.33", "3.33"}
				for i, s := range splits {
					if !s.Amount.Equal(dec(want[i])) {
						t.Errorf("%s amount = %s, want %s", s.UserID, s.Amount, want[i])
					}
				}
			},
		},
		{
			name:      "exact split within tolerance",
			amount:    "50",
			splitType: models.SplitExact,
			inputs: []SplitInput{
				{UserID: "a", Amount: dec("20")},
				{UserID: "b", Amount: dec("29.99")},
			},
			validateFunc: func(t *testing.T, splits []models.ExpenseSplit) {
				if !splits[1].Amount.Equal(dec("29.99")) {
					t.Errorf("b amount = %s, want 29.99", splits[1].Amount)
				}
			},
		},
		{
			name:      "exact split mismatch",
			amount:    "50",
			splitType: models.SplitExact,
			inputs: []SplitInput{
				{UserID: "a", Amount: dec("20")},
				{UserID: "b", Amount: dec("20")},
			},
			wantErr: ErrSplitMismatch,
		},
		{
			name:      "exact split with sub-cent amounts",
			amount:    "100",
			splitType: models.SplitExact,
			inputs: []SplitInput{
				{UserID: "a", Amount: dec("33.334")},
				{UserID: "b", Amount: dec("33.333")},
				{UserID: "c", Amount: dec("33.333")},
			},
			wantErr: ErrInvalidSplitAmount,
		},
		{
			name:      "exact split with negative amount",
			amount:    "100",
			splitType: models.SplitExact,
			inputs: []SplitInput{
				{UserID: "a", Amount: dec("150")},
				{UserID: "b", Amount: dec("-50")},
			},
			wantErr: ErrInvalidSplitAmount,
		},
		{
			name:      "exact split with zero share",
			amount:    "40",
			splitType: models.SplitExact,
			inputs: []SplitInput{
				{UserID: "a", Amount: dec("40.00")},
				{UserID: "b", Amount: dec("0")},
			},
			validateFunc: func(t *testing.T, splits []models.ExpenseSplit) {
				if !splits[1].Amount.IsZero() {
					t.Errorf("b amount = %s, want 0", splits[1].Amount)
				}
			},
		},
		{
			name:      "shares split with default share",
			amount:    "60",
			splitType: models.SplitShares,
			inputs: []SplitInput{
				{UserID: "a", Shares: 2},
				{UserID: "b"},
			},
			validateFunc: func(t *testing.T, splits []models.ExpenseSplit) {
				if !splits[0].Amount.Equal(dec("40")) || !splits[1].Amount.Equal(dec("20")) {
					t.Errorf("got %s/%s, want 40/20", splits[0].Amount, splits[1].Amount)
				}
				if splits[1].Shares != 1 {
					t.Errorf("b shares = %d, want 1", splits[1].Shares)
				}
			},
		},
		{
			name:      "percentage split",
			amount:    "200",
			splitType: models.SplitPercentage,
			inputs: []SplitInput{
				{UserID: "a", Percentage: dec("12.5")},
				{UserID: "b", Percentage: dec("87.5")},
			},
			validateFunc: func(t *testing.T, splits []models.ExpenseSplit) {
				if !splits[0].Amount.Equal(dec("25")) || !splits[1].Amount.Equal(dec("175")) {
					t.Errorf("got %s/%s, want 25/175", splits[0].Amount, splits[1].Amount)
				}
			},
		},
		{
			name:      "percentages must total 100",
			amount:    "200",
			splitType: models.SplitPercentage,
			inputs: []SplitInput{
				{UserID: "a", Percentage: dec("50")},
				{UserID: "b", Percentage: dec("40")},
			},
			wantErr: ErrPercentageMismatch,
		},
		{
			name:      "zero amount should error",
			amount:    "0",
			splitType: models.SplitEqual,
			inputs:    []SplitInput{{UserID: "a"}},
			wantErr:   ErrNonPositiveAmount,
		},
		{
			name:      "no participants should error",
			amount:    "10",
			splitType: models.SplitEqual,
			wantErr:   ErrNoParticipants,
		},
		{
			name:      "duplicate participant should error",
			amount:    "10",
			splitType: models.SplitEqual,
			inputs:    []SplitInput{{UserID: "a"}, {UserID: "a"}},
			wantErr:   ErrDuplicateParticipant,
		},
		{
			name:      "unknown split type should error",
			amount:    "10",
			splitType: models.SplitType("itemized"),
			inputs:    []SplitInput{{UserID: "a"}},
			wantErr:   ErrUnknownSplitType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := CalculateSplits(dec(tt.amount), tt.splitType, tt.inputs)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CalculateSplits() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CalculateSplits() unexpected error: %v", err)
			}
			if len(splits) != len(tt.inputs) {
				t.Fatalf("got %d splits, want %d", len(splits), len(tt.inputs))
			}
			if tt.splitType != models.SplitExact && !sumSplits(splits).Equal(dec(tt.amount)) {
				t.Errorf("splits sum to %s, want %s", sumSplits(splits), tt.amount)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, splits)
			}
		})
	}
}
