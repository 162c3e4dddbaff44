package calculator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

func positions(kv ...string) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		m[kv[i]] = dec(kv[i+1])
	}
	return m
}

func assertSettlements(t *testing.T, got []models.SettlementSuggestion, want []models.SettlementSuggestion) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d settlements %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i].FromUserID != want[i].FromUserID || got[i].ToUserID != want[i].ToUserID || !got[i].Amount.Equal(want[i].Amount) {
			t.Errorf("settlement %d = %s->%s %s, want %s->%s %s", i,
				got[i].FromUserID, got[i].ToUserID, got[i].Amount,
				want[i].FromUserID, want[i].ToUserID, want[i].Amount)
		}
	}
}

func settle(from, to, amount string) models.SettlementSuggestion {
	return models.SettlementSuggestion{FromUserID: from, ToUserID: to, Amount: dec(amount)}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name string
		net  map[string]decimal.Decimal
		want []models.SettlementSuggestion
	}{
		{
			name: "empty input",
			net:  nil,
			want: nil,
		},
		{
			name: "fully settled",
			net:  positions("a", "0", "b", "0.005", "c", "-0.01"),
			want: nil,
		},
		{
			name: "one creditor owed by two equal debtors",
			net:  positions("X", "60", "Y", "-30", "Z", "-30"),
			want: []models.SettlementSuggestion{settle("Y", "X", "30"), settle("Z", "X", "30")},
		},
		{
			name: "one debtor left after a confirmed payment",
			net:  positions("X", "30", "Y", "0", "Z", "-30"),
			want: []models.SettlementSuggestion{settle("Z", "X", "30")},
		},
		{
			name: "three-way cycle nets to zero",
			net:  positions("A", "0", "B", "0", "C", "0"),
			want: nil,
		},
		{
			name: "single creditor paid by larger debtor first",
			net:  positions("B", "80", "A", "-50", "C", "-30"),
			want: []models.SettlementSuggestion{settle("A", "B", "50"), settle("C", "B", "30")},
		},
		{
			name: "largest debtor pays largest creditor first",
			net:  positions("c1", "70", "c2", "30", "d1", "-40", "d2", "-60"),
			want: []models.SettlementSuggestion{
				settle("d2", "c1", "60"),
				settle("d1", "c1", "10"),
				settle("d1", "c2", "30"),
			},
		},
		{
			name: "ties break by ascending user id",
			net:  positions("zed", "20", "amy", "20", "bob", "-20", "al", "-20"),
			want: []models.SettlementSuggestion{settle("al", "amy", "20"), settle("bob", "zed", "20")},
		},
		{
			name: "sub-cent remainder is dropped",
			net:  positions("a", "10.005", "b", "-10"),
			want: []models.SettlementSuggestion{settle("b", "a", "10")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertSettlements(t, Simplify(tt.net), tt.want)
		})
	}
}

func TestSimplifyDebtCycleFromLedger(t *testing.T) {
	// A owes B 10, B owes C 10, C owes A 10.
	b := (&ledgerBuilder{}).
		expense("B", map[string]string{"A": "10"}).
		expense("C", map[string]string{"B": "10"}).
		expense("A", map[string]string{"C": "10"})
	if got := Simplify(ComputeGroupNetPositions(b.snap)); len(got) != 0 {
		t.Errorf("expected no settlements for a debt cycle, got %v", got)
	}
}

func TestSimplifyProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		t.Run(fmt.Sprintf("round_%d", round), func(t *testing.T) {
			// Build zero-sum positions from random pairwise debts.
			net := make(map[string]decimal.Decimal)
			users := 2 + rng.Intn(7)
			for i := 0; i < users*2; i++ {
				from := fmt.Sprintf("u%d", rng.Intn(users))
				to := fmt.Sprintf("u%d", rng.Intn(users))
				if from == to {
					continue
				}
				amount := decimal.New(int64(1+rng.Intn(100000)), -2)
				net[from] = net[from].Sub(amount)
				net[to] = net[to].Add(amount)
			}

			got := Simplify(net)

			creditors, debtors := 0, 0
			for _, v := range net {
				if v.GreaterThan(dec("0.01")) {
					creditors++
				} else if v.LessThan(dec("-0.01")) {
					debtors++
				}
			}
			if bound := creditors + debtors - 1; len(got) > max(0, bound) {
				t.Fatalf("%d settlements exceeds bound %d", len(got), bound)
			}

			paid := make(map[string]decimal.Decimal)
			received := make(map[string]decimal.Decimal)
			for _, s := range got {
				if !s.Amount.GreaterThan(dec("0.01")) {
					t.Errorf("settlement amount %s not above tolerance", s.Amount)
				}
				paid[s.FromUserID] = paid[s.FromUserID].Add(s.Amount)
				received[s.ToUserID] = received[s.ToUserID].Add(s.Amount)
			}
			for user, v := range net {
				wantPaid := decimal.Max(decimal.Zero, v.Neg())
				wantReceived := decimal.Max(decimal.Zero, v)
				if paid[user].Sub(wantPaid).Abs().GreaterThan(dec("0.01")) {
					t.Errorf("%s paid %s, net %s", user, paid[user], v)
				}
				if received[user].Sub(wantReceived).Abs().GreaterThan(dec("0.01")) {
					t.Errorf("%s received %s, net %s", user, received[user], v)
				}
			}
		})
	}
}

func TestCountSignificant(t *testing.T) {
	got := CountSignificant(positions("a", "0.01", "b", "-0.02", "c", "0", "d", "5"))
	if got != 2 {
		t.Errorf("CountSignificant = %d, want 2", got)
	}
}
