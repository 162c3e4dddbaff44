package calculator

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/money"
)

// Uncategorized labels expenses recorded without a category.
const Uncategorized = "Other"

// CategoryTotal is the spending recorded under one category.
type CategoryTotal struct {
	Category     string
	Amount       decimal.Decimal
	ExpenseCount int
}

// DailyTotal is the spending recorded on one calendar day.
type DailyTotal struct {
	Date         time.Time
	Amount       decimal.Decimal
	ExpenseCount int
}

// Spending aggregates the live expenses of a snapshot. Payments are not spending and
// are ignored.
type Spending struct {
	Total        decimal.Decimal
	ExpenseCount int

	// Categories is ordered by amount, largest first, then by name.
	Categories []CategoryTotal

	// Daily is ordered by date and only holds days with at least one expense.
	Daily []DailyTotal

	// Paid and Share map user IDs to the amount they paid and the amount of their splits.
	Paid  map[string]decimal.Decimal
	Share map[string]decimal.Decimal
}

// SummarizeSpending totals the snapshot's live expenses by category, by day and by member.
func SummarizeSpending(snap Snapshot) Spending {
	out := Spending{
		Paid:  make(map[string]decimal.Decimal),
		Share: make(map[string]decimal.Decimal),
	}
	live := snap.liveExpenses()

	categories := make(map[string]*CategoryTotal)
	days := make(map[time.Time]*DailyTotal)
	for _, e := range snap.Expenses {
		if _, ok := live[e.ID]; !ok {
			continue
		}
		out.Total = out.Total.Add(e.Amount)
		out.ExpenseCount++
		out.Paid[e.PayerID] = out.Paid[e.PayerID].Add(e.Amount)

		name := CategoryName(e.Category)
		c, ok := categories[name]
		if !ok {
			c = &CategoryTotal{Category: name}
			categories[name] = c
		}
		c.Amount = c.Amount.Add(e.Amount)
		c.ExpenseCount++

		d, ok := days[e.Date]
		if !ok {
			d = &DailyTotal{Date: e.Date}
			days[e.Date] = d
		}
		d.Amount = d.Amount.Add(e.Amount)
		d.ExpenseCount++
	}

	for _, split := range snap.Splits {
		if _, ok := live[split.ExpenseID]; !ok {
			continue
		}
		out.Share[split.UserID] = out.Share[split.UserID].Add(split.Amount)
	}

	for _, c := range categories {
		out.Categories = append(out.Categories, *c)
	}
	slices.SortFunc(out.Categories, func(a, b CategoryTotal) int {
		return cmp.Or(b.Amount.Cmp(a.Amount), cmp.Compare(a.Category, b.Category))
	})

	for _, date := range slices.SortedFunc(maps.Keys(days), time.Time.Compare) {
		out.Daily = append(out.Daily, *days[date])
	}
	return out
}

// CategoryName normalizes a stored category for grouping.
func CategoryName(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return Uncategorized
}

// Percentage is part as a share of total, rounded half-even to one decimal place.
// A non-positive total yields zero.
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(decimal.NewFromInt(100)).DivRound(total, 8).RoundBank(1)
}

// Average is total divided by count, rounded half-even to cents. A zero count yields zero.
func Average(total decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(count)), 8).RoundBank(money.Places)
}
