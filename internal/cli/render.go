package cli

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/mmynk/splitledger/internal/balance"
	"github.com/mmynk/splitledger/internal/money"
)

// Text views over the balance package results. JSON output encodes the same structs.
type (
	overviewView       balance.Overview
	groupView          balance.GroupSummary
	planView           balance.SettlementPlan
	simplificationView balance.Simplification
	friendsView        balance.Friends

	groupAnalyticsView   balance.GroupAnalytics
	friendsAnalyticsView balance.FriendsAnalytics
)

func writeTotals(w io.Writer, t balance.Totals, unit currency.Unit) {
	fmt.Fprintf(w, "Total balance: %s\n", money.Format(t.TotalBalance, unit))
	fmt.Fprintf(w, "You are owed: %s\n", money.Format(t.YouAreOwed, unit))
	fmt.Fprintf(w, "You owe: %s\n", money.Format(t.YouOwe, unit))
}

func writeBalance(w io.Writer, name string, b decimal.Decimal, unit currency.Unit) {
	switch {
	case money.Negligible(b):
		fmt.Fprintf(w, "  %s: settled up\n", name)
	case b.IsPositive():
		fmt.Fprintf(w, "  %s owes you %s\n", name, money.Format(b, unit))
	default:
		fmt.Fprintf(w, "  you owe %s %s\n", name, money.Format(b.Neg(), unit))
	}
}

func writeSettlement(w io.Writer, s balance.Settlement, unit currency.Unit) {
	fmt.Fprintf(w, "  %s pays %s %s\n", displayName(s.FromUserName, s.FromUserID), displayName(s.ToUserName, s.ToUserID), money.Format(s.Amount, unit))
}

func displayName(name, id string) string {
	if name == "" {
		return id
	}
	return name
}

func (v *groupView) renderText(w io.Writer, unit currency.Unit) {
	if len(v.Balances) == 0 {
		fmt.Fprintf(w, "%s: settled up\n", v.GroupName)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", v.GroupName, money.Format(v.TotalBalance, unit))
	for _, b := range v.Balances {
		writeBalance(w, displayName(b.UserName, b.UserID), b.Balance, unit)
	}
}

func (v *overviewView) renderText(w io.Writer, unit currency.Unit) {
	writeTotals(w, v.Totals, unit)
	if len(v.Groups) == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "No outstanding balances")
		return
	}
	for i := range v.Groups {
		fmt.Fprintln(w)
		(*groupView)(&v.Groups[i]).renderText(w, unit)
	}
}

func (v *planView) renderText(w io.Writer, unit currency.Unit) {
	fmt.Fprintln(w, displayName(v.GroupName, v.GroupID))
	if len(v.Suggestions) == 0 {
		fmt.Fprintln(w, "  All settled up")
		return
	}
	for _, s := range v.Suggestions {
		writeSettlement(w, s, unit)
	}
	fmt.Fprintf(w, "  transactions: %d (original %d, saved %d)\n",
		v.SimplifiedTransactionCount, v.OriginalTransactionCount, v.TransactionsSaved)
}

func (v *simplificationView) renderText(w io.Writer, unit currency.Unit) {
	fmt.Fprintln(w, displayName(v.GroupName, v.GroupID))
	if len(v.OriginalDebts) == 0 {
		fmt.Fprintln(w, "  All settled up")
		return
	}
	fmt.Fprintln(w, "Net positions:")
	for _, p := range v.OriginalDebts {
		fmt.Fprintf(w, "  %s %s\n", displayName(p.UserName, p.UserID), money.Format(p.Balance, unit))
	}
	fmt.Fprintln(w, "Payments:")
	for _, s := range v.SimplifiedDebts {
		writeSettlement(w, s, unit)
	}
	fmt.Fprintf(w, "Transactions saved: %d\n", v.TransactionsSaved)
}

func (v *friendsView) renderText(w io.Writer, unit currency.Unit) {
	writeTotals(w, v.Totals, unit)
	fmt.Fprintln(w)
	if len(v.Friends) == 0 {
		fmt.Fprintln(w, "No friends yet")
		return
	}
	for _, f := range v.Friends {
		writeBalance(w, displayName(f.UserName, f.UserID), f.Balance, unit)
	}
}

// writeReport renders the figures shared by group and friends analytics.
func writeReport(w io.Writer, title string, r balance.SpendingReport, unit currency.Unit) bool {
	fmt.Fprintf(w, "%s (%s: %s to %s)\n", title, r.Period, r.StartDate, r.EndDate)
	if r.ExpenseCount == 0 {
		fmt.Fprintln(w, "  No expenses in this period")
		return false
	}
	fmt.Fprintf(w, "Total spending: %s across %d expense(s)\n", money.Format(r.TotalSpending, unit), r.ExpenseCount)
	fmt.Fprintf(w, "Average expense: %s\n", money.Format(r.AverageExpense, unit))
	fmt.Fprintf(w, "Top category: %s\n", r.TopCategory)

	fmt.Fprintln(w, "By category:")
	for _, c := range r.CategoryBreakdown {
		fmt.Fprintf(w, "  %s %s (%s%%, %d expense(s))\n", c.Category, money.Format(c.Amount, unit), c.Percentage.StringFixed(1), c.ExpenseCount)
	}
	fmt.Fprintln(w, "By day:")
	for _, d := range r.SpendingOverTime {
		fmt.Fprintf(w, "  %s %s (%d)\n", d.Date, money.Format(d.Amount, unit), d.ExpenseCount)
	}
	return true
}

func (v *groupAnalyticsView) renderText(w io.Writer, unit currency.Unit) {
	if !writeReport(w, displayName(v.GroupName, v.GroupID), v.SpendingReport, unit) {
		return
	}
	fmt.Fprintln(w, "Members:")
	for _, m := range v.MemberContributions {
		fmt.Fprintf(w, "  %s paid %s, share %s, net %s\n", displayName(m.UserName, m.UserID),
			money.Format(m.TotalPaid, unit), money.Format(m.TotalShare, unit), money.Format(m.NetContribution, unit))
	}
}

func (v *friendsAnalyticsView) renderText(w io.Writer, unit currency.Unit) {
	if !writeReport(w, "Friends", v.SpendingReport, unit) {
		return
	}
	fmt.Fprintln(w, "By friend:")
	for _, f := range v.FriendBreakdown {
		fmt.Fprintf(w, "  %s %s (%d expense(s))\n", displayName(f.FriendName, f.FriendID), money.Format(f.TotalSpent, unit), f.ExpenseCount)
	}
}
