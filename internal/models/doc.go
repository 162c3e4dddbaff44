// Package models defines the ledger records shared by the storage backends, the balance
// engine and the RPC layer.
//
// # Ledger records
//
// The ledger-management side owns and mutates these:
//   - User: a person who can belong to groups
//   - Group: a set of members sharing expenses; friend groups are hidden two-person groups
//   - Membership: a user's (possibly inactive) seat in a group
//   - Expense and ExpenseSplit: one shared cost and each participant's share of it
//   - Payment: a peer-to-peer transfer with a confirmation status
//
// # Derived records
//
// The balance engine only reads a snapshot of the records above and produces:
//   - SettlementSuggestion: a single payment that would reduce net debt
//
// # Conventions
//
//  1. Money is always decimal.Decimal, never float64
//  2. Relationships are ID strings, not pointers
//  3. Timestamps are Unix seconds, calendar dates are time.Time at midnight UTC
package models
