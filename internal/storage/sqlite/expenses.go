package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = `id, group_id, description, category, amount, payer_id, split_type, date, is_deleted, created_by, created_at`

// CreateExpense inserts an expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, splits []models.ExpenseSplit) error {
	if _, err := s.GetGroup(ctx, expense.GroupID); err != nil {
		return err
	}

	expense.ID = newID(expense.ID)
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Description, expense.Category, expense.Amount.String(), expense.PayerID,
		string(expense.SplitType), formatDate(expense.Date), expense.IsDeleted, expense.CreatedBy, expense.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: expense %s", storage.ErrConflict, expense.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, split := range splits {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expense_splits (expense_id, user_id, amount, shares, percentage) VALUES (?, ?, ?, ?, ?)`,
			expense.ID, split.UserID, split.Amount.String(), split.Shares, split.Percentage.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (models.Expense, error) {
	var (
		e         models.Expense
		splitType string
		date      string
	)
	if err := row.Scan(&e.ID, &e.GroupID, &e.Description, &e.Category, &e.Amount, &e.PayerID,
		&splitType, &date, &e.IsDeleted, &e.CreatedBy, &e.CreatedAt); err != nil {
		return e, err
	}
	e.SplitType = models.SplitType(splitType)
	d, err := parseDate(date)
	if err != nil {
		return e, err
	}
	e.Date = d
	return e, nil
}

// GetExpense retrieves an expense and its splits, including soft-deleted expenses.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, []models.ExpenseSplit, error) {
	e, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, expenseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get expense: %w", err)
	}

	splits, err := s.querySplits(ctx,
		`SELECT expense_id, user_id, amount, shares, percentage FROM expense_splits WHERE expense_id = ? ORDER BY rowid`,
		expenseID,
	)
	if err != nil {
		return nil, nil, err
	}
	return &e, splits, nil
}

// DeleteExpense soft-deletes an expense.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE expenses SET is_deleted = 1 WHERE id = ?`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// ListNonDeletedExpenses returns the group's live expenses within the date range.
func (s *SQLiteStore) ListNonDeletedExpenses(ctx context.Context, groupID string, dates storage.DateRange) ([]models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE group_id = ? AND is_deleted = 0`
	args := []any{groupID}
	if !dates.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, dates.From.Format(dateLayout))
	}
	if !dates.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, dates.To.Format(dateLayout))
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// ListSplits returns the splits of every non-deleted expense in the group.
func (s *SQLiteStore) ListSplits(ctx context.Context, groupID string) ([]models.ExpenseSplit, error) {
	return s.querySplits(ctx,
		`SELECT es.expense_id, es.user_id, es.amount, es.shares, es.percentage
		 FROM expense_splits es
		 JOIN expenses e ON e.id = es.expense_id
		 WHERE e.group_id = ? AND e.is_deleted = 0
		 ORDER BY e.created_at, e.rowid, es.rowid`,
		groupID,
	)
}

func (s *SQLiteStore) querySplits(ctx context.Context, query string, args ...any) ([]models.ExpenseSplit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []models.ExpenseSplit
	for rows.Next() {
		var split models.ExpenseSplit
		if err := rows.Scan(&split.ExpenseID, &split.UserID, &split.Amount, &split.Shares, &split.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}
