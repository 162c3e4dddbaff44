package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = `id, group_id, description, category, amount::text, payer_id, split_type, date, is_deleted, created_by, created_at`

// CreateExpense inserts an expense and its splits in one transaction.
func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense, splits []models.ExpenseSplit) error {
	if _, err := s.GetGroup(ctx, expense.GroupID); err != nil {
		return err
	}

	expense.ID = newID(expense.ID)
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO expenses (id, group_id, description, category, amount, payer_id, split_type, date, is_deleted, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7, $8, $9, $10, $11)`,
		expense.ID, expense.GroupID, expense.Description, expense.Category, expense.Amount.String(), expense.PayerID,
		string(expense.SplitType), dateOrToday(expense.Date), expense.IsDeleted, expense.CreatedBy, expense.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: expense %s", storage.ErrConflict, expense.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	batch := &pgx.Batch{}
	for _, split := range splits {
		batch.Queue(
			`INSERT INTO expense_splits (expense_id, user_id, amount, shares, percentage)
			 VALUES ($1, $2, $3::text::numeric, $4, $5::text::numeric)`,
			expense.ID, split.UserID, split.Amount.String(), split.Shares, split.Percentage.String(),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert splits: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanExpense(row pgx.Row) (models.Expense, error) {
	var (
		e         models.Expense
		amount    string
		splitType string
	)
	if err := row.Scan(&e.ID, &e.GroupID, &e.Description, &e.Category, &amount, &e.PayerID,
		&splitType, &e.Date, &e.IsDeleted, &e.CreatedBy, &e.CreatedAt); err != nil {
		return e, err
	}
	e.SplitType = models.SplitType(splitType)
	d, err := parseAmount(amount)
	if err != nil {
		return e, err
	}
	e.Amount = d
	return e, nil
}

// GetExpense retrieves an expense and its splits, including soft-deleted expenses.
func (s *PostgresStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, []models.ExpenseSplit, error) {
	e, err := scanExpense(s.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, expenseID))
	if isNoRows(err) {
		return nil, nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get expense: %w", err)
	}

	splits, err := s.querySplits(ctx,
		`SELECT expense_id, user_id, amount::text, shares, percentage::text
		 FROM expense_splits WHERE expense_id = $1 ORDER BY seq`,
		expenseID,
	)
	if err != nil {
		return nil, nil, err
	}
	return &e, splits, nil
}

// DeleteExpense soft-deletes an expense.
func (s *PostgresStore) DeleteExpense(ctx context.Context, expenseID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE expenses SET is_deleted = TRUE WHERE id = $1`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// ListNonDeletedExpenses returns the group's live expenses within the date range.
func (s *PostgresStore) ListNonDeletedExpenses(ctx context.Context, groupID string, dates storage.DateRange) ([]models.Expense, error) {
	var from, to *time.Time
	if !dates.From.IsZero() {
		from = &dates.From
	}
	if !dates.To.IsZero() {
		to = &dates.To
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE group_id = $1 AND NOT is_deleted
		   AND ($2::date IS NULL OR date >= $2::date)
		   AND ($3::date IS NULL OR date <= $3::date)
		 ORDER BY seq`,
		groupID, from, to,
	)
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
func (s *PostgresStore) ListSplits(ctx context.Context, groupID string) ([]models.ExpenseSplit, error) {
	return s.querySplits(ctx,
		`SELECT es.expense_id, es.user_id, es.amount::text, es.shares, es.percentage::text
		 FROM expense_splits es
		 JOIN expenses e ON e.id = es.expense_id
		 WHERE e.group_id = $1 AND NOT e.is_deleted
		 ORDER BY e.seq, es.seq`,
		groupID,
	)
}

func (s *PostgresStore) querySplits(ctx context.Context, query string, args ...any) ([]models.ExpenseSplit, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []models.ExpenseSplit
	for rows.Next() {
		var (
			split       models.ExpenseSplit
			amount, pct string
		)
		if err := rows.Scan(&split.ExpenseID, &split.UserID, &amount, &split.Shares, &pct); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		if split.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if split.Percentage, err = parseAmount(pct); err != nil {
			return nil, err
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}

const paymentColumns = `id, group_id, payer_id, receiver_id, amount::text, status, description, date, created_at, updated_at`

// CreatePayment inserts a new payment. Status defaults to pending.
func (s *PostgresStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if _, err := s.GetGroup(ctx, payment.GroupID); err != nil {
		return err
	}

	payment.ID = newID(payment.ID)
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}
	payment.UpdatedAt = payment.CreatedAt
	if payment.Status == "" {
		payment.Status = models.PaymentPending
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO payments (id, group_id, payer_id, receiver_id, amount, status, description, date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7, $8, $9, $10)`,
		payment.ID, payment.GroupID, payment.PayerID, payment.ReceiverID, payment.Amount.String(),
		string(payment.Status), payment.Description, dateOrToday(payment.Date), payment.CreatedAt, payment.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: payment %s", storage.ErrConflict, payment.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func scanPayment(row pgx.Row) (models.Payment, error) {
	var (
		p      models.Payment
		amount string
		status string
	)
	if err := row.Scan(&p.ID, &p.GroupID, &p.PayerID, &p.ReceiverID, &amount,
		&status, &p.Description, &p.Date, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, err
	}
	p.Status = models.PaymentStatus(status)
	d, err := parseAmount(amount)
	if err != nil {
		return p, err
	}
	p.Amount = d
	return p, nil
}

// GetPayment retrieves a payment by ID.
func (s *PostgresStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	p, err := scanPayment(s.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID))
	if isNoRows(err) {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// UpdatePaymentStatus sets a payment's status and bumps updated_at, provided the
// stored status still equals from.
func (s *PostgresStore) UpdatePaymentStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(to), time.Now().Unix(), paymentID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetPayment(ctx, paymentID); err != nil {
			return err
		}
		return fmt.Errorf("%w: payment %s is no longer %s", models.ErrInvalidTransition, paymentID, from)
	}
	return nil
}

// ListConfirmedPayments returns the group's confirmed payments.
func (s *PostgresStore) ListConfirmedPayments(ctx context.Context, groupID string) ([]models.Payment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE group_id = $1 AND status = $2 ORDER BY seq`,
		groupID, string(models.PaymentConfirmed),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}
