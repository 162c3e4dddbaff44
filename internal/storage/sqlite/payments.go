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

const paymentColumns = `id, group_id, payer_id, receiver_id, amount, status, description, date, created_at, updated_at`

// CreatePayment inserts a new payment. Status defaults to pending.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.GroupID, payment.PayerID, payment.ReceiverID, payment.Amount.String(),
		string(payment.Status), payment.Description, formatDate(payment.Date), payment.CreatedAt, payment.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: payment %s", storage.ErrConflict, payment.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func scanPayment(row rowScanner) (models.Payment, error) {
	var (
		p           models.Payment
		status      string
		description sql.NullString
		date        string
	)
	if err := row.Scan(&p.ID, &p.GroupID, &p.PayerID, &p.ReceiverID, &p.Amount,
		&status, &description, &date, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, err
	}
	p.Status = models.PaymentStatus(status)
	p.Description = description.String
	d, err := parseDate(date)
	if err != nil {
		return p, err
	}
	p.Date = d
	return p, nil
}

// GetPayment retrieves a payment by ID.
func (s *SQLiteStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// UpdatePaymentStatus sets a payment's status and bumps updated_at, provided the
// stored status still equals from.
func (s *SQLiteStore) UpdatePaymentStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), time.Now().Unix(), paymentID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := s.GetPayment(ctx, paymentID); err != nil {
			return err
		}
		return fmt.Errorf("%w: payment %s is no longer %s", models.ErrInvalidTransition, paymentID, from)
	}
	return nil
}

// ListConfirmedPayments returns the group's confirmed payments.
func (s *SQLiteStore) ListConfirmedPayments(ctx context.Context, groupID string) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE group_id = ? AND status = ? ORDER BY created_at, rowid`,
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
