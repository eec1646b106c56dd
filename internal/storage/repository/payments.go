package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moodlog/moodlog-backend/internal/models"
)

const paymentColumns = `uuid, user_uid, subscription_uid, plan, amount, status,
		webkassa_order_id, webkassa_status, webkassa_receipt_id, completed_at, created_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.UUID,
		&p.UserUID,
		&p.SubscriptionUID,
		&p.Plan,
		&p.Amount,
		&p.Status,
		&p.WebkassaOrderID,
		&p.WebkassaStatus,
		&p.WebkassaReceiptID,
		&p.CompletedAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment сохраняет новый платёж в статусе pending.
func (s *Storage) CreatePayment(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	const op = "storage.CreatePayment"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        INSERT INTO payments (uuid, user_uid, plan, amount, status, webkassa_order_id, webkassa_status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+paymentColumns,
		uuid.NewString(), p.UserUID, p.Plan, p.Amount, models.PaymentStatusPending,
		p.WebkassaOrderID, p.WebkassaStatus)

	saved, err := scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// GetPaymentByOrderID возвращает платёж по идентификатору заказа в Webkassa.
func (s *Storage) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	const op = "storage.GetPaymentByOrderID"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        SELECT `+paymentColumns+`
        FROM payments
        WHERE webkassa_order_id = $1`,
		orderID)

	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// GetPayment возвращает платёж пользователя по идентификатору.
func (s *Storage) GetPayment(ctx context.Context, userUID, paymentUID string) (*models.Payment, error) {
	const op = "storage.GetPayment"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        SELECT `+paymentColumns+`
        FROM payments
        WHERE uuid = $1 AND user_uid = $2`,
		paymentUID, userUID)

	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// UpdatePaymentStatus переводит платёж в новый статус и фиксирует ответ Webkassa.
// Для завершённых платежей проставляется completed_at.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, paymentUID, status, webkassaStatus string) error {
	const op = "storage.UpdatePaymentStatus"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx, `
        UPDATE payments
        SET status = $2,
			webkassa_status = $3,
			completed_at = CASE WHEN $2 = $4 THEN now() ELSE completed_at END
        WHERE uuid = $1`,
		paymentUID, status, webkassaStatus, models.PaymentStatusCompleted)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AttachPaymentReceipt сохраняет идентификатор фискального чека.
func (s *Storage) AttachPaymentReceipt(ctx context.Context, paymentUID, receiptID string) error {
	const op = "storage.AttachPaymentReceipt"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx, `
        UPDATE payments
        SET webkassa_receipt_id = $2
        WHERE uuid = $1`,
		paymentUID, receiptID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AttachPaymentSubscription связывает платёж со строкой журнала подписок.
func (s *Storage) AttachPaymentSubscription(ctx context.Context, paymentUID, subscriptionUID string) error {
	const op = "storage.AttachPaymentSubscription"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx, `
        UPDATE payments
        SET subscription_uid = $2
        WHERE uuid = $1`,
		paymentUID, subscriptionUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SumCompletedPayments возвращает выручку по завершённым платежам за период.
func (s *Storage) SumCompletedPayments(ctx context.Context, from, to time.Time) (float64, int, error) {
	const op = "storage.SumCompletedPayments"

	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total sql.NullFloat64
	var count int
	err := s.DB.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(amount), 0), COUNT(*)
        FROM payments
        WHERE status = $1 AND completed_at >= $2 AND completed_at < $3`,
		models.PaymentStatusCompleted, from, to).Scan(&total, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total.Float64, count, nil
}
