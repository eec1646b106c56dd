package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/moodlog/moodlog-backend/internal/models"
)

const promoColumns = `uuid, code, plan, created_by, max_uses, uses_count,
		used_by, used_at, is_used, expires_at, created_at`

func scanPromoCode(row interface{ Scan(...any) error }) (*models.PromoCode, error) {
	var pc models.PromoCode
	err := row.Scan(
		&pc.UUID,
		&pc.Code,
		&pc.Plan,
		&pc.CreatedBy,
		&pc.MaxUses,
		&pc.UsesCount,
		&pc.UsedBy,
		&pc.UsedAt,
		&pc.IsUsed,
		&pc.ExpiresAt,
		&pc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

// CreatePromoCode сохраняет новый промокод.
func (s *Storage) CreatePromoCode(ctx context.Context, pc *models.PromoCode) (*models.PromoCode, error) {
	const op = "storage.CreatePromoCode"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        INSERT INTO promo_codes (uuid, code, plan, created_by, max_uses, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+promoColumns,
		uuid.NewString(), pc.Code, pc.Plan, pc.CreatedBy, pc.MaxUses, pc.ExpiresAt)

	saved, err := scanPromoCode(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// GetPromoCode возвращает промокод по коду.
func (s *Storage) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	const op = "storage.GetPromoCode"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        SELECT `+promoColumns+`
        FROM promo_codes
        WHERE code = $1`,
		code)

	pc, err := scanPromoCode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pc, nil
}

// ListPromoCodes возвращает все промокоды, новые сверху.
func (s *Storage) ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error) {
	const op = "storage.ListPromoCodes"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `
        SELECT `+promoColumns+`
        FROM promo_codes
        ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var codes []*models.PromoCode
	for rows.Next() {
		pc, err := scanPromoCode(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		codes = append(codes, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return codes, nil
}

// RemovePromoCode удаляет промокод. Возвращает true, если строка существовала.
func (s *Storage) RemovePromoCode(ctx context.Context, promoUID string) (bool, error) {
	const op = "storage.RemovePromoCode"

	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM promo_codes WHERE uuid = $1`, promoUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected > 0, nil
}

// RedeemPromoCode атомарно расходует одно использование промокода.
// Условие uses_count < max_uses в самом UPDATE защищает от гонки двух
// одновременных активаций исчерпанного кода. Возвращает обновлённый
// промокод или nil, если код уже исчерпан или истёк.
func (s *Storage) RedeemPromoCode(ctx context.Context, code, userUID string) (*models.PromoCode, error) {
	const op = "storage.RedeemPromoCode"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        UPDATE promo_codes
        SET uses_count = uses_count + 1,
			used_by = $2,
			used_at = now(),
			is_used = (uses_count + 1 >= max_uses)
        WHERE code = $1
			AND uses_count < max_uses
			AND (expires_at IS NULL OR expires_at > now())
        RETURNING `+promoColumns,
		code, userUID)

	pc, err := scanPromoCode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pc, nil
}
