package plan

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/moodlog/moodlog-backend/internal/models"
)

var (
	// ErrPromoNotFound возвращается, когда промокод не существует.
	ErrPromoNotFound = errors.New("promo code not found")
	// ErrPromoUnavailable возвращается для исчерпанного или истекшего промокода.
	ErrPromoUnavailable = errors.New("promo code is exhausted or expired")
	// ErrPromoNotEligible возвращается пользователям с действующим платным планом.
	ErrPromoNotEligible = errors.New("promo codes are available only on free or trial plan")
)

// Алфавит промокодов без похожих символов: исключены 0, O, I и 1.
const promoAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const promoCodeLength = 12

// CreatePromo создает промокод. Пустой код в запросе означает,
// что код нужно сгенерировать.
func (s *PlanService) CreatePromo(ctx context.Context, adminUID string, req models.DummyPromoCode) (*models.PromoCode, error) {
	const op = "plan.CreatePromo"

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		generated, err := generatePromoCode()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		code = generated
	}

	pc, err := s.repo.CreatePromoCode(ctx, &models.PromoCode{
		Code:      code,
		Plan:      req.Plan,
		CreatedBy: adminUID,
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("promo code created",
		slog.String("code", pc.Code),
		slog.String("plan", pc.Plan),
		slog.Int("max_uses", pc.MaxUses))

	return pc, nil
}

// ListPromos возвращает все промокоды для административной панели.
func (s *PlanService) ListPromos(ctx context.Context) ([]*models.PromoCode, error) {
	const op = "plan.ListPromos"

	codes, err := s.repo.ListPromoCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return codes, nil
}

// RemovePromo удаляет промокод по идентификатору.
func (s *PlanService) RemovePromo(ctx context.Context, promoUID string) error {
	const op = "plan.RemovePromo"

	removed, err := s.repo.RemovePromoCode(ctx, promoUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !removed {
		return ErrPromoNotFound
	}
	return nil
}

// RedeemPromo активирует план по промокоду. Активация доступна только
// пользователям на бесплатном или пробном плане. Списание использования
// атомарно, параллельные активации не превысят max_uses.
func (s *PlanService) RedeemPromo(ctx context.Context, userUID, code string) (*Status, error) {
	const op = "plan.RedeemPromo"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err = s.expireIfNeeded(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Plan != models.PlanFree && user.Plan != models.PlanTrial {
		return nil, ErrPromoNotEligible
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	pc, err := s.repo.GetPromoCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if pc == nil {
		return nil, ErrPromoNotFound
	}

	redeemed, err := s.repo.RedeemPromoCode(ctx, code, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if redeemed == nil {
		return nil, ErrPromoUnavailable
	}

	if _, err := s.activatePlan(ctx, user, redeemed.Plan); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("promo code redeemed",
		slog.String("user_uid", userUID),
		slog.String("code", code),
		slog.String("plan", redeemed.Plan))

	user, err = s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return statusOf(user), nil
}

// generatePromoCode возвращает случайный код из 12 символов алфавита.
func generatePromoCode() (string, error) {
	var sb strings.Builder
	sb.Grow(promoCodeLength)
	max := big.NewInt(int64(len(promoAlphabet)))
	for i := 0; i < promoCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(promoAlphabet[n.Int64()])
	}
	return sb.String(), nil
}
