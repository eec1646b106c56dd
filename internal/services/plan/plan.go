// Package plan реализует тарифные планы: пробный период, покупку
// подписки через Webkassa, обработку вебхуков об оплате и промокоды.
package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/paymentgateway"
)

var (
	// ErrPlanNotFound возвращается при запросе неизвестного плана.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrPlanNotPurchasable возвращается при попытке купить бесплатный или пробный план.
	ErrPlanNotPurchasable = errors.New("plan is not purchasable")
	// ErrTrialUsed возвращается, когда пробный период уже был активирован ранее.
	ErrTrialUsed = errors.New("trial already used")
	// ErrAlreadySubscribed возвращается при активации пробного периода поверх платного плана.
	ErrAlreadySubscribed = errors.New("user already has an active paid plan")
	// ErrPaymentNotFound возвращается, когда платёж не найден.
	ErrPaymentNotFound = errors.New("payment not found")
)

// Статусы заказа на стороне Webkassa.
const (
	gatewayStatusCompleted = "completed"
	gatewayStatusPending   = "pending"
)

// PlanRepository описывает операции хранилища, необходимые сервису планов.
type PlanRepository interface {
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
	UpdateUserPlan(ctx context.Context, userUID, plan string,
		startedAt, expiresAt time.Time, trialUsed bool, status string) error
	CreatePayment(ctx context.Context, p *models.Payment) (*models.Payment, error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	GetPayment(ctx context.Context, userUID, paymentUID string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentUID, status, webkassaStatus string) error
	AttachPaymentReceipt(ctx context.Context, paymentUID, receiptID string) error
	AttachPaymentSubscription(ctx context.Context, paymentUID, subscriptionUID string) error
	AppendSubscription(ctx context.Context, userUID, plan, status string,
		startedAt, expiresAt time.Time) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, userUID string) ([]*models.Subscription, error)
	CreatePromoCode(ctx context.Context, pc *models.PromoCode) (*models.PromoCode, error)
	GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error)
	ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error)
	RemovePromoCode(ctx context.Context, promoUID string) (bool, error)
	RedeemPromoCode(ctx context.Context, code, userUID string) (*models.PromoCode, error)
}

// Gateway описывает операции платёжного шлюза Webkassa.
type Gateway interface {
	CreateOrder(ctx context.Context, orderID string, amount float64,
		description, returnURL string) (*paymentgateway.CreateOrderResponse, error)
	CheckStatus(ctx context.Context, orderID string) (*paymentgateway.OrderStatusResponse, error)
	IssueReceipt(ctx context.Context, orderID string, amount float64,
		itemName string) (*paymentgateway.IssueReceiptResponse, error)
}

// PlanService управляет тарифами, платежами и промокодами.
type PlanService struct {
	repo      PlanRepository
	gateway   Gateway
	returnURL string
	log       *slog.Logger
}

// New создает сервис планов. returnURL указывает, куда Webkassa
// вернет пользователя после оплаты.
func New(repo PlanRepository, gateway Gateway, returnURL string, log *slog.Logger) *PlanService {
	return &PlanService{repo: repo, gateway: gateway, returnURL: returnURL, log: log}
}

// Status описывает текущее состояние подписки пользователя.
type Status struct {
	Plan               string          `json:"plan"`
	SubscriptionStatus string          `json:"subscription_status"`
	PlanStartedAt      *time.Time      `json:"plan_started_at,omitempty"`
	PlanExpiresAt      *time.Time      `json:"plan_expires_at,omitempty"`
	TrialUsed          bool            `json:"trial_used"`
	Features           map[string]bool `json:"features"`
}

// SubscribeResult содержит платёжную ссылку для перехода к оплате.
type SubscribeResult struct {
	PaymentUID string  `json:"payment_uid"`
	PaymentURL string  `json:"payment_url"`
	Plan       string  `json:"plan"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

// Plans возвращает список доступных тарифов в фиксированном порядке.
func (s *PlanService) Plans() []Info {
	plans := make([]Info, 0, len(planOrder))
	for _, name := range planOrder {
		plans = append(plans, planConfig[name])
	}
	return plans
}

// Current возвращает состояние подписки пользователя. Истекший платный
// или пробный план при обращении переводится на free.
func (s *PlanService) Current(ctx context.Context, userUID string) (*Status, error) {
	const op = "plan.Current"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err = s.expireIfNeeded(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return statusOf(user), nil
}

// HasFeature сообщает, доступна ли фича на плане пользователя.
// Истекший план считается бесплатным.
func (s *PlanService) HasFeature(ctx context.Context, userUID, feature string) (bool, error) {
	const op = "plan.HasFeature"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return featuresOf(user)[feature], nil
}

// StartTrial активирует пробный период на 14 дней. Доступен один раз
// и только пользователям на бесплатном плане.
func (s *PlanService) StartTrial(ctx context.Context, userUID string) (*Status, error) {
	const op = "plan.StartTrial"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.TrialUsed {
		return nil, ErrTrialUsed
	}
	user, err = s.expireIfNeeded(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Plan != models.PlanFree {
		return nil, ErrAlreadySubscribed
	}

	if _, err := s.activatePlan(ctx, user, models.PlanTrial); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err = s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return statusOf(user), nil
}

// Subscribe создает заказ в Webkassa и ожидающий платёж,
// возвращая ссылку для оплаты.
func (s *PlanService) Subscribe(ctx context.Context, userUID string, req models.DummySubscribe) (*SubscribeResult, error) {
	const op = "plan.Subscribe"

	info, ok := planConfig[req.Plan]
	if !ok {
		return nil, ErrPlanNotFound
	}
	if info.Price <= 0 {
		return nil, ErrPlanNotPurchasable
	}

	orderID := uuid.NewString()
	order, err := s.gateway.CreateOrder(ctx, orderID, info.Price, planDescription(info), s.returnURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	payment, err := s.repo.CreatePayment(ctx, &models.Payment{
		UserUID:         userUID,
		Plan:            info.Name,
		Amount:          info.Price,
		WebkassaOrderID: orderID,
		WebkassaStatus:  order.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment order created",
		slog.String("user_uid", userUID),
		slog.String("plan", info.Name),
		slog.String("order_id", orderID))

	return &SubscribeResult{
		PaymentUID: payment.UUID,
		PaymentURL: order.PaymentURL,
		Plan:       info.Name,
		Amount:     info.Price,
		Currency:   info.Currency,
	}, nil
}

// ProcessWebhook обрабатывает уведомление Webkassa об изменении заказа.
// Повторная доставка для уже обработанного платежа игнорируется.
func (s *PlanService) ProcessWebhook(ctx context.Context, req models.DummyWebhook) error {
	const op = "plan.ProcessWebhook"

	payment, err := s.repo.GetPaymentByOrderID(ctx, req.OrderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if payment == nil {
		return ErrPaymentNotFound
	}
	if payment.Status != models.PaymentStatusPending {
		s.log.Info("webhook for already processed payment ignored",
			slog.String("order_id", req.OrderID),
			slog.String("status", payment.Status))
		return nil
	}

	if req.Status != gatewayStatusCompleted {
		if err := s.repo.UpdatePaymentStatus(ctx, payment.UUID, models.PaymentStatusFailed, req.Status); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	if err := s.repo.UpdatePaymentStatus(ctx, payment.UUID, models.PaymentStatusCompleted, req.Status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.finalizePayment(ctx, payment)
	return nil
}

// PaymentStatus возвращает платёж пользователя, при необходимости
// сверяя ожидающий платёж со шлюзом.
func (s *PlanService) PaymentStatus(ctx context.Context, userUID, paymentUID string) (*models.Payment, error) {
	const op = "plan.PaymentStatus"

	payment, err := s.repo.GetPayment(ctx, userUID, paymentUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.Status != models.PaymentStatusPending {
		return payment, nil
	}

	order, err := s.gateway.CheckStatus(ctx, payment.WebkassaOrderID)
	if err != nil {
		s.log.Warn("failed to check order status", sl.Err(err),
			slog.String("order_id", payment.WebkassaOrderID))
		return payment, nil
	}

	switch order.Status {
	case gatewayStatusCompleted:
		if err := s.repo.UpdatePaymentStatus(ctx, payment.UUID, models.PaymentStatusCompleted, order.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.finalizePayment(ctx, payment)
	case gatewayStatusPending:
		// Заказ все еще ожидает оплаты, ничего не меняем.
	default:
		if err := s.repo.UpdatePaymentStatus(ctx, payment.UUID, models.PaymentStatusFailed, order.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	payment, err = s.repo.GetPayment(ctx, userUID, paymentUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payment, nil
}

// History возвращает журнал активаций планов пользователя.
func (s *PlanService) History(ctx context.Context, userUID string) ([]*models.Subscription, error) {
	const op = "plan.History"

	subs, err := s.repo.ListSubscriptions(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// finalizePayment выполняет шаги после подтверждения оплаты: выпуск чека,
// активацию плана и запись в журнал подписок. Платёж уже помечен
// завершённым, поэтому ошибки этих шагов логируются, но не прерывают
// обработку.
func (s *PlanService) finalizePayment(ctx context.Context, payment *models.Payment) {
	info := planConfig[payment.Plan]

	receipt, err := s.gateway.IssueReceipt(ctx, payment.WebkassaOrderID, payment.Amount, planDescription(info))
	if err != nil {
		s.log.Error("failed to issue receipt", sl.Err(err),
			slog.String("order_id", payment.WebkassaOrderID))
	} else if err := s.repo.AttachPaymentReceipt(ctx, payment.UUID, receipt.ReceiptID); err != nil {
		s.log.Error("failed to attach receipt to payment", sl.Err(err),
			slog.String("payment_uid", payment.UUID))
	}

	user, err := s.repo.GetUserByUID(ctx, payment.UserUID)
	if err != nil {
		s.log.Error("failed to load user for plan activation", sl.Err(err),
			slog.String("user_uid", payment.UserUID))
		return
	}

	sub, err := s.activatePlan(ctx, user, payment.Plan)
	if err != nil {
		s.log.Error("failed to activate plan after payment", sl.Err(err),
			slog.String("user_uid", payment.UserUID),
			slog.String("plan", payment.Plan))
		return
	}

	if err := s.repo.AttachPaymentSubscription(ctx, payment.UUID, sub.UUID); err != nil {
		s.log.Error("failed to attach subscription to payment", sl.Err(err),
			slog.String("payment_uid", payment.UUID))
	}

	s.log.Info("plan activated",
		slog.String("user_uid", payment.UserUID),
		slog.String("plan", payment.Plan))
}

// activatePlan переводит пользователя на план и добавляет строку
// в журнал подписок. Пробный период помечает trial_used.
func (s *PlanService) activatePlan(ctx context.Context, user *models.User, planName string) (*models.Subscription, error) {
	info, ok := planConfig[planName]
	if !ok {
		return nil, ErrPlanNotFound
	}

	startedAt := time.Now().UTC()
	expiresAt := startedAt.AddDate(0, 0, info.DurationDays)
	trialUsed := user.TrialUsed || planName == models.PlanTrial

	err := s.repo.UpdateUserPlan(ctx, user.UUID, planName,
		startedAt, expiresAt, trialUsed, models.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}

	return s.repo.AppendSubscription(ctx, user.UUID, planName,
		models.SubscriptionStatusActive, startedAt, expiresAt)
}

// expireIfNeeded переводит пользователя с истекшего плана на free.
func (s *PlanService) expireIfNeeded(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Plan == models.PlanFree ||
		user.PlanExpiresAt == nil || user.PlanExpiresAt.After(time.Now()) {
		return user, nil
	}

	now := time.Now().UTC()
	err := s.repo.UpdateUserPlan(ctx, user.UUID, models.PlanFree,
		now, now, user.TrialUsed, models.SubscriptionStatusExpired)
	if err != nil {
		return nil, err
	}

	s.log.Info("expired plan downgraded",
		slog.String("user_uid", user.UUID),
		slog.String("plan", user.Plan))

	return s.repo.GetUserByUID(ctx, user.UUID)
}

func statusOf(user *models.User) *Status {
	return &Status{
		Plan:               user.Plan,
		SubscriptionStatus: user.SubscriptionStatus,
		PlanStartedAt:      user.PlanStartedAt,
		PlanExpiresAt:      user.PlanExpiresAt,
		TrialUsed:          user.TrialUsed,
		Features:           featuresOf(user),
	}
}

// featuresOf возвращает фичи плана пользователя с учетом истечения.
func featuresOf(user *models.User) map[string]bool {
	name := user.Plan
	if name != models.PlanFree &&
		user.PlanExpiresAt != nil && !user.PlanExpiresAt.After(time.Now()) {
		name = models.PlanFree
	}
	info, ok := planConfig[name]
	if !ok {
		info = planConfig[models.PlanFree]
	}
	return info.Features
}

func planDescription(info Info) string {
	switch info.Name {
	case models.PlanProMonth:
		return "Moodlog Pro, месячная подписка"
	case models.PlanProYear:
		return "Moodlog Pro, годовая подписка"
	default:
		return "Moodlog " + info.Name
	}
}
