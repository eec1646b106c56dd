package plan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/paymentgateway"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) UpdateUserPlan(ctx context.Context, userUID, plan string,
	startedAt, expiresAt time.Time, trialUsed bool, status string) error {
	return m.Called(ctx, userUID, plan, startedAt, expiresAt, trialUsed, status).Error(0)
}
func (m *RepoMock) CreatePayment(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}
func (m *RepoMock) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}
func (m *RepoMock) GetPayment(ctx context.Context, userUID, paymentUID string) (*models.Payment, error) {
	args := m.Called(ctx, userUID, paymentUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}
func (m *RepoMock) UpdatePaymentStatus(ctx context.Context, paymentUID, status, webkassaStatus string) error {
	return m.Called(ctx, paymentUID, status, webkassaStatus).Error(0)
}
func (m *RepoMock) AttachPaymentReceipt(ctx context.Context, paymentUID, receiptID string) error {
	return m.Called(ctx, paymentUID, receiptID).Error(0)
}
func (m *RepoMock) AttachPaymentSubscription(ctx context.Context, paymentUID, subscriptionUID string) error {
	return m.Called(ctx, paymentUID, subscriptionUID).Error(0)
}
func (m *RepoMock) AppendSubscription(ctx context.Context, userUID, plan, status string,
	startedAt, expiresAt time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, userUID, plan, status, startedAt, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) ListSubscriptions(ctx context.Context, userUID string) ([]*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}
func (m *RepoMock) CreatePromoCode(ctx context.Context, pc *models.PromoCode) (*models.PromoCode, error) {
	args := m.Called(ctx, pc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PromoCode), args.Error(1)
}
func (m *RepoMock) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PromoCode), args.Error(1)
}
func (m *RepoMock) ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PromoCode), args.Error(1)
}
func (m *RepoMock) RemovePromoCode(ctx context.Context, promoUID string) (bool, error) {
	args := m.Called(ctx, promoUID)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) RedeemPromoCode(ctx context.Context, code, userUID string) (*models.PromoCode, error) {
	args := m.Called(ctx, code, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PromoCode), args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateOrder(ctx context.Context, orderID string, amount float64,
	description, returnURL string) (*paymentgateway.CreateOrderResponse, error) {
	args := m.Called(ctx, orderID, amount, description, returnURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.CreateOrderResponse), args.Error(1)
}
func (m *GatewayMock) CheckStatus(ctx context.Context, orderID string) (*paymentgateway.OrderStatusResponse, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.OrderStatusResponse), args.Error(1)
}
func (m *GatewayMock) IssueReceipt(ctx context.Context, orderID string, amount float64,
	itemName string) (*paymentgateway.IssueReceiptResponse, error) {
	args := m.Called(ctx, orderID, amount, itemName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.IssueReceiptResponse), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(repo *RepoMock, gw *GatewayMock) *PlanService {
	return New(repo, gw, "https://moodlog.kz/payment/result", newNoopLogger())
}

func freeUser(uid string) *models.User {
	return &models.User{
		UUID:               uid,
		Plan:               models.PlanFree,
		SubscriptionStatus: models.SubscriptionStatusActive,
	}
}

func TestPlanService_Plans(t *testing.T) {
	svc := newService(new(RepoMock), new(GatewayMock))

	plans := svc.Plans()

	require.Len(t, plans, 4)
	assert.Equal(t, models.PlanFree, plans[0].Name)
	assert.Equal(t, models.PlanProYear, plans[3].Name)
	assert.Equal(t, 1990.0, plans[2].Price)
	assert.Equal(t, "KZT", plans[2].Currency)
	assert.False(t, plans[0].Features[FeatureMonthlyInsights])
	assert.True(t, plans[2].Features[FeatureMonthlyInsights])
}

func TestPlanService_Current(t *testing.T) {
	t.Run("активный платный план", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		expires := time.Now().Add(20 * 24 * time.Hour)
		repo.On("GetUserByUID", mock.Anything, "u1").Return(&models.User{
			UUID:               "u1",
			Plan:               models.PlanProMonth,
			PlanExpiresAt:      &expires,
			SubscriptionStatus: models.SubscriptionStatusActive,
		}, nil)

		st, err := svc.Current(context.Background(), "u1")

		require.NoError(t, err)
		assert.Equal(t, models.PlanProMonth, st.Plan)
		assert.True(t, st.Features[FeatureWeeklyInsights])
		repo.AssertNotCalled(t, "UpdateUserPlan",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("истекший план понижается до бесплатного", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		expired := time.Now().Add(-24 * time.Hour)
		repo.On("GetUserByUID", mock.Anything, "u1").Return(&models.User{
			UUID:               "u1",
			Plan:               models.PlanProMonth,
			PlanExpiresAt:      &expired,
			TrialUsed:          true,
			SubscriptionStatus: models.SubscriptionStatusActive,
		}, nil).Once()
		repo.On("UpdateUserPlan", mock.Anything, "u1", models.PlanFree,
			mock.Anything, mock.Anything, true, models.SubscriptionStatusExpired).Return(nil)
		repo.On("GetUserByUID", mock.Anything, "u1").Return(&models.User{
			UUID:               "u1",
			Plan:               models.PlanFree,
			TrialUsed:          true,
			SubscriptionStatus: models.SubscriptionStatusExpired,
		}, nil)

		st, err := svc.Current(context.Background(), "u1")

		require.NoError(t, err)
		assert.Equal(t, models.PlanFree, st.Plan)
		assert.False(t, st.Features[FeatureWeeklyInsights])
		repo.AssertExpectations(t)
	})
}

func TestPlanService_StartTrial(t *testing.T) {
	t.Run("успешная активация", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		repo.On("GetUserByUID", mock.Anything, "u1").Return(freeUser("u1"), nil).Twice()
		repo.On("UpdateUserPlan", mock.Anything, "u1", models.PlanTrial,
			mock.Anything, mock.Anything, true, models.SubscriptionStatusActive).Return(nil)
		repo.On("AppendSubscription", mock.Anything, "u1", models.PlanTrial,
			models.SubscriptionStatusActive, mock.Anything,
			mock.MatchedBy(func(expires time.Time) bool {
				days := time.Until(expires).Hours() / 24
				return days > 13 && days < 15
			})).Return(&models.Subscription{UUID: "sub-1", Plan: models.PlanTrial}, nil)

		_, err := svc.StartTrial(context.Background(), "u1")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("повторная активация запрещена", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		user := freeUser("u1")
		user.TrialUsed = true
		repo.On("GetUserByUID", mock.Anything, "u1").Return(user, nil)

		_, err := svc.StartTrial(context.Background(), "u1")

		assert.ErrorIs(t, err, ErrTrialUsed)
	})

	t.Run("на платном плане недоступна", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		expires := time.Now().Add(10 * 24 * time.Hour)
		repo.On("GetUserByUID", mock.Anything, "u1").Return(&models.User{
			UUID:          "u1",
			Plan:          models.PlanProMonth,
			PlanExpiresAt: &expires,
		}, nil)

		_, err := svc.StartTrial(context.Background(), "u1")

		assert.ErrorIs(t, err, ErrAlreadySubscribed)
	})
}

func TestPlanService_Subscribe(t *testing.T) {
	t.Run("создает заказ и ожидающий платёж", func(t *testing.T) {
		repo := new(RepoMock)
		gw := new(GatewayMock)
		svc := newService(repo, gw)

		gw.On("CreateOrder", mock.Anything, mock.Anything, 1990.0,
			mock.Anything, "https://moodlog.kz/payment/result").
			Return(&paymentgateway.CreateOrderResponse{
				PaymentURL: "https://pay.webkassa.kz/order/abc",
				Status:     "pending",
			}, nil)
		repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
			return p.UserUID == "u1" && p.Plan == models.PlanProMonth &&
				p.Amount == 1990.0 && p.WebkassaOrderID != ""
		})).Return(&models.Payment{UUID: "pay-1", Plan: models.PlanProMonth, Amount: 1990}, nil)

		res, err := svc.Subscribe(context.Background(), "u1",
			models.DummySubscribe{Plan: models.PlanProMonth})

		require.NoError(t, err)
		assert.Equal(t, "pay-1", res.PaymentUID)
		assert.Equal(t, "https://pay.webkassa.kz/order/abc", res.PaymentURL)
		assert.Equal(t, "KZT", res.Currency)
	})

	t.Run("бесплатный план купить нельзя", func(t *testing.T) {
		svc := newService(new(RepoMock), new(GatewayMock))

		_, err := svc.Subscribe(context.Background(), "u1",
			models.DummySubscribe{Plan: models.PlanFree})

		assert.ErrorIs(t, err, ErrPlanNotPurchasable)
	})

	t.Run("ошибка шлюза не создает платёж", func(t *testing.T) {
		repo := new(RepoMock)
		gw := new(GatewayMock)
		svc := newService(repo, gw)

		gw.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything).Return(nil, errors.New("gateway down"))

		_, err := svc.Subscribe(context.Background(), "u1",
			models.DummySubscribe{Plan: models.PlanProYear})

		require.Error(t, err)
		repo.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
	})
}

func TestPlanService_ProcessWebhook(t *testing.T) {
	pendingPayment := func() *models.Payment {
		return &models.Payment{
			UUID:            "pay-1",
			UserUID:         "u1",
			Plan:            models.PlanProMonth,
			Amount:          1990,
			Status:          models.PaymentStatusPending,
			WebkassaOrderID: "order-1",
		}
	}

	t.Run("успешная оплата активирует план", func(t *testing.T) {
		repo := new(RepoMock)
		gw := new(GatewayMock)
		svc := newService(repo, gw)

		repo.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(pendingPayment(), nil)
		repo.On("UpdatePaymentStatus", mock.Anything, "pay-1",
			models.PaymentStatusCompleted, "completed").Return(nil)
		gw.On("IssueReceipt", mock.Anything, "order-1", 1990.0, mock.Anything).
			Return(&paymentgateway.IssueReceiptResponse{ReceiptID: "rcpt-1"}, nil)
		repo.On("AttachPaymentReceipt", mock.Anything, "pay-1", "rcpt-1").Return(nil)
		repo.On("GetUserByUID", mock.Anything, "u1").Return(freeUser("u1"), nil)
		repo.On("UpdateUserPlan", mock.Anything, "u1", models.PlanProMonth,
			mock.Anything, mock.Anything, false, models.SubscriptionStatusActive).Return(nil)
		repo.On("AppendSubscription", mock.Anything, "u1", models.PlanProMonth,
			models.SubscriptionStatusActive, mock.Anything, mock.Anything).
			Return(&models.Subscription{UUID: "sub-1"}, nil)
		repo.On("AttachPaymentSubscription", mock.Anything, "pay-1", "sub-1").Return(nil)

		err := svc.ProcessWebhook(context.Background(),
			models.DummyWebhook{OrderID: "order-1", Status: "completed"})

		require.NoError(t, err)
		repo.AssertExpectations(t)
		gw.AssertExpectations(t)
	})

	t.Run("ошибка чека не мешает активации плана", func(t *testing.T) {
		repo := new(RepoMock)
		gw := new(GatewayMock)
		svc := newService(repo, gw)

		repo.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(pendingPayment(), nil)
		repo.On("UpdatePaymentStatus", mock.Anything, "pay-1",
			models.PaymentStatusCompleted, "completed").Return(nil)
		gw.On("IssueReceipt", mock.Anything, "order-1", 1990.0, mock.Anything).
			Return(nil, errors.New("fiscal service unavailable"))
		repo.On("GetUserByUID", mock.Anything, "u1").Return(freeUser("u1"), nil)
		repo.On("UpdateUserPlan", mock.Anything, "u1", models.PlanProMonth,
			mock.Anything, mock.Anything, false, models.SubscriptionStatusActive).Return(nil)
		repo.On("AppendSubscription", mock.Anything, "u1", models.PlanProMonth,
			models.SubscriptionStatusActive, mock.Anything, mock.Anything).
			Return(&models.Subscription{UUID: "sub-1"}, nil)
		repo.On("AttachPaymentSubscription", mock.Anything, "pay-1", "sub-1").Return(nil)

		err := svc.ProcessWebhook(context.Background(),
			models.DummyWebhook{OrderID: "order-1", Status: "completed"})

		require.NoError(t, err)
		repo.AssertNotCalled(t, "AttachPaymentReceipt", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("неуспешный статус помечает платёж проваленным", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		repo.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(pendingPayment(), nil)
		repo.On("UpdatePaymentStatus", mock.Anything, "pay-1",
			models.PaymentStatusFailed, "cancelled").Return(nil)

		err := svc.ProcessWebhook(context.Background(),
			models.DummyWebhook{OrderID: "order-1", Status: "cancelled"})

		require.NoError(t, err)
		repo.AssertNotCalled(t, "UpdateUserPlan",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("повторный вебхук игнорируется", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		done := pendingPayment()
		done.Status = models.PaymentStatusCompleted
		repo.On("GetPaymentByOrderID", mock.Anything, "order-1").Return(done, nil)

		err := svc.ProcessWebhook(context.Background(),
			models.DummyWebhook{OrderID: "order-1", Status: "completed"})

		require.NoError(t, err)
		repo.AssertNotCalled(t, "UpdatePaymentStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("неизвестный заказ", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		repo.On("GetPaymentByOrderID", mock.Anything, "missing").Return(nil, nil)

		err := svc.ProcessWebhook(context.Background(),
			models.DummyWebhook{OrderID: "missing", Status: "completed"})

		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}

func TestPlanService_PaymentStatus(t *testing.T) {
	t.Run("завершённый платёж возвращается без обращения к шлюзу", func(t *testing.T) {
		repo := new(RepoMock)
		gw := new(GatewayMock)
		svc := newService(repo, gw)

		repo.On("GetPayment", mock.Anything, "u1", "pay-1").Return(&models.Payment{
			UUID:   "pay-1",
			Status: models.PaymentStatusCompleted,
		}, nil)

		p, err := svc.PaymentStatus(context.Background(), "u1", "pay-1")

		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, p.Status)
		gw.AssertNotCalled(t, "CheckStatus", mock.Anything, mock.Anything)
	})

	t.Run("ожидающий платёж сверяется со шлюзом", func(t *testing.T) {
		repo := new(RepoMock)
		gw := new(GatewayMock)
		svc := newService(repo, gw)

		pending := &models.Payment{
			UUID:            "pay-1",
			UserUID:         "u1",
			Plan:            models.PlanProYear,
			Amount:          19100,
			Status:          models.PaymentStatusPending,
			WebkassaOrderID: "order-1",
		}
		repo.On("GetPayment", mock.Anything, "u1", "pay-1").Return(pending, nil).Once()
		gw.On("CheckStatus", mock.Anything, "order-1").
			Return(&paymentgateway.OrderStatusResponse{Status: "completed"}, nil)
		repo.On("UpdatePaymentStatus", mock.Anything, "pay-1",
			models.PaymentStatusCompleted, "completed").Return(nil)
		gw.On("IssueReceipt", mock.Anything, "order-1", 19100.0, mock.Anything).
			Return(&paymentgateway.IssueReceiptResponse{ReceiptID: "rcpt-1"}, nil)
		repo.On("AttachPaymentReceipt", mock.Anything, "pay-1", "rcpt-1").Return(nil)
		repo.On("GetUserByUID", mock.Anything, "u1").Return(freeUser("u1"), nil)
		repo.On("UpdateUserPlan", mock.Anything, "u1", models.PlanProYear,
			mock.Anything, mock.Anything, false, models.SubscriptionStatusActive).Return(nil)
		repo.On("AppendSubscription", mock.Anything, "u1", models.PlanProYear,
			models.SubscriptionStatusActive, mock.Anything, mock.Anything).
			Return(&models.Subscription{UUID: "sub-1"}, nil)
		repo.On("AttachPaymentSubscription", mock.Anything, "pay-1", "sub-1").Return(nil)
		repo.On("GetPayment", mock.Anything, "u1", "pay-1").Return(&models.Payment{
			UUID:   "pay-1",
			Status: models.PaymentStatusCompleted,
		}, nil)

		p, err := svc.PaymentStatus(context.Background(), "u1", "pay-1")

		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, p.Status)
		repo.AssertExpectations(t)
	})

	t.Run("платёж не найден", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		repo.On("GetPayment", mock.Anything, "u1", "missing").Return(nil, nil)

		_, err := svc.PaymentStatus(context.Background(), "u1", "missing")

		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}

func TestPlanService_RedeemPromo(t *testing.T) {
	t.Run("успешная активация", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		promo := &models.PromoCode{
			UUID:    "promo-1",
			Code:    "ABCDEF234567",
			Plan:    models.PlanProMonth,
			MaxUses: 5,
		}
		repo.On("GetUserByUID", mock.Anything, "u1").Return(freeUser("u1"), nil).Twice()
		repo.On("GetPromoCode", mock.Anything, "ABCDEF234567").Return(promo, nil)
		repo.On("RedeemPromoCode", mock.Anything, "ABCDEF234567", "u1").Return(promo, nil)
		repo.On("UpdateUserPlan", mock.Anything, "u1", models.PlanProMonth,
			mock.Anything, mock.Anything, false, models.SubscriptionStatusActive).Return(nil)
		repo.On("AppendSubscription", mock.Anything, "u1", models.PlanProMonth,
			models.SubscriptionStatusActive, mock.Anything, mock.Anything).
			Return(&models.Subscription{UUID: "sub-1"}, nil)

		_, err := svc.RedeemPromo(context.Background(), "u1", "  abcdef234567 ")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("платный план не дает активировать код", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		expires := time.Now().Add(10 * 24 * time.Hour)
		repo.On("GetUserByUID", mock.Anything, "u1").Return(&models.User{
			UUID:          "u1",
			Plan:          models.PlanProYear,
			PlanExpiresAt: &expires,
		}, nil)

		_, err := svc.RedeemPromo(context.Background(), "u1", "ABCDEF234567")

		assert.ErrorIs(t, err, ErrPromoNotEligible)
	})

	t.Run("неизвестный код", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		repo.On("GetUserByUID", mock.Anything, "u1").Return(freeUser("u1"), nil)
		repo.On("GetPromoCode", mock.Anything, "NOSUCHCODE23").Return(nil, nil)

		_, err := svc.RedeemPromo(context.Background(), "u1", "NOSUCHCODE23")

		assert.ErrorIs(t, err, ErrPromoNotFound)
	})

	t.Run("исчерпанный код", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		promo := &models.PromoCode{UUID: "promo-1", Code: "ABCDEF234567", Plan: models.PlanProMonth}
		repo.On("GetUserByUID", mock.Anything, "u1").Return(freeUser("u1"), nil)
		repo.On("GetPromoCode", mock.Anything, "ABCDEF234567").Return(promo, nil)
		repo.On("RedeemPromoCode", mock.Anything, "ABCDEF234567", "u1").Return(nil, nil)

		_, err := svc.RedeemPromo(context.Background(), "u1", "ABCDEF234567")

		assert.ErrorIs(t, err, ErrPromoUnavailable)
	})
}

func TestPlanService_CreatePromo(t *testing.T) {
	t.Run("генерация кода при пустом запросе", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		repo.On("CreatePromoCode", mock.Anything, mock.MatchedBy(func(pc *models.PromoCode) bool {
			if len(pc.Code) != promoCodeLength {
				return false
			}
			for _, r := range pc.Code {
				if !strings.ContainsRune(promoAlphabet, r) {
					return false
				}
			}
			return pc.Plan == models.PlanProMonth && pc.CreatedBy == "admin-1" && pc.MaxUses == 10
		})).Return(&models.PromoCode{UUID: "promo-1"}, nil)

		_, err := svc.CreatePromo(context.Background(), "admin-1",
			models.DummyPromoCode{Plan: models.PlanProMonth, MaxUses: 10})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("код из запроса приводится к верхнему регистру", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(GatewayMock))

		repo.On("CreatePromoCode", mock.Anything, mock.MatchedBy(func(pc *models.PromoCode) bool {
			return pc.Code == "WELCOME2026"
		})).Return(&models.PromoCode{UUID: "promo-1", Code: "WELCOME2026"}, nil)

		pc, err := svc.CreatePromo(context.Background(), "admin-1",
			models.DummyPromoCode{Code: "welcome2026", Plan: models.PlanProYear, MaxUses: 100})

		require.NoError(t, err)
		assert.Equal(t, "WELCOME2026", pc.Code)
	})
}

func TestGeneratePromoCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := generatePromoCode()
		require.NoError(t, err)
		assert.Len(t, code, promoCodeLength)
		assert.False(t, seen[code], "коды не должны повторяться")
		seen[code] = true
	}
}
