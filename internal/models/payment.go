package models

import "time"

// Статусы платежа.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment представляет одну попытку оплаты подписки через Webkassa.
// SubscriptionUID заполняется после успешной активации подписки.
type Payment struct {
	UUID              string
	UserUID           string
	SubscriptionUID   *string
	Plan              string
	Amount            float64 // Сумма в тенге
	Status            string  // pending, completed, failed, refunded
	WebkassaOrderID   string  // Сгенерированный нами ID заказа
	WebkassaStatus    string  // Статус на стороне шлюза
	WebkassaReceiptID string  // ID фискального чека
	CompletedAt       *time.Time
	CreatedAt         time.Time
}

// Subscription представляет строку исторического журнала активаций планов.
// Журнал append-only: текущее состояние плана живет на User.
type Subscription struct {
	UUID        string
	UserUID     string
	Plan        string
	Status      string
	StartedAt   time.Time
	ExpiresAt   time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
}

// DummySubscribe используется для приёма запроса на оплату подписки.
type DummySubscribe struct {
	Plan string `json:"plan" validate:"required,oneof=pro_month pro_year"`
}

// DummyWebhook используется для приёма уведомления от Webkassa.
type DummyWebhook struct {
	OrderID  string            `json:"order_id" validate:"required"`
	Status   string            `json:"status" validate:"required"`
	Metadata map[string]string `json:"metadata"`
}
