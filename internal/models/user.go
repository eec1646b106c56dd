// Package models содержит доменные структуры дневника настроений:
// пользователи, записи, инсайты, платежи и промокоды, а также
// вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Планы подписки пользователя.
const (
	PlanFree     = "free"
	PlanTrial    = "trial"
	PlanProMonth = "pro_month"
	PlanProYear  = "pro_year"
)

// Статусы подписки на пользователе.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

// User представляет зарегистрированного пользователя системы.
// PasswordHash пустой для пользователей, созданных через OAuth.
type User struct {
	UUID               string     // Уникальный идентификатор пользователя
	Email              string     // Электронная почта (уникальная)
	PasswordHash       string     // Bcrypt-хэш пароля, пустой для OAuth
	GoogleID           string     // Идентификатор Google-аккаунта, пустой для парольных
	Plan               string     // Текущий план: free, trial, pro_month, pro_year
	PlanStartedAt      *time.Time // Дата активации текущего плана
	PlanExpiresAt      *time.Time // Дата истечения текущего плана
	TrialUsed          bool       // Признак, что пробный период уже использован
	SubscriptionStatus string     // active, expired или cancelled
	IsAdmin            bool       // Признак администратора
	CreatedAt          time.Time
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair содержит пару JWT-токенов, выдаваемую при входе.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}
