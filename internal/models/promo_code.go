package models

import "time"

// PromoCode представляет промокод на активацию платного плана.
// Инвариант: IsUsed истинно тогда и только тогда, когда UsesCount >= MaxUses.
type PromoCode struct {
	UUID      string
	Code      string // Хранится в верхнем регистре, уникален
	Plan      string // pro_month или pro_year
	CreatedBy string // UUID администратора, создавшего код
	MaxUses   int
	UsesCount int
	UsedBy    *string // UUID последнего активировавшего пользователя
	UsedAt    *time.Time
	IsUsed    bool
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// DummyPromoCode используется для приёма данных нового промокода от администратора.
type DummyPromoCode struct {
	Code      string     `json:"code" validate:"omitempty,min=6"`
	Plan      string     `json:"plan" validate:"required,oneof=pro_month pro_year"`
	MaxUses   int        `json:"max_uses" validate:"required,gte=1"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// DummyRedeem используется для приёма запроса на активацию промокода.
type DummyRedeem struct {
	Code string `json:"code" validate:"required"`
}
