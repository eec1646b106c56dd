package models

import "time"

// ExpiringPlanNotice передается через очередь уведомлений планировщиком
// и содержит данные для письма о скором окончании плана.
type ExpiringPlanNotice struct {
	UserUID   string    `json:"user_uid"`
	Email     string    `json:"email"`
	Plan      string    `json:"plan"`
	ExpiresAt time.Time `json:"expires_at"`
}
