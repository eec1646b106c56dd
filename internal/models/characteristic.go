package models

import "time"

// UserCharacteristic хранит AI-профиль автора дневника. EncryptedProfile
// содержит шифротекст JSON-профиля, расшифровка выполняется на уровне
// сервиса ключом данных пользователя.
type UserCharacteristic struct {
	UUID             string
	UserUID          string
	EncryptedProfile string
	GeneratedAt      time.Time
}
