package models

import "time"

// EncryptionKey хранит ключ данных пользователя, завернутый мастер-ключом
// процесса. Создается один раз вместе с пользователем и не ротируется.
type EncryptionKey struct {
	UUID       string
	UserUID    string
	WrappedKey string
	CreatedAt  time.Time
}
