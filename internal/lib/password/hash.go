// Package password реализует функции для безопасного хеширования и проверки паролей.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt обрезает вход на 72 байтах, более длинные пароли усекаем явно.
const maxPasswordBytes = 72

// GetHash принимает пароль пользователя и возвращает его bcrypt-хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	raw := []byte(password)
	if len(raw) > maxPasswordBytes {
		raw = raw[:maxPasswordBytes]
	}
	hashedPassword, err := bcrypt.GenerateFromPassword(raw, bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt-хэш с введённым паролем.
// Возвращает nil, если пароль соответствует хэшу, иначе — ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	raw := []byte(externalPassword)
	if len(raw) > maxPasswordBytes {
		raw = raw[:maxPasswordBytes]
	}
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
