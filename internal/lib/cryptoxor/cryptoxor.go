// Package cryptoxor реализует обратимое XOR-кодирование содержимого записей.
//
// Это осознанная заглушка вместо настоящей криптографии: нет ни IV, ни
// аутентификации, ключ переиспользуется между записями. Интерфейс (строка
// ключа -> шифротекст base64) сохранен, чтобы позднее заменить реализацию
// на AEAD без изменения вызывающего кода.
package cryptoxor

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"
)

const keySize = 32

// DeriveKey детерминированно выводит ключ из строки секрета:
// base64-кодирование байтов секрета, усеченное до 32 байт.
func DeriveKey(secret string) []byte {
	// Ключ нулевой длины обрушил бы XOR-цикл делением на ноль.
	if secret == "" {
		secret = "\x00"
	}
	encoded := base64.URLEncoding.EncodeToString([]byte(secret))
	if len(encoded) > keySize {
		encoded = encoded[:keySize]
	}
	return []byte(encoded)
}

// Encrypt кодирует plaintext XOR-ом с повторяющимся ключом и возвращает
// base64-строку результата.
func Encrypt(plaintext, secret string) string {
	key := DeriveKey(secret)
	data := []byte(plaintext)
	xored := make([]byte, len(data))
	for i, b := range data {
		xored[i] = b ^ key[i%len(key)]
	}
	return base64.URLEncoding.EncodeToString(xored)
}

// Decrypt обращает Encrypt. Возвращает ошибку на некорректном base64
// или если результат не является валидной UTF-8 строкой (ключ не подошел).
func Decrypt(ciphertext, secret string) (string, error) {
	const op = "cryptoxor.Decrypt"
	raw, err := base64.URLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	key := DeriveKey(secret)
	data := make([]byte, len(raw))
	for i, b := range raw {
		data[i] = b ^ key[i%len(key)]
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: decrypted data is not valid utf-8", op)
	}
	return string(data), nil
}
