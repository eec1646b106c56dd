// Package jwt реализует генерацию и парсинг JWT токенов доступа и обновления.
//
// Идентификатор пользователя передается в стандартном claim "sub",
// тип токена ("access" или "refresh") — в кастомном claim "token_type".
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Типы выпускаемых токенов.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// CustomClaims описывает данные, хранящиеся в JWT.
type CustomClaims struct {
	TokenType            string `json:"token_type"` // access или refresh
	IsAdmin              bool   `json:"is_admin"`
	jwt.RegisteredClaims        // Стандартные claims (Subject, ExpiresAt, IssuedAt и пр.)
}

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateAccessToken выпускает короткоживущий токен доступа.
	GenerateAccessToken(userUID string, isAdmin bool) (string, error)
	// GenerateRefreshToken выпускает долгоживущий токен обновления.
	GenerateRefreshToken(userUID string) (string, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker на секретном ключе HS256.
type MakerImpl struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewMaker создает новый MakerImpl.
func NewMaker(secretKey string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL возвращает срок жизни токена доступа.
func (m *MakerImpl) AccessTTL() time.Duration {
	return m.accessTTL
}

// GenerateAccessToken выпускает токен доступа с userUID в claim "sub".
func (m *MakerImpl) GenerateAccessToken(userUID string, isAdmin bool) (string, error) {
	return m.generate(userUID, TokenTypeAccess, isAdmin, m.accessTTL)
}

// GenerateRefreshToken выпускает токен обновления.
func (m *MakerImpl) GenerateRefreshToken(userUID string) (string, error) {
	return m.generate(userUID, TokenTypeRefresh, false, m.refreshTTL)
}

func (m *MakerImpl) generate(userUID, tokenType string, isAdmin bool, ttl time.Duration) (string, error) {
	claims := CustomClaims{
		TokenType: tokenType,
		IsAdmin:   isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись и валидность,
// возвращает CustomClaims, если токен корректен.
func (m *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
