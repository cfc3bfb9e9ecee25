// Package jwt выпускает и проверяет finalize-токены checkout-сессий.
//
// Токен выдаётся в ответе initiate и привязан к одной сессии: только его
// владелец может выполнить finalize этой сессии.
package jwt

import (
	"errors"
	"time"
)

// ErrInvalidToken токен не прошёл проверку подписи, срока или формата.
var ErrInvalidToken = errors.New("invalid finalize token")

// Maker описывает выпуск и разбор finalize-токенов.
type Maker interface {
	GenerateToken(sessionID string) (string, error)
	ParseToken(tokenStr string) (*SessionClaims, error)
}

// MakerImpl подписывает токены HS256 общим секретом.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	issuer    string
}

// NewJWTMaker создаёт Maker с секретом и временем жизни токена.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		issuer:    "stream-checkout",
	}
}
