// Package jwt реализует генерацию и парсинг JWT токенов с claim-полями доступа.
//
// Claims расширяет стандартные claims JWT атрибутами записи о доступе:
// премиум-статусом и датой окончания пробного периода. Идентификатор
// пользователя хранится в стандартном поле Subject.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims описывает пользовательские данные, хранящиеся в JWT.
type Claims struct {
	Email                string `json:"email,omitempty"`           // Электронная почта пользователя
	HasPremium           bool   `json:"hasPremium,omitempty"`      // Подтверждённый премиум-статус
	TrialExpireDate      *int64 `json:"trialExpireDate,omitempty"` // Окончание пробного периода, мс
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (Subject, ExpiresAt и пр.)
}

// GenerateToken создает JWT токен для пользователя userUID с заданными
// email и атрибутами доступа, подписывая его секретным ключом.
//
// Время жизни токена определяется полем tokenTTL.
func (m *Maker) GenerateToken(userUID, email string, hasPremium bool, trialExpireDate *int64) (string, error) {
	claims := Claims{
		Email:           email,
		HasPremium:      hasPremium,
		TrialExpireDate: trialExpireDate,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись и срок действия,
// возвращает Claims с данными, если токен корректен.
func (m *Maker) ParseToken(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
