// Package tokenclaims реализует identity.Provider, который извлекает
// пользователя и запись о доступе напрямую из claims подписанного токена,
// не обращаясь к хранилищу. Используется эндпоинтами ассистента, куда
// клиент приходит с id-токеном.
//
// Запись атрибутов этим провайдером невозможна: claims выпускаются
// стороной, владеющей хранилищем.
package tokenclaims

import (
	"context"
	"fmt"
	"time"

	"github.com/EugeneC/chklstly/internal/identity"
	"github.com/EugeneC/chklstly/internal/lib/jwt"
	"github.com/EugeneC/chklstly/internal/models"
)

// Provider разбирает id-токены с claims записи о доступе.
type Provider struct {
	maker *jwt.Maker
}

// New создает новый Provider поверх jwt.Maker.
func New(maker *jwt.Maker) *Provider {
	return &Provider{maker: maker}
}

// Resolve проверяет подпись и срок действия токена и собирает сессию
// из его claims. Атрибуты в сессии — проекция claims, а не содержимое
// хранилища.
func (p *Provider) Resolve(_ context.Context, credential string) (*identity.Session, error) {
	const op = "identity.tokenclaims.Resolve"

	claims, err := p.maker.ParseToken(credential)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, identity.ErrInvalidCredential)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, identity.ErrInvalidCredential)
	}

	var createdAt time.Time
	if claims.IssuedAt != nil {
		createdAt = claims.IssuedAt.Time
	}

	ent := models.Entitlement{
		TrialExpireDate: claims.TrialExpireDate,
		HasPremium:      claims.HasPremium,
	}
	return &identity.Session{
		User: identity.User{
			UID:       claims.Subject,
			Email:     claims.Email,
			CreatedAt: createdAt,
		},
		Metadata:    ent.ApplyTo(map[string]any{}),
		Entitlement: ent,
	}, nil
}

// UpdateMetadata всегда возвращает identity.ErrReadOnly.
func (p *Provider) UpdateMetadata(_ context.Context, _ string, _ map[string]any) error {
	return identity.ErrReadOnly
}
