// Package identity определяет единый интерфейс identity-провайдера:
// разрешение учётных данных в пользователя с его атрибутами и
// merge-запись атрибутов записи о доступе.
//
// Конкретные реализации: supabase (размещённый GoTrue), store
// (self-hosted хранилище в PostgreSQL) и tokenclaims (разбор claims
// токена без обращения к хранилищу).
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/EugeneC/chklstly/internal/models"
)

// ErrInvalidCredential возвращается, когда учётные данные не разрешаются
// в пользователя: токен просрочен, подпись неверна или пользователь удалён.
var ErrInvalidCredential = errors.New("invalid credential")

// ErrReadOnly возвращается провайдерами, которые не владеют хранилищем
// атрибутов и не могут выполнять запись.
var ErrReadOnly = errors.New("identity provider is read-only")

// User представляет пользователя, которым владеет identity-провайдер.
type User struct {
	UID       string    `json:"uid"`        // Стабильный идентификатор пользователя
	Email     string    `json:"email"`      // Может быть пустым
	CreatedAt time.Time `json:"created_at"` // Дата регистрации, неизменяемая
}

// Session результат разрешения учётных данных: пользователь, сырой набор
// его атрибутов и извлечённая из него запись о доступе.
type Session struct {
	User        User               `json:"user"`
	Metadata    map[string]any     `json:"metadata"`
	Entitlement models.Entitlement `json:"entitlement"`
}

// Provider описывает возможности identity-провайдера, необходимые сервису.
type Provider interface {
	// Resolve разрешает учётные данные в сессию пользователя.
	// Невалидные учётные данные — ErrInvalidCredential.
	Resolve(ctx context.Context, credential string) (*Session, error)
	// UpdateMetadata атомарно записывает полный набор атрибутов пользователя.
	// Вызывающая сторона передаёт результат Entitlement.ApplyTo, поэтому
	// атрибуты вне записи о доступе сохраняются как есть.
	UpdateMetadata(ctx context.Context, userUID string, metadata map[string]any) error
}
