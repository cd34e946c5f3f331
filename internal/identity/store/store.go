// Package store реализует identity.Provider поверх собственного хранилища
// пользователей в PostgreSQL для self-hosted развёртываний. Учётные данные —
// JWT, выпущенный этим же сервисом; атрибуты пользователя лежат в колонке
// raw_app_meta_data и обновляются атомарным jsonb-merge.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/EugeneC/chklstly/internal/identity"
	"github.com/EugeneC/chklstly/internal/lib/jwt"
	"github.com/EugeneC/chklstly/internal/models"
)

// Store инкапсулирует соединение с PostgreSQL и проверку токенов.
type Store struct {
	DB    *sql.DB
	maker *jwt.Maker
}

// New создаёт подключение к PostgreSQL.
func New(connectionString string, maker *jwt.Maker) (*Store, error) {
	const op = "identity.store.New"

	db, err := sql.Open("pgx", connectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{DB: db, maker: maker}, nil
}

// Close закрывает соединение с базой.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Resolve проверяет подпись токена, затем загружает пользователя по uid
// из claims. Отсутствующий пользователь приравнивается к невалидным
// учётным данным.
func (s *Store) Resolve(ctx context.Context, credential string) (*identity.Session, error) {
	const op = "identity.store.Resolve"

	claims, err := s.maker.ParseToken(credential)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, identity.ErrInvalidCredential)
	}

	query := `SELECT uid, email, created_at, raw_app_meta_data
			  FROM users
			  WHERE uid = $1`
	var (
		uid       string
		email     sql.NullString
		createdAt time.Time
		rawMeta   []byte
	)
	row := s.DB.QueryRowContext(ctx, query, claims.Subject)
	if err := row.Scan(&uid, &email, &createdAt, &rawMeta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, identity.ErrInvalidCredential)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	meta := map[string]any{}
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &meta); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &identity.Session{
		User: identity.User{
			UID:       uid,
			Email:     email.String,
			CreatedAt: createdAt,
		},
		Metadata:    meta,
		Entitlement: models.EntitlementFromMetadata(meta),
	}, nil
}

// UpdateMetadata записывает атрибуты пользователя одним jsonb-merge:
// ключи из metadata перекрывают существующие, остальные остаются как есть.
// Операция атомарна на уровне строки.
func (s *Store) UpdateMetadata(ctx context.Context, userUID string, metadata map[string]any) error {
	const op = "identity.store.UpdateMetadata"

	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE users
			  SET raw_app_meta_data = raw_app_meta_data || $2::jsonb
			  WHERE uid = $1`
	res, err := s.DB.ExecContext(ctx, query, userUID, raw)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: user %s not found", op, userUID)
	}
	return nil
}
