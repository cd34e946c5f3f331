// Package supabase реализует identity.Provider поверх HTTP API GoTrue:
// разрешение access-токена в пользователя и административную запись
// app_metadata от имени service-role ключа.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/EugeneC/chklstly/internal/identity"
	"github.com/EugeneC/chklstly/internal/models"
)

// Client клиент HTTP API Supabase Auth.
type Client struct {
	baseURL        string
	serviceRoleKey string
	httpClient     *http.Client
}

// NewClient создаёт новый клиент Supabase Auth.
func NewClient(baseURL, serviceRoleKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:        baseURL,
		serviceRoleKey: serviceRoleKey,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// authUser структура пользователя в ответах GoTrue.
type authUser struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	CreatedAt   time.Time      `json:"created_at"`
	AppMetadata map[string]any `json:"app_metadata"`
}

// Resolve разрешает access-токен через GET /auth/v1/user.
// Ответы 401/403/404 трактуются как невалидные учётные данные.
func (c *Client) Resolve(ctx context.Context, credential string) (*identity.Session, error) {
	const op = "identity.supabase.Resolve"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("apikey", c.serviceRoleKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", op, identity.ErrInvalidCredential)
	default:
		return nil, fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}

	var user authUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%s: %w", op, identity.ErrInvalidCredential)
	}

	meta := user.AppMetadata
	if meta == nil {
		meta = map[string]any{}
	}
	return &identity.Session{
		User: identity.User{
			UID:       user.ID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
		Metadata:    meta,
		Entitlement: models.EntitlementFromMetadata(meta),
	}, nil
}

// UpdateMetadata записывает полный набор app_metadata пользователя через
// PUT /auth/v1/admin/users/{uid}.
func (c *Client) UpdateMetadata(ctx context.Context, userUID string, metadata map[string]any) error {
	const op = "identity.supabase.UpdateMetadata"

	body, err := json.Marshal(map[string]any{"app_metadata": metadata})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	url := c.baseURL + "/auth/v1/admin/users/" + userUID
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceRoleKey)
	req.Header.Set("apikey", c.serviceRoleKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}
	return nil
}
