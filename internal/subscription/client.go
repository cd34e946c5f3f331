// Package subscription реализует клиент биллинга подписок и верификатор,
// сводящий профиль пользователя к решению "премиум действует / не действует".
package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable возвращается, когда биллинг недоступен или ответил
// ошибкой. Политику отката выбирает вызывающая сторона.
var ErrUnavailable = errors.New("subscription authority unavailable")

// Client клиент server-side API биллинга.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент биллинга.
func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Profile запрашивает профиль пользователя по его идентификатору.
// Транспортные ошибки и неуспешные статусы сворачиваются в ErrUnavailable.
func (c *Client) Profile(ctx context.Context, userUID string) (*Profile, error) {
	const op = "subscription.Profile"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/server-side-api/profile/", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("adapty-customer-user-id", userUID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: unexpected status %s", op, ErrUnavailable, resp.Status)
	}

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return &profile.Data, nil
}
