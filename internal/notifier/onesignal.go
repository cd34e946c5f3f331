// Package notifier реализует клиент push-провайдера. Тело ответа
// провайдера возвращается вызывающей стороне как есть.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/EugeneC/chklstly/internal/metrics"
)

// Client клиент REST API push-провайдера.
type Client struct {
	apiURL           string
	apiKey           string
	appID            string
	androidChannelID string
	packageName      string
	httpClient       *http.Client
}

// NewClient создаёт новый клиент push-провайдера.
func NewClient(apiURL, apiKey, appID, androidChannelID, packageName string, timeout time.Duration) *Client {
	return &Client{
		apiURL:           apiURL,
		apiKey:           apiKey,
		appID:            appID,
		androidChannelID: androidChannelID,
		packageName:      packageName,
		httpClient:       &http.Client{Timeout: timeout},
	}
}

// Notification параметры push-рассылки. Titles и Messages — локализованные
// тексты, ключ — код языка. ChecklistID, если задан, уходит в payload
// уведомления и используется для схлопывания дублей.
type Notification struct {
	UserUIDs    []string
	Titles      map[string]string
	Messages    map[string]string
	ChecklistID *string
}

// Send отправляет рассылку и возвращает тело ответа провайдера без
// изменений. Ошибка возвращается только при транспортном сбое или
// нечитаемом ответе.
func (c *Client) Send(ctx context.Context, n Notification) (json.RawMessage, error) {
	const op = "notifier.Send"

	groupKey := c.packageName + ".checklist_updates"
	payload := map[string]any{
		"app_id":                    c.appID,
		"include_external_user_ids": n.UserUIDs,
		"headings":                  n.Titles,
		"contents":                  n.Messages,
		"android_channel_id":        c.androidChannelID,
		"thread_id":                 groupKey,
		"android_group":             groupKey,
	}
	if n.ChecklistID != nil {
		payload["data"] = map[string]any{
			"checklistId": *n.ChecklistID,
			"collapse_id": *n.ChecklistID,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/notifications?c=push", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Basic "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s: provider returned non-JSON response", op)
	}

	metrics.NotificationsSent.Inc()
	return raw, nil
}
