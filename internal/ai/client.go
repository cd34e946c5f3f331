// Package ai реализует клиент chat-completions API и санитайзер ответов
// модели до валидного JSON ожидаемой формы.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrEmptyCompletion возвращается, когда модель ответила пустым содержимым.
var ErrEmptyCompletion = errors.New("empty completion")

// Client клиент OpenRouter-совместимого chat-completions API.
type Client struct {
	apiURL     string
	apiKey     string
	model      string
	siteURL    string
	siteName   string
	httpClient *http.Client
}

// NewClient создаёт новый клиент генерации текста.
func NewClient(apiURL, apiKey, model, siteURL, siteName string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		siteURL:    siteURL,
		siteName:   siteName,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	User        string    `json:"user,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Reasoning   reasoning `json:"reasoning"`
}

type reasoning struct {
	Enabled bool `json:"enabled"`
	Exclude bool `json:"exclude"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete отправляет пару system/user сообщений и возвращает содержимое
// первого варианта ответа. userUID передаётся провайдеру для атрибуции
// запросов.
func (c *Client) Complete(ctx context.Context, userUID, systemPrompt, userPrompt string) (string, error) {
	const op = "ai.Complete"

	body, err := json.Marshal(completionRequest{
		Model: c.model,
		User:  userUID,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
		Reasoning:   reasoning{Enabled: false, Exclude: true},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyCompletion)
	}
	return completion.Choices[0].Message.Content, nil
}
