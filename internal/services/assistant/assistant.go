// Package assistant содержит бизнес-логику генерации подсказок для
// чек-листов: подготовку промптов, вызов модели и валидацию её ответа.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EugeneC/chklstly/internal/ai"
	"github.com/EugeneC/chklstly/internal/metrics"
)

const (
	suggestionsSystemPrompt = "You are a helpful AI assistant that provides intelligent suggestions for checklist management and productivity. Provide concise, actionable advice. Do not include hidden reasoning or <think> sections in your output. Return only a JSON array of suggested new items, without numbering or explanations."

	parseSystemPrompt = `You are a helpful assistant that extracts structured data from text. Rules: - Always return JSON only, without numbering or explanations; - JSON must have two fields: "title": string, "items": array of strings; - The title should be short (2–6 words max); - Items should be clear, concise, without duplicates; - If no items are detected, return an empty array. Do not include hidden reasoning or <think> sections in your output. Return only a JSON in format: {"title": "...", "items": ["...", "...", "..."]}, without numbering or explanations.`
)

// Completer описывает клиент генерации текста.
type Completer interface {
	Complete(ctx context.Context, userUID, systemPrompt, userPrompt string) (string, error)
}

// Service реализует генерацию подсказок и разбор свободного текста в чек-лист.
type Service struct {
	client Completer
	log    *slog.Logger
}

// New создает новый Service.
func New(client Completer, log *slog.Logger) *Service {
	return &Service{
		client: client,
		log:    log,
	}
}

// Suggest возвращает JSON-массив дополнительных пунктов для чек-листа.
// Пункты короче двух символов не дают контекста и отбрасываются; при двух
// и более осмысленных пунктах модель просят о десяти подсказках, иначе о пяти.
func (s *Service) Suggest(ctx context.Context, userUID, title string, items []string) (string, error) {
	const op = "services.assistant.Suggest"

	validItems := make([]string, 0, len(items))
	for _, item := range items {
		if len(strings.TrimSpace(item)) >= 2 {
			validItems = append(validItems, item)
		}
	}

	maxSuggestions := 5
	if len(validItems) >= 2 {
		maxSuggestions = 10
	}

	userPrompt := "You are given a checklist with a title"
	if len(validItems) > 0 {
		userPrompt += fmt.Sprintf(" and some existing items. Suggest up to %d additional useful and practical items that logically complement the existing list, avoiding duplicates. Each item should be 1 short sentence. Title: %s.\nExisting items: %s.",
			maxSuggestions, title, strings.Join(validItems, ", "))
	} else {
		userPrompt += fmt.Sprintf(". Suggest up to %d of the most essential and common items that are typically included for this type of checklist. Each item should be 1 short sentence. Title: %s.",
			maxSuggestions, title)
	}

	raw, err := s.client.Complete(ctx, userUID, suggestionsSystemPrompt, userPrompt)
	if err != nil {
		metrics.Completions.WithLabelValues("suggestions", "error").Inc()
		return "", fmt.Errorf("%s: %w", op, err)
	}

	suggestions, err := ai.SanitizeArray(raw)
	if err != nil {
		metrics.Completions.WithLabelValues("suggestions", "malformed").Inc()
		return "", fmt.Errorf("%s: %w", op, err)
	}

	metrics.Completions.WithLabelValues("suggestions", "ok").Inc()
	s.log.Info("suggestions generated", slog.String("uid", userUID), slog.Int("items", len(validItems)))
	return suggestions, nil
}

// Parse извлекает из свободного текста заголовок и пункты чек-листа,
// возвращает JSON-объект с полями title и items.
func (s *Service) Parse(ctx context.Context, userUID, prompt string) (string, error) {
	const op = "services.assistant.Parse"

	userPrompt := "The user provides a single piece of transcribed text (from voice input) that includes both a checklist title and list items. Now process this input: " + prompt

	raw, err := s.client.Complete(ctx, userUID, parseSystemPrompt, userPrompt)
	if err != nil {
		metrics.Completions.WithLabelValues("parse", "error").Inc()
		return "", fmt.Errorf("%s: %w", op, err)
	}

	parsed, err := ai.SanitizeObject(raw)
	if err != nil {
		metrics.Completions.WithLabelValues("parse", "malformed").Inc()
		return "", fmt.Errorf("%s: %w", op, err)
	}

	metrics.Completions.WithLabelValues("parse", "ok").Inc()
	s.log.Info("prompt parsed into checklist", slog.String("uid", userUID))
	return parsed, nil
}
