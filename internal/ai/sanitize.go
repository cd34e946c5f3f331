package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedOutput возвращается, когда ответ модели после очистки
// не разбирается как JSON ожидаемой формы.
var ErrMalformedOutput = errors.New("malformed model output")

var thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// clean убирает из ответа модели блоки скрытых рассуждений и маркеры
// кодовых блоков, оставляя полезное содержимое.
func clean(raw string) string {
	s := thinkBlockRe.ReplaceAllString(raw, "")
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// SanitizeArray очищает ответ модели и проверяет, что остаток —
// JSON-массив строк. Возвращает очищенную строку.
func SanitizeArray(raw string) (string, error) {
	const op = "ai.SanitizeArray"

	s := clean(raw)
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrMalformedOutput, err)
	}
	return s, nil
}

// parsedList ожидаемая форма ответа разбора свободного текста.
type parsedList struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// SanitizeObject очищает ответ модели и проверяет, что остаток —
// JSON-объект с полями title и items. Возвращает очищенную строку.
func SanitizeObject(raw string) (string, error) {
	const op = "ai.SanitizeObject"

	s := clean(raw)
	var parsed parsedList
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrMalformedOutput, err)
	}
	if parsed.Title == "" {
		return "", fmt.Errorf("%s: %w: missing title", op, ErrMalformedOutput)
	}
	return s, nil
}
