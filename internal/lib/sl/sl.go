// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель — единообразное формирование структурированных полей лога.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
// Пример:
//
//	log.Error("failed to resolve user", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Mask скрывает секрет, оставляя первые символы для сверки ключей.
// Используется при логировании конфигурации: API-ключи и токены
// внешних провайдеров не должны попадать в лог целиком.
func Mask(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "***"
	case len(value) > 0:
		return "***"
	}
	return ""
}
