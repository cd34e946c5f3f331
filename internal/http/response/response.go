// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Тела ответов плоские:
// ошибка — объект с единственным полем error, успех описывается структурой
// конкретного обработчика.
package response

import (
	"fmt"
	"strings"
)

// ErrorResponse описывает стандартную структуру JSON‑ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid token"`
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

// MissingFields формирует сообщение об отсутствующих обязательных полях
// в формате "Missing required fields: a, b or c."
func MissingFields(fields ...string) ErrorResponse {
	if len(fields) == 1 {
		return Error(fmt.Sprintf("Missing required fields: %s.", fields[0]))
	}
	head := strings.Join(fields[:len(fields)-1], ", ")
	return Error(fmt.Sprintf("Missing required fields: %s or %s.", head, fields[len(fields)-1]))
}
