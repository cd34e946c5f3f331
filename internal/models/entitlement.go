// Package models содержит доменные структуры сервиса: запись о доступе
// пользователя и её проекцию в мешок атрибутов учетной записи.
package models

import (
	"encoding/json"
	"time"
)

// TrialDuration длительность пробного периода от даты регистрации.
const TrialDuration = 7 * 24 * time.Hour

// Ключи записи о доступе в атрибутах учетной записи.
const (
	MetaTrialExpireDate       = "trialExpireDate"
	MetaHasPremium            = "hasPremium"
	MetaLastSubscriptionCheck = "lastSubscriptionCheck"
)

// Entitlement запись о доступе пользователя. Временные поля — миллисекунды
// Unix; отсутствие значения означает, что поле ещё не устанавливалось.
type Entitlement struct {
	TrialExpireDate       *int64 `json:"trialExpireDate"`
	HasPremium            bool   `json:"hasPremium"`
	LastSubscriptionCheck *int64 `json:"lastSubscriptionCheck,omitempty"`
}

// EntitlementFromMetadata восстанавливает запись о доступе из мешка
// атрибутов. Неизвестные и нечисловые значения трактуются как отсутствие
// поля, посторонние ключи игнорируются.
func EntitlementFromMetadata(meta map[string]any) Entitlement {
	var ent Entitlement
	if v, ok := millisValue(meta[MetaTrialExpireDate]); ok {
		ent.TrialExpireDate = &v
	}
	if v, ok := meta[MetaHasPremium].(bool); ok {
		ent.HasPremium = v
	}
	if v, ok := millisValue(meta[MetaLastSubscriptionCheck]); ok {
		ent.LastSubscriptionCheck = &v
	}
	return ent
}

// millisValue приводит значение атрибута к миллисекундам Unix. JSON-декодер
// отдает числа как float64, кеш и тесты могут хранить целые типы.
func millisValue(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// ApplyTo возвращает новый мешок атрибутов: копию meta с наложенной
// записью о доступе. Посторонние ключи сохраняются. trialExpireDate
// записывается всегда (отсутствие значения — явный null), отметка
// последней сверки — только если она устанавливалась.
func (e Entitlement) ApplyTo(meta map[string]any) map[string]any {
	merged := make(map[string]any, len(meta)+3)
	for k, v := range meta {
		merged[k] = v
	}

	if e.TrialExpireDate != nil {
		merged[MetaTrialExpireDate] = *e.TrialExpireDate
	} else {
		merged[MetaTrialExpireDate] = nil
	}
	merged[MetaHasPremium] = e.HasPremium
	if e.LastSubscriptionCheck != nil {
		merged[MetaLastSubscriptionCheck] = *e.LastSubscriptionCheck
	}
	return merged
}

// IsEntitled сообщает, есть ли у пользователя доступ к закрытым функциям
// на момент now: действующий премиум или неистёкший пробный период.
// Момент окончания пробного периода включителен.
func (e Entitlement) IsEntitled(now time.Time) bool {
	if e.HasPremium {
		return true
	}
	return e.TrialExpireDate != nil && now.UnixMilli() <= *e.TrialExpireDate
}
