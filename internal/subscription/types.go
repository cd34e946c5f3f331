package subscription

import "time"

// profileResponse обёртка ответа биллинга на запрос профиля.
type profileResponse struct {
	Data Profile `json:"data"`
}

// Profile профиль пользователя в биллинге с его уровнями доступа.
type Profile struct {
	AccessLevels []AccessLevel `json:"access_levels"`
}

// AccessLevel окно действия уровня доступа. Отсутствующая граница
// означает неограниченность с этой стороны.
type AccessLevel struct {
	ID        string     `json:"id"`
	StartsAt  *time.Time `json:"starts_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Contains сообщает, попадает ли момент now в окно уровня доступа.
// Обе границы включительны.
func (l AccessLevel) Contains(now time.Time) bool {
	if l.StartsAt != nil && now.Before(*l.StartsAt) {
		return false
	}
	if l.ExpiresAt != nil && now.After(*l.ExpiresAt) {
		return false
	}
	return true
}
