// Package entitlement содержит бизнес-логику записи о доступе:
// активацию пробного периода, первичную выдачу премиума и периодическую
// сверку премиум-статуса с биллингом.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EugeneC/chklstly/internal/identity"
	"github.com/EugeneC/chklstly/internal/lib/sl"
	"github.com/EugeneC/chklstly/internal/models"
)

// ErrAlreadySet возвращается, когда пробный период или премиум уже
// установлены: повторная установка запрещена, значение не перезаписывается.
var ErrAlreadySet = errors.New("already set")

// Интервал, чаще которого сверка с биллингом не повторяется.
const refreshInterval = 24 * time.Hour

// Причины пропуска сверки в Refresh, уходят клиенту как есть.
const (
	SkipNoPremium       = "No hasPremium metadata"
	SkipCheckedRecently = "Checked less than 24h ago"
)

// Verifier описывает верификатор премиум-статуса.
type Verifier interface {
	Verify(ctx context.Context, userUID, email string, now time.Time) (bool, error)
}

// RefreshResult итог периодической сверки премиум-статуса.
type RefreshResult struct {
	Updated    bool   // Запись о доступе была перезаписана
	HasPremium bool   // Премиум-статус после сверки
	SkipReason string // Непустая причина, если сверка не выполнялась
}

// Service реализует операции над записью о доступе. Все операции
// принимают уже разрешённую сессию пользователя и явный момент времени.
type Service struct {
	provider identity.Provider
	verifier Verifier
	log      *slog.Logger
}

// New создает новый Service.
func New(provider identity.Provider, verifier Verifier, log *slog.Logger) *Service {
	return &Service{
		provider: provider,
		verifier: verifier,
		log:      log,
	}
}

// ActivateTrial активирует пробный период: дата окончания всегда
// выводится из даты регистрации и устанавливается ровно один раз.
// Повторный вызов — ErrAlreadySet. Возвращает дату окончания в мс.
func (s *Service) ActivateTrial(ctx context.Context, sess *identity.Session, _ time.Time) (int64, error) {
	const op = "services.entitlement.ActivateTrial"

	if sess.Entitlement.TrialExpireDate != nil {
		return 0, fmt.Errorf("%s: trial: %w", op, ErrAlreadySet)
	}

	expire := sess.User.CreatedAt.Add(models.TrialDuration).UnixMilli()
	ent := sess.Entitlement
	ent.TrialExpireDate = &expire

	if err := s.provider.UpdateMetadata(ctx, sess.User.UID, ent.ApplyTo(sess.Metadata)); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("trial activated",
		slog.String("uid", sess.User.UID),
		slog.Int64("trial_expire_date", expire))
	return expire, nil
}

// SetPremium первичная выдача премиума. Сверка обязана завершиться:
// недоступность биллинга здесь — жёсткая ошибка, статус из неё не
// выводится. "Проверили, премиума нет" — нормальный исход без записи.
func (s *Service) SetPremium(ctx context.Context, sess *identity.Session, now time.Time) (bool, error) {
	const op = "services.entitlement.SetPremium"

	if sess.Entitlement.HasPremium {
		return false, fmt.Errorf("%s: premium: %w", op, ErrAlreadySet)
	}

	hasPremium, err := s.verifier.Verify(ctx, sess.User.UID, sess.User.Email, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if !hasPremium {
		s.log.Info("premium not confirmed by authority", slog.String("uid", sess.User.UID))
		return false, nil
	}

	ent := sess.Entitlement
	ent.HasPremium = true
	if err := s.provider.UpdateMetadata(ctx, sess.User.UID, ent.ApplyTo(sess.Metadata)); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("premium granted", slog.String("uid", sess.User.UID))
	return true, nil
}

// Refresh периодическая сверка премиум-статуса. Без установленного
// премиума и чаще раза в сутки сверка не выполняется. Недоступность
// биллинга здесь не ошибка: статус деградирует до "нет премиума",
// отметка времени сверки всё равно продвигается, чтобы не создавать
// шторм повторных обращений.
func (s *Service) Refresh(ctx context.Context, sess *identity.Session, now time.Time) (RefreshResult, error) {
	const op = "services.entitlement.Refresh"

	if !sess.Entitlement.HasPremium {
		return RefreshResult{SkipReason: SkipNoPremium}, nil
	}

	if last := sess.Entitlement.LastSubscriptionCheck; last != nil &&
		now.UnixMilli()-*last < refreshInterval.Milliseconds() {
		return RefreshResult{SkipReason: SkipCheckedRecently}, nil
	}

	hasPremium, err := s.verifier.Verify(ctx, sess.User.UID, sess.User.Email, now)
	if err != nil {
		s.log.Warn("authority unavailable on refresh, degrading premium",
			slog.String("uid", sess.User.UID), sl.Err(err))
		hasPremium = false
	}

	nowMs := now.UnixMilli()
	ent := sess.Entitlement
	ent.HasPremium = hasPremium
	ent.LastSubscriptionCheck = &nowMs

	if err := s.provider.UpdateMetadata(ctx, sess.User.UID, ent.ApplyTo(sess.Metadata)); err != nil {
		return RefreshResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("premium refreshed",
		slog.String("uid", sess.User.UID),
		slog.Bool("has_premium", hasPremium))
	return RefreshResult{Updated: true, HasPremium: hasPremium}, nil
}
