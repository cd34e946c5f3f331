package subscription

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/EugeneC/chklstly/internal/lib/sl"
	"github.com/EugeneC/chklstly/internal/metrics"
)

// ProfileFetcher описывает клиент биллинга, необходимый верификатору.
type ProfileFetcher interface {
	Profile(ctx context.Context, userUID string) (*Profile, error)
}

// Verifier принимает решение о действующем премиуме: либо по allow-list
// адресов, либо по окнам уровней доступа из биллинга. Верификатор ничего
// не кеширует, троттлинг повторных сверок лежит на вызывающей стороне.
type Verifier struct {
	client     ProfileFetcher
	skipEmails map[string]struct{}
	log        *slog.Logger
}

// NewVerifier создаёт верификатор. skipEmails — адреса, которым премиум
// выдаётся без обращения к биллингу; сравнение без учёта регистра.
func NewVerifier(client ProfileFetcher, skipEmails []string, log *slog.Logger) *Verifier {
	skip := make(map[string]struct{}, len(skipEmails))
	for _, e := range skipEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			skip[e] = struct{}{}
		}
	}
	return &Verifier{
		client:     client,
		skipEmails: skip,
		log:        log,
	}
}

// Verify сообщает, действует ли премиум пользователя на момент now.
// Недоступность биллинга возвращается как ошибка ErrUnavailable,
// решение об откате принимает вызывающая сторона.
func (v *Verifier) Verify(ctx context.Context, userUID, email string, now time.Time) (bool, error) {
	if email != "" {
		if _, ok := v.skipEmails[strings.ToLower(email)]; ok {
			v.log.Info("email is allow-listed, skipping authority check",
				slog.String("uid", userUID))
			metrics.AuthorityChecks.WithLabelValues(metrics.ResultAllowlist).Inc()
			return true, nil
		}
	}

	profile, err := v.client.Profile(ctx, userUID)
	if err != nil {
		v.log.Error("subscription authority check failed",
			slog.String("uid", userUID), sl.Err(err))
		metrics.AuthorityChecks.WithLabelValues(metrics.ResultUnavailable).Inc()
		return false, err
	}

	for _, level := range profile.AccessLevels {
		if level.Contains(now) {
			metrics.AuthorityChecks.WithLabelValues(metrics.ResultEntitled).Inc()
			return true, nil
		}
	}
	metrics.AuthorityChecks.WithLabelValues(metrics.ResultNotEntitled).Inc()
	return false, nil
}
