// Package metrics содержит прикладные счётчики Prometheus.
// Сами метрики отдаются обработчиком promhttp на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты сверки с биллингом для метки result.
const (
	ResultEntitled    = "entitled"
	ResultNotEntitled = "not_entitled"
	ResultAllowlist   = "allowlist"
	ResultUnavailable = "unavailable"
)

var (
	// AuthorityChecks количество сверок премиум-статуса с биллингом.
	AuthorityChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chklstly_authority_checks_total",
		Help: "Subscription authority verifications by outcome.",
	}, []string{"result"})

	// Completions количество обращений к генерации текста.
	Completions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chklstly_ai_completions_total",
		Help: "AI completion requests by kind and outcome.",
	}, []string{"kind", "result"})

	// NotificationsSent количество отправленных push-рассылок.
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chklstly_notifications_sent_total",
		Help: "Push notification dispatches handed to the provider.",
	})
)
