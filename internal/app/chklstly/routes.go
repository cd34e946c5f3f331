// Package chklstly собирает HTTP-приложение: провайдеры учетных записей,
// сервисы и маршруты.
package chklstly

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	aiparse "github.com/EugeneC/chklstly/internal/http/handlers/ai/parse"
	aisuggestions "github.com/EugeneC/chklstly/internal/http/handlers/ai/suggestions"
	"github.com/EugeneC/chklstly/internal/http/handlers/health"
	"github.com/EugeneC/chklstly/internal/http/handlers/notify"
	premiumrefresh "github.com/EugeneC/chklstly/internal/http/handlers/premium/refresh"
	premiumset "github.com/EugeneC/chklstly/internal/http/handlers/premium/set"
	trialactivate "github.com/EugeneC/chklstly/internal/http/handlers/trial/activate"
	"github.com/EugeneC/chklstly/internal/http/middlewarectx"
	"github.com/EugeneC/chklstly/internal/identity"
	"github.com/EugeneC/chklstly/internal/notifier"
	"github.com/EugeneC/chklstly/internal/services/assistant"
	"github.com/EugeneC/chklstly/internal/services/entitlement"
)

// RegisterRoutes регистрирует все маршруты приложения.
//
// resolver разрешает сессии для операций записи, cachedResolver — для
// читающего маршрута рассылки, claimsResolver работает только по заявкам
// ID-токена и не ходит к провайдеру учетных записей.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	limiter *rate.Limiter,
	resolver identity.Provider,
	cachedResolver *identity.Cached,
	claimsResolver identity.Provider,
	entitlementService *entitlement.Service,
	assistantService *assistant.Service,
	push *notifier.Client,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))

		r.Post("/trial", trialactivate.New(logger, resolver, entitlementService).ServeHTTP)
		r.Post("/premium", premiumset.New(logger, resolver, entitlementService).ServeHTTP)
		r.Put("/premium", premiumrefresh.New(logger, resolver, entitlementService).ServeHTTP)
		r.Post("/notify", notify.New(logger, cachedResolver, push).ServeHTTP)
		r.Post("/ai/suggestions", aisuggestions.New(logger, claimsResolver, assistantService).ServeHTTP)
		r.Post("/ai/parse", aiparse.New(logger, claimsResolver, assistantService).ServeHTTP)
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
