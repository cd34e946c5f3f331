package chklstly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"golang.org/x/time/rate"

	"github.com/EugeneC/chklstly/internal/ai"
	"github.com/EugeneC/chklstly/internal/cache"
	"github.com/EugeneC/chklstly/internal/config"
	"github.com/EugeneC/chklstly/internal/identity"
	"github.com/EugeneC/chklstly/internal/identity/store"
	"github.com/EugeneC/chklstly/internal/identity/supabase"
	"github.com/EugeneC/chklstly/internal/identity/tokenclaims"
	"github.com/EugeneC/chklstly/internal/lib/jwt"
	"github.com/EugeneC/chklstly/internal/migrations"
	"github.com/EugeneC/chklstly/internal/notifier"
	"github.com/EugeneC/chklstly/internal/services/assistant"
	"github.com/EugeneC/chklstly/internal/services/entitlement"
	"github.com/EugeneC/chklstly/internal/subscription"
)

// App инкапсулирует HTTP-сервер и ресурсы, требующие закрытия при остановке.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *store.Store
	cache  *cache.Cache
}

// New собирает приложение из конфигурации: провайдер учетных записей
// по выбранному бэкенду, кеширующий декоратор, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	maker := jwt.NewMaker(cfg.Identity.JWTSecretKey, cfg.Identity.TokenTTL)

	var provider identity.Provider
	var db *store.Store
	switch cfg.Identity.Backend {
	case "postgres":
		st, err := store.New(cfg.Identity.StorageConnectionString, maker)
		if err != nil {
			return nil, err
		}
		if err = migrations.Run(st.DB, cfg.Identity.MigrationsPath); err != nil {
			return nil, err
		}
		provider = st
		db = st
	case "supabase":
		provider = supabase.NewClient(cfg.Identity.SupabaseURL, cfg.Identity.SupabaseServiceRoleKey, cfg.Identity.Timeout)
	default:
		return nil, fmt.Errorf("unknown identity backend: %s", cfg.Identity.Backend)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}
	cachedResolver := identity.NewCached(provider, cacheRedis, cfg.RedisConnection.SessionTTL, logger)

	subscriptionClient := subscription.NewClient(cfg.Subscription.APIURL, cfg.Subscription.APIKey, cfg.Subscription.Timeout)
	verifier := subscription.NewVerifier(subscriptionClient, cfg.Subscription.SkipEmailList(), logger)
	// Запись через декоратор, чтобы сверка сбрасывала кешированную сессию.
	entitlementService := entitlement.New(cachedResolver, verifier, logger)

	aiClient := ai.NewClient(cfg.Assistant.APIURL, cfg.Assistant.APIKey, cfg.Assistant.Model,
		cfg.Assistant.SiteURL, cfg.Assistant.SiteName, cfg.Assistant.Timeout)
	assistantService := assistant.New(aiClient, logger)

	push := notifier.NewClient(cfg.Notification.APIURL, cfg.Notification.APIKey, cfg.Notification.AppID,
		cfg.Notification.AndroidChannelID, cfg.Notification.PackageName, cfg.Notification.Timeout)

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, limiter,
		provider, cachedResolver, tokenclaims.New(maker),
		entitlementService, assistantService, push)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста или
// ошибки сервера. При остановке сервер завершается мягко, соединения
// с базой и Redis закрываются.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.db != nil {
			if closeErr := a.db.Close(); closeErr != nil {
				a.logger.Error("failed to close storage", slog.String("error", closeErr.Error()))
			}
		}
		if closeErr := a.cache.Db.Close(); closeErr != nil {
			a.logger.Error("failed to close redis client", slog.String("error", closeErr.Error()))
		}
		return err
	}
}
