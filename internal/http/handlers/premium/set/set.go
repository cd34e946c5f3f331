// Package set реализует HTTP-обработчик первичной выдачи премиум-статуса.
//
// Handler разрешает сессию по токену доступа, сверяет статус подписки
// с биллингом и при подтверждении записывает премиум в учетную запись.
// Недоступность биллинга здесь — жёсткая ошибка: статус без сверки
// не выдается.
package set

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/EugeneC/chklstly/internal/http/response"
	"github.com/EugeneC/chklstly/internal/identity"
	"github.com/EugeneC/chklstly/internal/lib/sl"
	"github.com/EugeneC/chklstly/internal/services/entitlement"
	"github.com/EugeneC/chklstly/internal/subscription"
)

// Handler управляет HTTP-запросами на выдачу премиум-статуса.
type Handler struct {
	log      *slog.Logger
	resolver Resolver
	service  Service
	validate *validator.Validate
}

// Resolver описывает интерфейс разрешения сессии по токену доступа.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*identity.Session, error)
}

// Service описывает интерфейс бизнес-логики выдачи премиума.
type Service interface {
	SetPremium(ctx context.Context, sess *identity.Session, now time.Time) (bool, error)
}

// Request тело запроса выдачи премиум-статуса.
type Request struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

// New создает новый Handler с переданными логгером, резолвером и сервисом.
func New(log *slog.Logger, resolver Resolver, service Service) *Handler {
	return &Handler{
		log:      log,
		resolver: resolver,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выдать премиум-статус
// @Description Сверяет статус подписки с биллингом и при подтверждении записывает премиум. Повторная выдача возвращает ошибку.
// @Tags Entitlement
// @Accept  json
// @Produce  json
// @Param request body Request true "Токен доступа пользователя"
// @Success 200 {object} map[string]any "Итог сверки"
// @Failure 400 {object} response.ErrorResponse "Токен не передан или премиум уже установлен"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 500 {object} response.ErrorResponse "Биллинг недоступен или ошибка сервера"
// @Router /premium [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.set"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("No accessToken provided"))
		return
	}

	sess, err := h.resolver.Resolve(r.Context(), req.AccessToken)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredential) {
			log.Error("invalid access token", sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Invalid token"))
			return
		}
		log.Error("failed to resolve session", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to update premium status"))
		return
	}

	hasPremium, err := h.service.SetPremium(r.Context(), sess, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, entitlement.ErrAlreadySet):
			log.Info("premium already set", slog.String("uid", sess.User.UID))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Premium already set"))
		case errors.Is(err, subscription.ErrUnavailable):
			log.Error("subscription authority unavailable", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to fetch subscription from Adapty"))
		default:
			log.Error("failed to set premium", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to update premium status"))
		}
		return
	}

	log.Info("premium check finished", slog.String("uid", sess.User.UID), slog.Bool("has_premium", hasPremium))
	render.JSON(w, r, map[string]any{
		"success":    true,
		"hasPremium": hasPremium,
	})
}
