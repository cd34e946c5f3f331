// Package refresh реализует HTTP-обработчик периодической сверки
// премиум-статуса с биллингом.
//
// Без установленного премиума и чаще раза в сутки сверка пропускается,
// о чем клиенту сообщается в теле ответа. Недоступность биллинга
// статус деградирует, но запрос остается успешным.
package refresh

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
)

// Handler управляет HTTP-запросами на сверку премиум-статуса.
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

// Service описывает интерфейс бизнес-логики сверки премиума.
type Service interface {
	Refresh(ctx context.Context, sess *identity.Session, now time.Time) (entitlement.RefreshResult, error)
}

// Request тело запроса сверки премиум-статуса.
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
// @Summary Сверить премиум-статус
// @Description Повторно сверяет премиум-статус с биллингом не чаще раза в сутки. При недоступности биллинга статус сбрасывается.
// @Tags Entitlement
// @Accept  json
// @Produce  json
// @Param request body Request true "Токен доступа пользователя"
// @Success 200 {object} map[string]any "Итог сверки или причина пропуска"
// @Failure 400 {object} response.ErrorResponse "Токен не передан"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /premium [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.refresh"
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

	res, err := h.service.Refresh(r.Context(), sess, time.Now())
	if err != nil {
		log.Error("failed to refresh premium", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to update user metadata"))
		return
	}

	if res.SkipReason != "" {
		log.Info("refresh skipped", slog.String("uid", sess.User.UID), slog.String("reason", res.SkipReason))
		render.JSON(w, r, map[string]any{
			"skipped": true,
			"reason":  res.SkipReason,
		})
		return
	}

	log.Info("premium refreshed", slog.String("uid", sess.User.UID), slog.Bool("has_premium", res.HasPremium))
	render.JSON(w, r, map[string]any{
		"updated":    true,
		"hasPremium": res.HasPremium,
	})
}
