// Package activate реализует HTTP-обработчик активации пробного периода.
//
// Handler принимает JSON-запрос с токеном доступа, разрешает по нему сессию
// пользователя и устанавливает дату окончания пробного периода от даты
// регистрации. Повторная активация запрещена.
package activate

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

// Handler управляет HTTP-запросами на активацию пробного периода.
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

// Service описывает интерфейс бизнес-логики активации пробного периода.
type Service interface {
	ActivateTrial(ctx context.Context, sess *identity.Session, now time.Time) (int64, error)
}

// Request тело запроса активации пробного периода.
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
// @Summary Активировать пробный период
// @Description Устанавливает дату окончания пробного периода от даты регистрации пользователя. Повторная активация возвращает ошибку.
// @Tags Entitlement
// @Accept  json
// @Produce  json
// @Param request body Request true "Токен доступа пользователя"
// @Success 200 {object} map[string]any "Пробный период активирован"
// @Failure 400 {object} response.ErrorResponse "Токен не передан или период уже установлен"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /trial [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trial.activate"
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
		render.JSON(w, r, response.Error("Failed to set trial"))
		return
	}

	expire, err := h.service.ActivateTrial(r.Context(), sess, time.Now())
	if err != nil {
		if errors.Is(err, entitlement.ErrAlreadySet) {
			log.Info("trial already set", slog.String("uid", sess.User.UID))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Trial already set"))
			return
		}
		log.Error("failed to activate trial", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to update trial data"))
		return
	}

	log.Info("trial activated", slog.String("uid", sess.User.UID), slog.Int64("trial_expire_date", expire))
	render.JSON(w, r, map[string]any{
		"success":         true,
		"trialExpireDate": expire,
	})
}
