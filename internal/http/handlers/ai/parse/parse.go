// Package parse реализует HTTP-обработчик разбора свободного текста
// в структурированный чек-лист.
package parse

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/EugeneC/chklstly/internal/http/response"
	"github.com/EugeneC/chklstly/internal/identity"
	"github.com/EugeneC/chklstly/internal/lib/sl"
)

// Handler управляет HTTP-запросами на разбор текста в чек-лист.
type Handler struct {
	log      *slog.Logger
	resolver Resolver
	service  Service
	validate *validator.Validate
}

// Resolver описывает интерфейс разрешения сессии по ID-токену.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*identity.Session, error)
}

// Service описывает интерфейс бизнес-логики разбора текста.
type Service interface {
	Parse(ctx context.Context, userUID, prompt string) (string, error)
}

// Request тело запроса разбора текста.
type Request struct {
	IDToken string `json:"idToken" validate:"required"`
	Prompt  string `json:"prompt" validate:"required"`
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
// @Summary Разобрать текст в чек-лист
// @Description Извлекает из свободного текста заголовок и пункты чек-листа. Доступно только пользователям с премиумом или активным пробным периодом.
// @Tags AI
// @Accept  json
// @Produce  json
// @Param request body Request true "ID-токен и расшифровка голосового ввода"
// @Success 200 {object} map[string]any "Разобранный чек-лист"
// @Failure 400 {object} response.ErrorResponse "Не переданы обязательные поля"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Нет права на AI-функции"
// @Failure 500 {object} response.ErrorResponse "Ошибка генерации"
// @Router /ai/parse [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.parse"
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
		log.Error("missing required fields", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.MissingFields("idToken", "prompt"))
		return
	}

	sess, err := h.resolver.Resolve(r.Context(), req.IDToken)
	if err != nil {
		log.Error("invalid id token", sl.Err(err))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("Invalid token"))
		return
	}

	if !sess.Entitlement.IsEntitled(time.Now()) {
		log.Info("user has no active entitlement", slog.String("uid", sess.User.UID))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("User has no permissions for AI suggestions"))
		return
	}

	parsed, err := h.service.Parse(r.Context(), sess.User.UID, req.Prompt)
	if err != nil {
		log.Error("failed to parse prompt", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to generate AI suggestion"))
		return
	}

	log.Info("prompt parsed", slog.String("uid", sess.User.UID))
	render.JSON(w, r, map[string]any{
		"success":     true,
		"suggestions": parsed,
	})
}
