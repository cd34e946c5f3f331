// Package suggestions реализует HTTP-обработчик генерации подсказок
// для чек-листа.
//
// Handler проверяет право пользователя на AI-функции по заявкам его
// ID-токена, без обращения к провайдеру учетных записей, и возвращает
// JSON-массив подсказок от модели.
package suggestions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/EugeneC/chklstly/internal/http/response"
	"github.com/EugeneC/chklstly/internal/identity"
	"github.com/EugeneC/chklstly/internal/lib/sl"
)

// Handler управляет HTTP-запросами на генерацию подсказок.
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

// Service описывает интерфейс бизнес-логики генерации подсказок.
type Service interface {
	Suggest(ctx context.Context, userUID, title string, items []string) (string, error)
}

// Request тело запроса генерации подсказок. Items обязателен, но может
// быть пустым массивом, поэтому его наличие проверяется отдельно.
type Request struct {
	IDToken string   `json:"idToken" validate:"required"`
	Title   string   `json:"title" validate:"required"`
	Items   []string `json:"items"`
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
// @Summary Сгенерировать подсказки для чек-листа
// @Description Возвращает JSON-массив пунктов, дополняющих чек-лист. Доступно только пользователям с премиумом или активным пробным периодом.
// @Tags AI
// @Accept  json
// @Produce  json
// @Param request body Request true "ID-токен, заголовок и пункты чек-листа"
// @Success 200 {object} map[string]any "Сгенерированные подсказки"
// @Failure 400 {object} response.ErrorResponse "Не переданы обязательные поля или слишком короткий заголовок"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Нет права на AI-функции"
// @Failure 500 {object} response.ErrorResponse "Ошибка генерации"
// @Router /ai/suggestions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.suggestions"
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

	if err := h.validate.Struct(req); err != nil || req.Items == nil {
		log.Error("missing required fields")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.MissingFields("idToken", "title", "items"))
		return
	}

	if len(strings.TrimSpace(req.Title)) < 3 {
		log.Error("title too short")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Title must be at least 3 characters long."))
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

	suggestions, err := h.service.Suggest(r.Context(), sess.User.UID, req.Title, req.Items)
	if err != nil {
		log.Error("failed to generate suggestions", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to generate AI suggestion"))
		return
	}

	log.Info("suggestions generated", slog.String("uid", sess.User.UID))
	render.JSON(w, r, map[string]any{
		"success":     true,
		"suggestions": suggestions,
	})
}
