// Package notify реализует HTTP-обработчик рассылки push-уведомлений
// участникам чек-листа.
//
// Handler проверяет право инициатора на рассылку (премиум или активный
// пробный период), валидирует список получателей и передает рассылку
// push-провайдеру. Тело ответа провайдера возвращается клиенту как есть.
package notify

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
	"github.com/google/uuid"

	"github.com/EugeneC/chklstly/internal/http/response"
	"github.com/EugeneC/chklstly/internal/identity"
	"github.com/EugeneC/chklstly/internal/lib/sl"
	"github.com/EugeneC/chklstly/internal/notifier"
)

// Handler управляет HTTP-запросами на рассылку push-уведомлений.
type Handler struct {
	log      *slog.Logger
	resolver Resolver
	sender   Sender
	validate *validator.Validate
}

// Resolver описывает интерфейс разрешения сессии по токену доступа.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*identity.Session, error)
}

// Sender описывает интерфейс клиента push-провайдера.
type Sender interface {
	Send(ctx context.Context, n notifier.Notification) (json.RawMessage, error)
}

// Content локализованные тексты уведомления, ключ — код языка.
type Content struct {
	Titles   map[string]string `json:"titles" validate:"required,min=1"`
	Messages map[string]string `json:"messages" validate:"required,min=1"`
}

// Request тело запроса рассылки.
type Request struct {
	AccessToken string   `json:"accessToken" validate:"required"`
	ChecklistID *string  `json:"checklistId"`
	UserUIDs    []string `json:"userUids" validate:"required,min=1"`
	Content     *Content `json:"content" validate:"required"`
}

// New создает новый Handler с переданными логгером, резолвером и клиентом рассылки.
func New(log *slog.Logger, resolver Resolver, sender Sender) *Handler {
	return &Handler{
		log:      log,
		resolver: resolver,
		sender:   sender,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Разослать push-уведомления
// @Description Рассылает локализованные push-уведомления участникам чек-листа. Доступно только пользователям с премиумом или активным пробным периодом.
// @Tags Notifications
// @Accept  json
// @Produce  json
// @Param request body Request true "Получатели и тексты уведомления"
// @Success 200 {object} map[string]any "Ответ push-провайдера"
// @Failure 400 {object} response.ErrorResponse "Не переданы обязательные поля"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Нет права на рассылку"
// @Failure 500 {object} response.ErrorResponse "Ошибка push-провайдера"
// @Router /notify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notify"
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

	if req.AccessToken == "" || req.UserUIDs == nil || req.Content == nil {
		log.Error("missing required fields")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.MissingFields("accessToken", "userUids", "content"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Missing content required fields: titles or messages."))
		return
	}

	for _, target := range req.UserUIDs {
		if _, err := uuid.Parse(target); err != nil {
			log.Error("invalid target uid", slog.String("uid", target))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid userUid: "+target))
			return
		}
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
		render.JSON(w, r, response.Error("Failed"))
		return
	}

	if !sess.Entitlement.IsEntitled(time.Now()) {
		log.Info("sender has no active entitlement", slog.String("uid", sess.User.UID))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("User has no permissions."))
		return
	}

	raw, err := h.sender.Send(r.Context(), notifier.Notification{
		UserUIDs:    req.UserUIDs,
		Titles:      req.Content.Titles,
		Messages:    req.Content.Messages,
		ChecklistID: req.ChecklistID,
	})
	if err != nil {
		log.Error("failed to send notification", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed"))
		return
	}

	log.Info("notification dispatched",
		slog.String("uid", sess.User.UID),
		slog.Int("targets", len(req.UserUIDs)))
	render.JSON(w, r, raw)
}
