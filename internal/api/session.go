package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"casino-simulator/backend/internal/service"
	apperrors "casino-simulator/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// GameStateCommittedHeader is set on a failed POST whose game_state was
// stored before the AI provider failed.
const GameStateCommittedHeader = "X-Game-State-Committed"

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// SessionController exposes SessionService over HTTP.
type SessionController struct {
	service *service.SessionService
}

// NewSessionController creates a new session controller
func NewSessionController(svc *service.SessionService) *SessionController {
	return &SessionController{service: svc}
}

// RegisterRoutes mounts the session routes on rg.
func (h *SessionController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sessions", h.ListSessions)

	sessions := rg.Group("/sessions/:id")
	{
		sessions.GET("/response", h.Retrieve)
		sessions.POST("/response", h.Submit)
		sessions.PUT("/response", h.Update)
		sessions.DELETE("/response", h.Delete)
		sessions.GET("/responses", h.History)
	}
}

// Retrieve returns the stored session.
func (h *SessionController) Retrieve(c *gin.Context) {
	session, err := h.service.Retrieve(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, session)
}

// Submit forwards the prompt to the AI host and records the exchange.
func (h *SessionController) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.service.Submit(c.Request.Context(), c.Param("id"), req.Prompt, req.GameState)
	if err != nil {
		var svcErr *service.ServiceError
		if errors.As(err, &svcErr) && svcErr.GameStateCommitted {
			c.Header(GameStateCommittedHeader, "true")
		}
		_ = c.Error(toAppError(err))
		return
	}

	c.JSON(http.StatusCreated, newSubmitEnvelope(res))
}

// Update replaces the game state of an existing session.
func (h *SessionController) Update(c *gin.Context) {
	var req UpdateRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	session, err := h.service.Update(c.Request.Context(), c.Param("id"), req.GameState)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, session)
}

// Delete removes the session and its history.
func (h *SessionController) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, MessageEnvelope{Message: "GameSession deleted"})
}

// History lists the session's prompt/response exchanges.
func (h *SessionController) History(c *gin.Context) {
	id := c.Param("id")
	responses, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, HistoryEnvelope{
		SessionID: id,
		Responses: responses,
		Count:     len(responses),
	})
}

// ListSessions lists sessions newest first.
func (h *SessionController) ListSessions(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			_ = c.Error(apperrors.NewBadRequestError("limit must be a positive integer"))
			return
		}
		limit = min(n, maxListLimit)
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, SessionListEnvelope{Sessions: sessions, Count: len(sessions)})
}

// bindJSON decodes the body; an empty body decodes as {} so that field
// validation produces the specific message.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewPayloadTooLargeError(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	}
	return apperrors.NewBadRequestError("invalid request body: " + err.Error())
}

// toAppError maps service errors onto HTTP statuses.
func toAppError(err error) *apperrors.AppError {
	var svcErr *service.ServiceError
	switch {
	case service.IsValidation(err):
		return apperrors.Wrap(http.StatusBadRequest, apperrors.CodeValidation, err)
	case errors.Is(err, service.ErrSessionNotFound):
		return apperrors.Wrap(http.StatusNotFound, apperrors.CodeNotFound, err)
	case errors.As(err, &svcErr):
		return apperrors.Wrap(http.StatusInternalServerError, apperrors.CodeService, err)
	default:
		return apperrors.FromError(err)
	}
}
