package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/prepforge/prepforge-backend/internal/repository"
	"github.com/prepforge/prepforge-backend/internal/response"
	"github.com/prepforge/prepforge-backend/internal/service"
	"github.com/prepforge/prepforge-backend/internal/validator"
)

// SessionHandler handles exam session lifecycle endpoints.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// CreateSession godoc
// POST /api/v1/sessions
// Loads the test and starts a proctored session. The returned state is
// ACTIVE: the client should enter fullscreen and open the stream.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.CreateSession(c.Request.Context(), req.TestID, req.GracePeriod)
	if err != nil {
		failLoad(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": state})
}

// GetSession godoc
// GET /api/v1/sessions/:session_id
// Returns a state snapshot so a reloaded client can resync.
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	ctrl, ok := h.sessionService.Get(sessionID)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": ctrl.Snapshot()})
}

// TakeResult godoc
// GET /api/v1/sessions/:session_id/result
// Single-use handoff read: the slot is cleared on first read, so the
// results display reads it exactly once.
func (h *SessionHandler) TakeResult(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	rec, err := h.sessionService.TakeResult(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, rec)
}
