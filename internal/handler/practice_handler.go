package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepforge/prepforge-backend/internal/practice"
	"github.com/prepforge/prepforge-backend/internal/response"
	"github.com/rs/zerolog"
)

// PracticeHandler serves the practice question bank.
type PracticeHandler struct {
	fetcher *practice.Fetcher
	log     zerolog.Logger
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(fetcher *practice.Fetcher, log zerolog.Logger) *PracticeHandler {
	return &PracticeHandler{
		fetcher: fetcher,
		log:     log.With().Str("component", "practice_handler").Logger(),
	}
}

// GetQuestions godoc
// GET /api/v1/practice/questions
func (h *PracticeHandler) GetQuestions(c *gin.Context) {
	results := h.fetcher.Fetch(c.Request.Context())

	select {
	case res := <-results:
		if res.Err != nil {
			h.log.Error().Err(res.Err).Msg("Question bank fetch failed")
			response.Fail(c, http.StatusBadGateway, response.ErrBankUnavailable)
			return
		}
		response.Success(c, http.StatusOK, res.Questions)
	case <-c.Request.Context().Done():
		// Client gave up; nothing to write.
	}
}
