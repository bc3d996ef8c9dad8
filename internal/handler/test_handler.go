package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/prepforge/prepforge-backend/internal/response"
	"github.com/prepforge/prepforge-backend/internal/service"
	"github.com/prepforge/prepforge-backend/internal/validator"
)

// TestHandler handles test generation and retrieval endpoints.
type TestHandler struct {
	testService *service.TestService
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(testService *service.TestService) *TestHandler {
	return &TestHandler{testService: testService}
}

// GenerateTest godoc
// POST /api/v1/tests/generate
// Generates a new test via the LLM and stores it for the availability TTL.
func (h *TestHandler) GenerateTest(c *gin.Context) {
	var req model.GenerateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.testService.Generate(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrGenerationFailed)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

// GetTest godoc
// GET /api/v1/tests/:test_id
// Returns a stored test definition; 404 once the availability TTL lapses.
func (h *TestHandler) GetTest(c *gin.Context) {
	testID := c.Param("test_id")

	def, err := h.testService.GetByID(c.Request.Context(), testID)
	if err != nil {
		failLoad(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.TestResponse{
		TestID:    testID,
		TestName:  def.TestName,
		Duration:  def.DurationMinutes,
		Questions: def.Questions,
	})
}

// failLoad maps the loader taxonomy onto HTTP codes. Every category is
// terminal for the attempt; the client's only recovery is returning to the
// catalog.
func failLoad(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingIdentifier):
		response.Fail(c, http.StatusBadRequest, response.ErrMissingTestID)
	case errors.Is(err, service.ErrTestNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
	case errors.Is(err, service.ErrInvalidTest):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidTestPayload)
	case errors.Is(err, service.ErrStoreUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
