package service

import (
	"context"
	"fmt"

	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/prepforge/prepforge-backend/internal/repository"
	"github.com/rs/zerolog"
)

// TestGenerator produces a test definition from a generation request.
type TestGenerator interface {
	Generate(ctx context.Context, req model.GenerateTestRequest) (*model.TestDefinition, error)
}

// TestService handles test generation and retrieval.
type TestService struct {
	generator TestGenerator
	store     *repository.TestStore
	loader    *TestLoader
	log       zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(generator TestGenerator, store *repository.TestStore, loader *TestLoader, log zerolog.Logger) *TestService {
	return &TestService{
		generator: generator,
		store:     store,
		loader:    loader,
		log:       log.With().Str("component", "test_service").Logger(),
	}
}

// Generate produces a new test via the LLM and stores it with the
// availability TTL attached.
func (s *TestService) Generate(ctx context.Context, req model.GenerateTestRequest) (*model.TestResponse, error) {
	def, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate test: %w", err)
	}

	testID, err := s.store.SaveTest(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("save test: %w", err)
	}

	s.log.Info().
		Str("test_id", testID).
		Str("test_name", def.TestName).
		Int("questions", len(def.Questions)).
		Msg("Test generated")

	return &model.TestResponse{
		TestID:    testID,
		TestName:  def.TestName,
		Duration:  def.DurationMinutes,
		Questions: def.Questions,
	}, nil
}

// GetByID loads a stored test for the retrieval endpoint.
func (s *TestService) GetByID(ctx context.Context, testID string) (*model.TestDefinition, error) {
	return s.loader.Load(ctx, testID)
}
