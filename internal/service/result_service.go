package service

import (
	"context"

	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/prepforge/prepforge-backend/internal/repository"
	"github.com/prepforge/prepforge-backend/internal/response"
	"github.com/rs/zerolog"
)

// ResultService exposes the persisted exam result history.
type ResultService struct {
	resultRepo *repository.ResultRepository
	log        zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository, log zerolog.Logger) *ResultService {
	return &ResultService{
		resultRepo: resultRepo,
		log:        log.With().Str("component", "result_service").Logger(),
	}
}

// List retrieves result rows, newest first.
func (s *ResultService) List(ctx context.Context, page, perPage int) ([]model.ResultRow, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	rows, total, err := s.resultRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if rows == nil {
		rows = []model.ResultRow{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return rows, pagination, nil
}

// GetBySession retrieves the persisted row for one session.
func (s *ResultService) GetBySession(ctx context.Context, sessionID string) (*model.ResultRow, error) {
	return s.resultRepo.GetBySession(ctx, sessionID)
}
