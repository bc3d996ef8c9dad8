package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepforge/prepforge-backend/internal/model"
)

// ResultRepository handles durable exam result history.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// List retrieves persisted results, newest first, with pagination.
func (r *ResultRepository) List(ctx context.Context, limit, offset int) ([]model.ResultRow, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_results`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, test_id, test_name, total_questions, correct_count, score_percent, answers, submitted_at
		 FROM exam_results
		 ORDER BY submitted_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.ResultRow
	for rows.Next() {
		var row model.ResultRow
		if err := rows.Scan(&row.ID, &row.SessionID, &row.TestID, &row.TestName,
			&row.TotalQuestions, &row.CorrectCount, &row.ScorePercent, &row.Answers, &row.SubmittedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, row)
	}
	return results, total, rows.Err()
}

// GetBySession retrieves the persisted result for one session. An absent
// row maps to ErrNotFound so callers can tell a miss from an outage.
func (r *ResultRepository) GetBySession(ctx context.Context, sessionID string) (*model.ResultRow, error) {
	row := &model.ResultRow{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, test_id, test_name, total_questions, correct_count, score_percent, answers, submitted_at
		 FROM exam_results
		 WHERE session_id = $1`, sessionID,
	).Scan(&row.ID, &row.SessionID, &row.TestID, &row.TestName,
		&row.TotalQuestions, &row.CorrectCount, &row.ScorePercent, &row.Answers, &row.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}
