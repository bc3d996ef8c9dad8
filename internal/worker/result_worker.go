package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepforge/prepforge-backend/internal/config"
	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ResultWorker drains submitted exam results from the Redis queue into
// PostgreSQL in batches.
type ResultWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger

	// flush sinks one batch; defaults to flushSafe.
	flush func(ctx context.Context, batch []*resultPayload)
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	w := &ResultWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
	w.flush = w.flushSafe
	return w
}

type resultPayload struct {
	SessionID      string          `json:"session_id"`
	TestID         string          `json:"test_id"`
	TestName       string          `json:"test_name"`
	TotalQuestions int             `json:"total_questions"`
	CorrectCount   int             `json:"correct_count"`
	ScorePercent   int             `json:"score_percent"`
	Answers        model.AnswerMap `json:"answers"`
	SubmittedAt    int64           `json:"submitted_at"`
}

// answersJSON renders the answer map for the jsonb column; an empty map
// persists as {} rather than null.
func answersJSON(a model.AnswerMap) []byte {
	if a == nil {
		a = model.AnswerMap{}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return []byte("{}")
	}
	return data
}

// Start runs the poll/flush loop until ctx is cancelled, then drains the
// remaining buffer.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	buffer := make([]*resultPayload, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 &&
			(len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout) {
			w.flush(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		item, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistResultsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				// Cancellation lands here when it interrupts the blocking
				// pop; the buffer still needs its final flush.
				w.shutdown(buffer)
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(item) < 2 {
			continue
		}

		var p resultPayload
		if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", item[1]).Msg("Discarding malformed payload")
			continue
		}

		buffer = append(buffer, &p)
	}
}

// flushSafe attempts bulk insert, then falls back to row-by-row, requeueing
// what still fails.
func (w *ResultWorker) flushSafe(ctx context.Context, batch []*resultPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *ResultWorker) bulkInsert(ctx context.Context, batch []*resultPayload) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, p := range batch {
		sessionID, err := uuid.Parse(p.SessionID)
		if err != nil {
			// Trigger fallback, which drops the bad row individually.
			return err
		}
		rows = append(rows, []interface{}{
			sessionID, p.TestID, p.TestName, p.TotalQuestions,
			p.CorrectCount, p.ScorePercent, answersJSON(p.Answers), time.Unix(p.SubmittedAt, 0),
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"exam_results"},
		[]string{"session_id", "test_id", "test_name", "total_questions", "correct_count", "score_percent", "answers", "submitted_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *ResultWorker) fallbackInsert(ctx context.Context, batch []*resultPayload) {
	requeueList := make([]*resultPayload, 0)

	for _, p := range batch {
		sessionID, err := uuid.Parse(p.SessionID)
		if err != nil {
			w.log.Error().Str("session_id", p.SessionID).Msg("Dropping result with invalid session id")
			continue
		}

		_, err = w.pool.Exec(ctx,
			`INSERT INTO exam_results (session_id, test_id, test_name, total_questions, correct_count, score_percent, answers, submitted_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
			 ON CONFLICT (session_id) DO NOTHING`,
			sessionID, p.TestID, p.TestName, p.TotalQuestions, p.CorrectCount, p.ScorePercent,
			string(answersJSON(p.Answers)), time.Unix(p.SubmittedAt, 0),
		)
		if err != nil {
			w.log.Error().Err(err).Str("session_id", p.SessionID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ResultWorker) requeue(ctx context.Context, items []*resultPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistResultsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue results to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed results back to Redis")
	// Avoid thrashing if the DB is down hard.
	time.Sleep(2 * time.Second)
}

func (w *ResultWorker) shutdown(buffer []*resultPayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flush(shutdownCtx, buffer)
	}
}
