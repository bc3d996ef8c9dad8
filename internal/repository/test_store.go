package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prepforge/prepforge-backend/internal/config"
	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key is absent, which for generated tests
// also covers TTL expiry: Redis enforces the 5-minute availability window,
// the store only surfaces the miss.
var ErrNotFound = errors.New("not found")

// TestStore keeps generated tests and result handoff slots in Redis.
type TestStore struct {
	rdb       *redis.Client
	testTTL   time.Duration
	resultTTL time.Duration
}

// NewTestStore creates a TestStore. testTTL bounds how long a generated
// test stays retrievable; resultTTL bounds how long an unread result slot
// survives.
func NewTestStore(rdb *redis.Client, testTTL, resultTTL time.Duration) *TestStore {
	return &TestStore{rdb: rdb, testTTL: testTTL, resultTTL: resultTTL}
}

// SaveTest stores a freshly generated test under a new opaque id with the
// availability TTL attached.
func (s *TestStore) SaveTest(ctx context.Context, def *model.TestDefinition) (string, error) {
	payload, err := json.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("marshal test: %w", err)
	}

	testID := uuid.New().String()
	key := config.CacheKey.TestPayloadKey(testID)
	if err := s.rdb.Set(ctx, key, payload, s.testTTL).Err(); err != nil {
		return "", fmt.Errorf("store test: %w", err)
	}
	return testID, nil
}

// GetTest retrieves a test definition by id. Expired or unknown ids return
// ErrNotFound.
func (s *TestStore) GetTest(ctx context.Context, testID string) (*model.TestDefinition, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.TestPayloadKey(testID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}

	var def model.TestDefinition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		return nil, fmt.Errorf("decode test payload: %w", err)
	}
	return &def, nil
}

// PutResult writes the single-use result handoff slot for a session.
func (s *TestStore) PutResult(ctx context.Context, sessionID string, rec *model.ResultRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	key := config.CacheKey.SessionResultKey(sessionID)
	if err := s.rdb.Set(ctx, key, payload, s.resultTTL).Err(); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

// TakeResult reads a session's result slot and clears it atomically —
// single reader, single use. A second read returns ErrNotFound.
func (s *TestStore) TakeResult(ctx context.Context, sessionID string) (*model.ResultRecord, error) {
	raw, err := s.rdb.GetDel(ctx, config.CacheKey.SessionResultKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("take result: %w", err)
	}

	var rec model.ResultRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode result payload: %w", err)
	}
	return &rec, nil
}

// EnqueueResult pushes a persistence payload onto the worker queue.
func (s *TestStore) EnqueueResult(ctx context.Context, payload []byte) error {
	return s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err()
}
