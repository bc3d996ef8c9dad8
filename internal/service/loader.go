package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/prepforge/prepforge-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Load failure taxonomy. All are terminal for the attempt; none are retried
// automatically. The caller presents the category and a single
// return-to-catalog action.
var (
	ErrMissingIdentifier = errors.New("missing test identifier")
	ErrTestNotFound      = errors.New("test not found or expired")
	ErrStoreUnavailable  = errors.New("test store unavailable")
	ErrInvalidTest       = errors.New("invalid test definition")
)

// TestSource provides immutable test definitions by opaque id.
type TestSource interface {
	GetTest(ctx context.Context, testID string) (*model.TestDefinition, error)
}

// TestLoader fetches a test definition and maps provider failures onto the
// user-facing categories.
type TestLoader struct {
	source TestSource
	log    zerolog.Logger
}

// NewTestLoader creates a TestLoader.
func NewTestLoader(source TestSource, log zerolog.Logger) *TestLoader {
	return &TestLoader{
		source: source,
		log:    log.With().Str("component", "test_loader").Logger(),
	}
}

// Load retrieves the test definition for testID. An empty id fails with
// ErrMissingIdentifier before the store is touched. The store's own TTL
// policy decides expiry; the loader only surfaces the miss as
// ErrTestNotFound.
func (l *TestLoader) Load(ctx context.Context, testID string) (*model.TestDefinition, error) {
	if testID == "" {
		return nil, ErrMissingIdentifier
	}

	def, err := l.source.GetTest(ctx, testID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTestNotFound
		}
		l.log.Error().Err(err).Str("test_id", testID).Msg("Test store error")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := validateDefinition(def); err != nil {
		l.log.Warn().Err(err).Str("test_id", testID).Msg("Stored test failed validation")
		return nil, err
	}
	return def, nil
}

func validateDefinition(def *model.TestDefinition) error {
	if len(def.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidTest)
	}
	if def.DurationMinutes <= 0 {
		return fmt.Errorf("%w: non-positive duration", ErrInvalidTest)
	}
	return nil
}
