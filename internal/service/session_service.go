package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/prepforge/prepforge-backend/internal/repository"
	"github.com/prepforge/prepforge-backend/internal/session"
	"github.com/rs/zerolog"
)

// persistPayload is the queue message consumed by the result worker.
type persistPayload struct {
	SessionID      string          `json:"session_id"`
	TestID         string          `json:"test_id"`
	TestName       string          `json:"test_name"`
	TotalQuestions int             `json:"total_questions"`
	CorrectCount   int             `json:"correct_count"`
	ScorePercent   int             `json:"score_percent"`
	Answers        model.AnswerMap `json:"answers"`
	SubmittedAt    int64           `json:"submitted_at"`
}

// SessionService creates and resolves timed exam sessions and owns the
// result handoff at submission time.
type SessionService struct {
	loader       *TestLoader
	manager      *session.Manager
	store        *repository.TestStore
	graceSeconds int
	log          zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	loader *TestLoader,
	manager *session.Manager,
	store *repository.TestStore,
	graceSeconds int,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		loader:       loader,
		manager:      manager,
		store:        store,
		graceSeconds: graceSeconds,
		log:          log.With().Str("component", "session_service").Logger(),
	}
}

// CreateSession loads the test and starts a proctored session for it.
// withGrace selects the 5-second grace variant; without it, a fullscreen
// exit terminates the session unconditionally. Load failures carry the
// loader taxonomy unchanged.
func (s *SessionService) CreateSession(ctx context.Context, testID string, withGrace bool) (session.State, error) {
	def, err := s.loader.Load(ctx, testID)
	if err != nil {
		return session.State{}, err
	}

	grace := 0
	if withGrace {
		grace = s.graceSeconds
	}

	sessionID := uuid.New()
	ctrl := session.NewController(sessionID, testID, grace, s.handoff(sessionID, testID), s.log)
	ctrl.Activate(def)
	ctrl.Start()
	s.manager.Add(ctrl)

	// The client is asked to enter fullscreen now; failing to do so is
	// logged by the guard path but never fatal, the exam proceeds windowed.
	return ctrl.Snapshot(), nil
}

// Get resolves a live session by id.
func (s *SessionService) Get(id uuid.UUID) (*session.Controller, bool) {
	return s.manager.Get(id)
}

// TakeResult performs the single-use handoff read: the slot is cleared on
// first read, a second read misses.
func (s *SessionService) TakeResult(ctx context.Context, sessionID uuid.UUID) (*model.ResultRecord, error) {
	return s.store.TakeResult(ctx, sessionID.String())
}

// handoff builds the submit callback for one session: write the single-use
// result slot and queue the record for durable persistence. The controller
// invokes it off the state-machine lock, exactly once.
func (s *SessionService) handoff(sessionID uuid.UUID, testID string) session.SubmitFunc {
	return func(rec *model.ResultRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.store.PutResult(ctx, sessionID.String(), rec); err != nil {
			s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Result handoff write failed")
		}

		payload, _ := json.Marshal(persistPayload{
			SessionID:      sessionID.String(),
			TestID:         testID,
			TestName:       rec.TestName,
			TotalQuestions: rec.TotalQuestions,
			CorrectCount:   rec.CorrectCount,
			ScorePercent:   rec.ScorePercent,
			Answers:        rec.Answers,
			SubmittedAt:    time.Now().Unix(),
		})
		if err := s.store.EnqueueResult(ctx, payload); err != nil {
			s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Result persistence enqueue failed")
		}
	}
}
