package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/rs/zerolog"
)

// Status enumerates exam session states.
type Status string

const (
	StatusLoading     Status = "LOADING"
	StatusActive      Status = "ACTIVE"
	StatusGracePeriod Status = "GRACE_PERIOD"
	StatusTerminated  Status = "TERMINATED"
	StatusSubmitted   Status = "SUBMITTED"
)

// EventType identifies a notification pushed to the session's consumer.
type EventType string

const (
	EventTick         EventType = "tick"
	EventGraceStarted EventType = "grace_started"
	EventResumed      EventType = "resumed"
	EventGraded       EventType = "graded"
	EventTerminated   EventType = "terminated"
)

// Event is a notification emitted by the controller. Consumers (the
// WebSocket stream) render it; losing a tick is harmless, the state
// snapshot is always authoritative.
type Event struct {
	Type             EventType           `json:"event"`
	RemainingSeconds int                 `json:"remaining_seconds"`
	GraceRemaining   int                 `json:"grace_remaining,omitempty"`
	Result           *model.ResultRecord `json:"result,omitempty"`
}

// State is a point-in-time snapshot of a session.
type State struct {
	SessionID        uuid.UUID       `json:"session_id"`
	TestID           string          `json:"test_id"`
	TestName         string          `json:"test_name"`
	Status           Status          `json:"status"`
	CurrentIndex     int             `json:"current_index"`
	TotalQuestions   int             `json:"total_questions"`
	RemainingSeconds int             `json:"remaining_seconds"`
	GraceRemaining   int             `json:"grace_remaining"`
	Answers          model.AnswerMap `json:"answers"`
}

// SubmitFunc receives the ResultRecord exactly once, at submission. It runs
// on its own goroutine so the state machine never blocks on I/O.
type SubmitFunc func(rec *model.ResultRecord)

// Controller owns one proctored exam attempt from load to scored
// submission. Every transition is serialized on one mutex: event order is
// lock-acquisition order, and the submitted latch is checked and set inside
// the same critical section, which makes submission at-most-once even when
// the countdown, the grace timer and a manual submit race.
type Controller struct {
	id          uuid.UUID
	testID      string
	graceBudget int // seconds; 0 disables the grace period
	onSubmit    SubmitFunc
	log         zerolog.Logger

	mu             sync.Mutex
	status         Status
	test           *model.TestDefinition
	currentIndex   int
	remaining      int
	graceRemaining int
	answers        model.AnswerMap
	submitted      bool
	eventsClosed   bool
	finishedAt     time.Time

	events   chan Event
	stopOnce sync.Once
	stop     chan struct{}
}

// NewController creates a session in LOADING state. graceSeconds of 0 means
// an unexpected fullscreen exit terminates the session unconditionally.
func NewController(id uuid.UUID, testID string, graceSeconds int, onSubmit SubmitFunc, log zerolog.Logger) *Controller {
	return &Controller{
		id:          id,
		testID:      testID,
		graceBudget: graceSeconds,
		onSubmit:    onSubmit,
		log: log.With().
			Str("component", "session").
			Str("session_id", id.String()).
			Logger(),
		status:  StatusLoading,
		answers: make(model.AnswerMap),
		events:  make(chan Event, 64),
		stop:    make(chan struct{}),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() uuid.UUID { return c.id }

// Events returns the notification stream. It is closed when the session
// reaches a terminal state.
func (c *Controller) Events() <-chan Event { return c.events }

// Activate moves LOADING → ACTIVE once the loader has succeeded.
// The minutes-to-seconds conversion happens here and nowhere else.
func (c *Controller) Activate(test *model.TestDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusLoading {
		return
	}

	c.test = test
	c.remaining = test.DurationMinutes * 60
	c.currentIndex = 0
	c.status = StatusActive
	c.log.Info().
		Str("test", test.TestName).
		Int("questions", len(test.Questions)).
		Int("seconds", c.remaining).
		Msg("Session activated")
}

// Start launches the 1-second countdown clock. It stops permanently once
// the session reaches a terminal state.
func (c *Controller) Start() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Tick()
			case <-c.stop:
				return
			}
		}
	}()
}

// Tick advances the countdown by one second. Reaching zero submits exactly
// once; an elapsed grace budget does the same. No-op in LOADING and after
// terminal states.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case StatusActive:
		c.remaining--
		if c.remaining <= 0 {
			c.remaining = 0
			c.submitLocked()
			return
		}
		c.emit(Event{Type: EventTick, RemainingSeconds: c.remaining})

	case StatusGracePeriod:
		// The grace period does not pause the exam clock.
		c.remaining--
		c.graceRemaining--
		if c.remaining <= 0 {
			c.remaining = 0
			c.submitLocked()
			return
		}
		if c.graceRemaining <= 0 {
			c.log.Info().Msg("Grace period elapsed, auto-submitting")
			c.submitLocked()
			return
		}
		c.emit(Event{Type: EventTick, RemainingSeconds: c.remaining, GraceRemaining: c.graceRemaining})
	}
}

// FullscreenChange is the fullscreen guard input. A false signal while the
// session runs starts the grace period, or terminates outright when no
// grace is configured. A true signal during grace recovers the session.
func (c *Controller) FullscreenChange(isFullscreen bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !isFullscreen && c.status == StatusActive:
		if c.graceBudget <= 0 {
			c.log.Warn().Msg("Fullscreen exited, no grace configured, terminating")
			c.terminateLocked()
			return
		}
		c.status = StatusGracePeriod
		c.graceRemaining = c.graceBudget
		c.log.Warn().Int("grace_seconds", c.graceBudget).Msg("Fullscreen exited, grace period started")
		c.emit(Event{Type: EventGraceStarted, RemainingSeconds: c.remaining, GraceRemaining: c.graceRemaining})

	case isFullscreen && c.status == StatusGracePeriod:
		c.status = StatusActive
		c.graceRemaining = 0
		c.log.Info().Msg("Fullscreen restored, session resumed")
		c.emit(Event{Type: EventResumed, RemainingSeconds: c.remaining})
	}
}

// Next advances the cursor. No-op at the last question: finishing requires
// an explicit submit.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.runningLocked() {
		return
	}
	if c.currentIndex < len(c.test.Questions)-1 {
		c.currentIndex++
	}
}

// Previous retreats the cursor. No-op at index 0.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.runningLocked() {
		return
	}
	if c.currentIndex > 0 {
		c.currentIndex--
	}
}

// SelectAnswer records the selected option for a question index,
// overwriting any prior answer. It does not advance the cursor.
func (c *Controller) SelectAnswer(index int, option string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.runningLocked() {
		return
	}
	if index < 0 || index >= len(c.test.Questions) {
		return
	}
	c.answers[index] = option
}

// Submit finishes the session manually. Safe to call any number of times;
// only the first call scores.
func (c *Controller) Submit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.runningLocked() {
		return
	}
	c.submitLocked()
}

// Terminate ends the session without scoring. The session is abandoned and
// no ResultRecord is produced — a distinct outcome from SUBMITTED.
func (c *Controller) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminalLocked() {
		return
	}
	c.terminateLocked()
}

// Snapshot returns a consistent copy of the session state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		SessionID:        c.id,
		TestID:           c.testID,
		Status:           c.status,
		CurrentIndex:     c.currentIndex,
		RemainingSeconds: c.remaining,
		GraceRemaining:   c.graceRemaining,
		Answers:          c.answers.Copy(),
	}
	if c.test != nil {
		s.TestName = c.test.TestName
		s.TotalQuestions = len(c.test.Questions)
	}
	return s
}

// FinishedAt reports when the session reached a terminal state; ok is false
// while it is still running.
func (c *Controller) FinishedAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finishedAt, c.terminalLocked()
}

// ─── Internal transitions (callers hold c.mu) ──────────────────────

func (c *Controller) runningLocked() bool {
	return c.status == StatusActive || c.status == StatusGracePeriod
}

func (c *Controller) terminalLocked() bool {
	return c.status == StatusSubmitted || c.status == StatusTerminated
}

// submitLocked scores and finishes the session. The submitted latch makes
// it at-most-once: the countdown hitting zero, the grace timeout and a
// manual submit can all call it, only the first wins.
func (c *Controller) submitLocked() {
	if c.submitted {
		return
	}
	c.submitted = true
	c.status = StatusSubmitted
	c.finishedAt = time.Now()
	c.stopClockLocked()

	rec := Score(c.test, c.answers)
	c.log.Info().
		Int("correct", rec.CorrectCount).
		Int("total", rec.TotalQuestions).
		Int("score", rec.ScorePercent).
		Msg("Session submitted")

	c.emit(Event{Type: EventGraded, RemainingSeconds: c.remaining, Result: rec})
	c.closeEventsLocked()

	if c.onSubmit != nil {
		go c.onSubmit(rec)
	}
}

func (c *Controller) terminateLocked() {
	c.status = StatusTerminated
	c.finishedAt = time.Now()
	c.stopClockLocked()
	c.emit(Event{Type: EventTerminated, RemainingSeconds: c.remaining})
	c.closeEventsLocked()
	c.log.Info().Msg("Session terminated without scoring")
}

func (c *Controller) stopClockLocked() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Controller) closeEventsLocked() {
	if !c.eventsClosed {
		c.eventsClosed = true
		close(c.events)
	}
}

// emit delivers a notification without ever blocking the state machine.
// A full buffer drops the event; consumers resync from Snapshot.
func (c *Controller) emit(ev Event) {
	if c.eventsClosed {
		return
	}
	select {
	case c.events <- ev:
	default:
	}
}
