package websocket

import "github.com/prepforge/prepforge-backend/internal/session"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer     Action = "answer"
	ActionNext       Action = "next"
	ActionPrevious   Action = "previous"
	ActionFullscreen Action = "fullscreen"
	ActionSubmit     Action = "submit"
	ActionPing       Action = "ping"
)

// RequestPayload carries any client action. Index and Answer are only
// meaningful for "answer"; Fullscreen only for "fullscreen".
type RequestPayload struct {
	Action     Action `json:"action"`
	Index      *int   `json:"index,omitempty"`
	Answer     string `json:"ans,omitempty"`
	Fullscreen *bool  `json:"fullscreen,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState Event = "state"
	EventError Event = "error"
	EventPong  Event = "pong"
)

// StateResponse pushes a full session snapshot, sent on connect and after
// cursor/answer actions so the client can always resync.
type StateResponse struct {
	Event Event         `json:"event"`
	State session.State `json:"state"`
}

// Controller notifications (tick, grace_started, resumed, graded,
// terminated) are relayed verbatim: session.Event already carries its own
// "event" discriminator.

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
