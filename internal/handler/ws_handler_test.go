package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/prepforge/prepforge-backend/internal/service"
	"github.com/prepforge/prepforge-backend/internal/session"
	"github.com/rs/zerolog"
)

func streamTestDefinition() *model.TestDefinition {
	return &model.TestDefinition{
		TestName:        "Stream Test",
		DurationMinutes: 5,
		Questions: []model.Question{
			{Question: "q1", Options: []string{"A", "B"}, Answer: "A"},
			{Question: "q2", Options: []string{"A", "B"}, Answer: "B"},
		},
	}
}

// newStreamServer wires a live controller behind the real route and returns
// the ws URL for it. The controller's clock is not started, so the stream
// only moves when the test sends actions.
func newStreamServer(t *testing.T, graceSeconds int) (*httptest.Server, *session.Controller, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := session.NewManager(zerolog.Nop())
	ctrl := session.NewController(uuid.New(), "test-id", graceSeconds, nil, zerolog.Nop())
	ctrl.Activate(streamTestDefinition())
	manager.Add(ctrl)

	sessionService := service.NewSessionService(nil, manager, nil, graceSeconds, zerolog.Nop())
	h := NewWSHandler(sessionService, zerolog.Nop(), nil)

	r := gin.New()
	r.GET("/ws/v1/sessions/:session_id/stream", h.SessionStream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/sessions/" + ctrl.ID().String() + "/stream"
	return srv, ctrl, url
}

// readEvents drains the connection until the server closes it, returning
// every "event" discriminator seen.
func readEvents(t *testing.T, conn *websocket.Conn) []string {
	t.Helper()
	var events []string
	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg map[string]json.RawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return events
		}
		var ev string
		if raw, ok := msg["event"]; ok {
			_ = json.Unmarshal(raw, &ev)
		}
		events = append(events, ev)
	}
}

func TestStreamDeliversGradedEventBeforeClose(t *testing.T) {
	_, _, url := newStreamServer(t, 0)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]interface{}{"action": "answer", "index": 0, "ans": "A"}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	if err := conn.WriteJSON(map[string]interface{}{"action": "submit"}); err != nil {
		t.Fatalf("write submit: %v", err)
	}

	events := readEvents(t, conn)
	graded := false
	for _, ev := range events {
		if ev == "graded" {
			graded = true
		}
	}
	if !graded {
		t.Fatalf("graded event never delivered; got %v", events)
	}
	// The initial snapshot always precedes it.
	if len(events) == 0 || events[0] != "state" {
		t.Errorf("expected initial state snapshot first, got %v", events)
	}
}

func TestStreamDeliversTerminatedEventBeforeClose(t *testing.T) {
	_, _, url := newStreamServer(t, 0)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// No grace configured: a fullscreen exit terminates outright.
	fullscreen := false
	if err := conn.WriteJSON(map[string]interface{}{"action": "fullscreen", "fullscreen": fullscreen}); err != nil {
		t.Fatalf("write fullscreen: %v", err)
	}

	events := readEvents(t, conn)
	terminated := false
	for _, ev := range events {
		if ev == "terminated" {
			terminated = true
		}
	}
	if !terminated {
		t.Fatalf("terminated event never delivered; got %v", events)
	}
}

func TestStreamRejectsUnknownSession(t *testing.T) {
	srv, _, _ := newStreamServer(t, 0)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/sessions/" + uuid.NewString() + "/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded for an unknown session")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("expected 404 on unknown session, got %+v", resp)
	}
}
