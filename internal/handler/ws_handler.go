package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prepforge/prepforge-backend/internal/service"
	"github.com/prepforge/prepforge-backend/internal/session"
	ws "github.com/prepforge/prepforge-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a proctored exam session: the client sends observed
// actions (answers, navigation, fullscreen changes, submit), the server
// pushes controller events and state snapshots.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream
func (h *WSHandler) SessionStream(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	ctrl, ok := h.sessionService.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session with this ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID.String()).Logger()
	wsLog.Info().Msg("Client connected")

	// Initial snapshot so the client renders without waiting for a tick.
	// The writer goroutine is not running yet, so this write is safe.
	if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: ctrl.Snapshot()}); err != nil {
		wsLog.Debug().Err(err).Msg("Initial snapshot write failed")
		return
	}

	// One writer owns the connection: controller events and read-loop
	// replies are merged here. A closed events channel still yields its
	// buffered values first, so the graded/terminated event is written
	// before the connection is closed to unblock the reader.
	replies := make(chan interface{}, 32)
	readerQuit := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer conn.Close()
		for {
			select {
			case ev, ok := <-ctrl.Events():
				if !ok {
					return
				}
				if err := ws.WriteTyped(conn, ev); err != nil {
					wsLog.Debug().Err(err).Msg("Write failed, dropping connection")
					return
				}
			case v := <-replies:
				if err := ws.WriteTyped(conn, v); err != nil {
					wsLog.Debug().Err(err).Msg("Write failed, dropping connection")
					return
				}
			case <-readerQuit:
				return
			}
		}
	}()

	h.readLoop(conn, ctrl, replies, wsLog)
	close(readerQuit)
	<-writerDone
	wsLog.Info().Msg("Client disconnected")
}

// readLoop consumes client actions until the connection drops. Actions on a
// finished session are silently ignored by the controller, matching the
// no-mutation-after-terminal rule.
func (h *WSHandler) readLoop(conn *websocket.Conn, ctrl *session.Controller, replies chan<- interface{}, wsLog zerolog.Logger) {
	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			if msg.Index == nil || msg.Answer == "" {
				h.sendError(replies, "index and ans are required")
				continue
			}
			ctrl.SelectAnswer(*msg.Index, msg.Answer)
			h.sendState(replies, ctrl)

		case ws.ActionNext:
			ctrl.Next()
			h.sendState(replies, ctrl)

		case ws.ActionPrevious:
			ctrl.Previous()
			h.sendState(replies, ctrl)

		case ws.ActionFullscreen:
			if msg.Fullscreen == nil {
				h.sendError(replies, "fullscreen flag is required")
				continue
			}
			ctrl.FullscreenChange(*msg.Fullscreen)

		case ws.ActionSubmit:
			ctrl.Submit()

		case ws.ActionPing:
			h.send(replies, ws.PongResponse{Event: ws.EventPong})

		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			h.sendError(replies, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) sendState(replies chan<- interface{}, ctrl *session.Controller) {
	h.send(replies, ws.StateResponse{Event: ws.EventState, State: ctrl.Snapshot()})
}

func (h *WSHandler) sendError(replies chan<- interface{}, msg string) {
	h.send(replies, ws.ErrorResponse{Event: ws.EventError, Error: msg})
}

// send never blocks the read loop; a congested client loses the reply and
// resyncs from the next snapshot.
func (h *WSHandler) send(replies chan<- interface{}, v interface{}) {
	select {
	case replies <- v:
	default:
	}
}
