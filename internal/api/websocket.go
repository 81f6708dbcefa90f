package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"relay-chat/internal/interfaces"
	"relay-chat/internal/model"
	"relay-chat/internal/service"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsWriteWait  = 10 * time.Second
)

// inboundMessage is what a WebSocket client sends.
type inboundMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// WebSocketHandler runs one session per connection.
type WebSocketHandler struct {
	service  interfaces.ChatService
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the handler. Upgrades are accepted from the
// allowed origins only; "*" allows any origin and requests without an
// Origin header (non-browser clients) are always accepted.
func NewWebSocketHandler(svc interfaces.ChatService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		service: svc,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.ToLower(strings.TrimSpace(o))
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		if _, ok := allowed[strings.ToLower(origin)]; ok {
			return true
		}
		slog.WarnContext(r.Context(), "Rejected WebSocket upgrade from disallowed origin", "origin", origin)
		return false
	}
}

// wsConn serializes writes; gorilla connections allow one writer at a time.
type wsConn struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string
}

func (c *wsConn) send(e model.Event) {
	if e.SessionID == "" {
		e.SessionID = c.sessionID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := c.conn.WriteJSON(e); err != nil {
		slog.Warn("WebSocket write failed", "session_id", c.sessionID, "error", err)
	}
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// HandleWebSocket godoc
// @Summary      Chat over WebSocket
// @Description  Starts a session on connect and sends a session event followed by the greeting.
// @Description  Clients send {"type":"message","content":"..."}; the session ends on disconnect.
// @Tags         Sessions
// @Router       /v1/ws [get]
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session, err := h.service.StartSession(ctx)
	if err != nil {
		slog.Error("Could not start session for WebSocket", "error", err)
		_ = conn.WriteJSON(model.Event{Type: model.EventError, Error: "could not start session"})
		return
	}
	defer func() {
		if err := h.service.EndSession(context.WithoutCancel(ctx), session.ID); err != nil {
			slog.Warn("Could not end WebSocket session", "session_id", session.ID, "error", err)
		}
	}()

	c := &wsConn{conn: conn, sessionID: session.ID}
	slog.Info("WebSocket connected", "session_id", session.ID)

	c.send(model.Event{Type: model.EventSession})
	for _, msg := range session.Transcript() {
		m := msg
		c.send(model.Event{Type: model.EventAppend, Message: &m})
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go h.pingLoop(ctx, c)

	presenter := service.EventPresenter(c.send)
	for {
		// Turns run inline, so the deadline is renewed before every read.
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket read error", "session_id", session.ID, "error", err)
			}
			return
		}

		if msg.Type != "message" {
			c.send(model.Event{Type: model.EventError, Error: "unsupported message type: " + msg.Type})
			continue
		}

		if _, err := h.service.SendMessage(ctx, session.ID, msg.Content, presenter); err != nil {
			c.send(model.Event{Type: model.EventError, Error: err.Error()})
		}
	}
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
