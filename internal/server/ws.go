package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nuance/pkg/nuancetypes"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	inboxSize     = 16
)

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	inbox  chan []byte
	done   chan struct{}
	once   sync.Once
	server *Server
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.origins[origin]
		},
	}
}

// handleWebSocket upgrades the connection and runs the interview protocol on it.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, 64),
		inbox:  make(chan []byte, inboxSize),
		done:   make(chan struct{}),
		server: s,
	}

	// Generation calls outlive the upgrade request; they stop only when the server does.
	ctx := context.WithoutCancel(r.Context())

	go c.writePump()
	go c.work(ctx)
	c.readPump()
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) enqueue(data []byte) {
	select {
	case c.send <- data:
	case <-c.done:
	}
}

// readPump reads messages from the connection and queues them for work.
func (c *client) readPump() {
	defer func() {
		c.close()
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.log.Warn("WebSocket read error", "error", err)
			}
			return
		}

		select {
		case c.inbox <- message:
		case <-c.done:
			return
		}
	}
}

// work handles queued messages one at a time so replies keep their order.
func (c *client) work(ctx context.Context) {
	for {
		select {
		case raw := <-c.inbox:
			c.server.handleMessage(ctx, c, raw)
		case <-c.done:
			return
		}
	}
}

// writePump writes queued messages and keeps the connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, c *client, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Recovered from message handler panic", "panic", r)
			s.sendError(c, ErrInternal, fmt.Sprint(r), "")
		}
	}()

	msgType, p, err := parseClientMessage(raw)
	if err != nil {
		s.sendError(c, ErrInvalidMessage, err.Error(), p.SessionID)
		return
	}

	switch msgType {
	case TypeSessionStart:
		id := strings.TrimSpace(p.SessionID)
		if id == "" {
			id = s.NewID()
		}
		result := s.deps.Orchestrator.StartSession(ctx, id, p.Mood)
		if result.Code != "" {
			s.sendError(c, string(result.Code), result.Error, id)
			return
		}
		s.send(c, TypeSessionStarted, result)

	case TypeSessionReply:
		result := s.deps.Orchestrator.UserReply(ctx, p.SessionID, p.UserInput)
		if result.Code != "" {
			s.sendError(c, string(result.Code), result.Error, p.SessionID)
			return
		}
		s.send(c, TypeSessionReplied, struct {
			SessionID string `json:"session_id"`
			nuancetypes.ReplyResult
		}{p.SessionID, result})

	case TypeSessionHistory:
		s.send(c, TypeSessionHistory, historyPayload(p.SessionID, s.deps.Orchestrator))

	case TypeSessionEnd:
		s.deps.Orchestrator.CleanupSession(p.SessionID)
		s.send(c, TypeSessionEnded, map[string]string{"session_id": p.SessionID})
	}
}

func (s *Server) send(c *client, msgType string, payload any) {
	msg, err := newMessage(msgType, payload, s.Now())
	if err != nil {
		s.log.Error("Failed to build message", "type", msgType, "error", err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("Failed to marshal message", "type", msgType, "error", err)
		return
	}
	c.enqueue(data)
}

func (s *Server) sendError(c *client, code, message, sessionID string) {
	s.send(c, TypeError, errorPayload{Code: code, Message: message, SessionID: sessionID})
}
