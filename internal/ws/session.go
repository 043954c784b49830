// Package ws owns the persistent per-client message channels. One session
// exists per connected client; its write pump is the only goroutine that
// touches the connection for sends, which serializes concurrent emitters.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/datallboy/gotube/internal/infra/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	// sendBuffer absorbs bursts from several jobs emitting at once. A full
	// buffer means the client cannot keep up; events are dropped, not queued
	// without bound.
	sendBuffer = 64
)

// Session is one connected client: its identifier, the websocket and the
// outbound queue. It implements progress.Sink.
type Session struct {
	ID string

	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	log       *logger.Logger
}

func newSession(id string, conn *websocket.Conn, log *logger.Logger) *Session {
	return &Session{
		ID:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		log:  log,
	}
}

// Deliver marshals v and enqueues it for the write pump. Safe from any
// goroutine. Delivery to a closed or saturated session is dropped silently:
// a disconnected client's jobs keep running and their events simply become
// undeliverable.
func (s *Session) Deliver(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.log.Error("Session %s: encode outbound event: %v", s.ID, err)
		return
	}

	select {
	case <-s.done:
	case s.send <- payload:
	default:
		s.log.Warn("Session %s: outbound buffer full, dropping event", s.ID)
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// writePump drains the outbound queue onto the wire and keeps the connection
// alive with pings. Runs until the session closes or a write fails.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes inbound frames and hands them to the router. Blocks until
// the client disconnects or the connection errors.
func (s *Session) readPump(router *Router) {
	defer s.conn.Close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Session %s: read error: %v", s.ID, err)
			}
			return
		}
		router.Handle(s.ID, s, raw)
	}
}
