package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/datallboy/gotube/internal/infra/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The service fronts a browser UI on another origin; access control is
	// out of scope here, matching the wide-open CORS policy on the REST side.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub tracks connected sessions by client id.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Serve upgrades the request into a session and blocks until the client
// disconnects. In-flight jobs for the session are not cancelled on
// disconnect; their later events just have nowhere to go.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, clientID string, router *Router) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	session := newSession(clientID, conn, h.log)
	h.register(session)
	h.log.Info("Session %s connected (%d active)", clientID, h.Count())

	go session.writePump()
	session.readPump(router)

	h.unregister(session)
	h.log.Info("Session %s disconnected (%d active)", clientID, h.Count())
	return nil
}

// Get returns the live session for a client id.
func (h *Hub) Get(clientID string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[clientID]
	return s, ok
}

// Count reports how many sessions are connected.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A reconnect with the same client id replaces the old session.
	if old, ok := h.sessions[s.ID]; ok {
		old.close()
	}
	h.sessions[s.ID] = s
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[s.ID] == s {
		delete(h.sessions, s.ID)
	}
	s.close()
}
