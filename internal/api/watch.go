package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mindwell/stress-engine/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// PatternMessage is one frame on the pattern watch socket.
type PatternMessage struct {
	Type     string                `json:"type"` // snapshot | update | error
	Patterns *models.StressPattern `json:"patterns,omitempty"`
	Message  string                `json:"message,omitempty"`
}

// patternSub is one connected watcher. Writes are serialized per
// connection; gorilla/websocket allows only one concurrent writer.
type patternSub struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *patternSub) send(msg PatternMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal pattern message", "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// PatternHub fans recomputed pattern snapshots out to each user's open
// watch sockets. It implements detector.Notifier.
type PatternHub struct {
	mu   sync.Mutex
	subs map[string]map[*patternSub]bool
}

// NewPatternHub creates an empty hub
func NewPatternHub() *PatternHub {
	return &PatternHub{
		subs: make(map[string]map[*patternSub]bool),
	}
}

func (h *PatternHub) register(userID string, sub *patternSub) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*patternSub]bool)
	}
	h.subs[userID][sub] = true
}

func (h *PatternHub) unregister(userID string, sub *patternSub) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[userID], sub)
	if len(h.subs[userID]) == 0 {
		delete(h.subs, userID)
	}
}

// PatternUpdated pushes a fresh snapshot to every watcher of the user
func (h *PatternHub) PatternUpdated(userID string, p *models.StressPattern) {
	h.mu.Lock()
	var targets []*patternSub
	for sub := range h.subs[userID] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	msg := PatternMessage{Type: "update", Patterns: p}
	for _, sub := range targets {
		if err := sub.send(msg); err != nil {
			slog.Debug("pattern push failed", "user_id", userID, "error", err)
		}
	}
}

// handlePatternsWatch upgrades to a websocket and streams pattern
// snapshots: the current one immediately, then a frame after every
// recompute triggered by the user's submissions or the sweep.
func (s *Server) handlePatternsWatch(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("pattern watch connected", "user_id", userID)

	sub := &patternSub{conn: conn}
	s.hub.register(userID, sub)
	defer s.hub.unregister(userID, sub)

	// Current snapshot first, so the client renders without waiting
	// for the next recompute.
	p, err := s.stress.Patterns(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load patterns for watch", "error", err, "user_id", userID)
		sub.send(PatternMessage{Type: "error", Message: "failed to load patterns"})
	} else if p == nil {
		sub.send(PatternMessage{Type: "snapshot", Message: "not enough check-ins yet for pattern analysis"})
	} else {
		sub.send(PatternMessage{Type: "snapshot", Patterns: p})
	}

	// Drain the connection to detect close. Clients send nothing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("pattern watch read error", "error", err)
			}
			break
		}
	}

	slog.Info("pattern watch disconnected", "user_id", userID)
}
