package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/mini-colony/internal/engine"
)

// StreamMessage is one frame pushed on /api/v1/stream.
type StreamMessage struct {
	Type   string         `json:"type"` // "status" or "events"
	Tick   uint64         `json:"tick"`
	Status map[string]any `json:"status,omitempty"`
	Events []engine.Event `json:"events,omitempty"`
}

// handleStream upgrades to a websocket and pushes the colony status and
// any new events every StreamInterval until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if n := s.streams.Add(1); n > maxStreams {
		s.streams.Add(-1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.streams.Add(-1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	interval := s.StreamInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	// Reader: only watches for the client closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(time.Minute))
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Info("stream client connected", "remote", r.RemoteAddr)

	// Catch-up: the last 50 events.
	var sent uint64
	recent := s.Sim.RecentEvents(50)
	if len(recent) > 0 {
		sent = recent[len(recent)-1].Tick
		if err := s.push(conn, StreamMessage{Type: "events", Tick: sent, Events: recent}); err != nil {
			return
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.push(conn, StreamMessage{Type: "status", Tick: s.Sim.CurrentTick(), Status: s.status()}); err != nil {
			return
		}
		if fresh := eventsAfter(s.Sim.RecentEvents(0), sent); len(fresh) > 0 {
			sent = fresh[len(fresh)-1].Tick
			if err := s.push(conn, StreamMessage{Type: "events", Tick: sent, Events: fresh}); err != nil {
				return
			}
		}

		select {
		case <-ticker.C:
		case <-done:
			slog.Info("stream client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) push(conn *websocket.Conn, msg StreamMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// eventsAfter returns the events newer than tick. events is oldest first.
func eventsAfter(events []engine.Event, tick uint64) []engine.Event {
	i := len(events)
	for i > 0 && events[i-1].Tick > tick {
		i--
	}
	return events[i:]
}
