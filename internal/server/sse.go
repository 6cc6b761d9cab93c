package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/codecrew-ai/codecrew/internal/event"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 30 * time.Second

// streamEvent is the wire envelope for one bus event.
type streamEvent struct {
	Type       event.EventType `json:"type"`
	Properties any             `json:"properties"`
}

// sseWriter wraps a ResponseWriter for event-stream output.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}
	return &sseWriter{w: w, flusher: flusher, rc: http.NewResponseController(w)}, nil
}

func (s *sseWriter) writeEvent(data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: message\ndata: %s\n\n", payload); err != nil {
		return err
	}
	// ResponseController flushes through middleware wrappers; fall back to
	// the plain flusher if it cannot.
	if err := s.rc.Flush(); err != nil {
		s.flusher.Flush()
	}
	return nil
}

func (s *sseWriter) writeHeartbeat() {
	fmt.Fprint(s.w, ": heartbeat\n\n")
	s.flusher.Flush()
}

// streamEvents bridges the bus onto an SSE connection. Every event the
// process publishes is forwarded; a slow client drops events rather than
// blocking publishers.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	sse.flusher.Flush()

	if err := sse.writeEvent(streamEvent{Type: "server.connected", Properties: map[string]any{}}); err != nil {
		return
	}

	events := make(chan event.Event, 10)
	unsub := event.SubscribeAll(func(e event.Event) {
		select {
		case events <- e:
		default:
			s.log.Warn().Str("eventType", string(e.Type)).Msg("sse event dropped: client too slow")
		}
	})
	defer unsub()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-events:
			if err := sse.writeEvent(streamEvent{Type: e.Type, Properties: e.Data}); err != nil {
				return
			}
		case <-ticker.C:
			sse.writeHeartbeat()
		}
	}
}
