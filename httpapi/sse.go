package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/norrin/workflow-engine/workflow"
)

const pingInterval = 20 * time.Second

// sseWriter streams workflow.Frame values as spec-compliant `data: <json>\n\n`
// frames — unlike devui/api's own SSE helper, there is no `event:` line; the
// frame's type travels inside the JSON body. A background ticker writes a
// comment-line ping so idle approval waits don't get closed by a proxy.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher

	mu      sync.Mutex
	stopped bool
	stop    chan struct{}
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s := &sseWriter{w: w, flusher: flusher, stop: make(chan struct{})}
	go s.pingLoop()
	return s, true
}

func (s *sseWriter) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.stopped {
				fmt.Fprint(s.w, ": ping\n\n")
				s.flusher.Flush()
			}
			s.mu.Unlock()
		}
	}
}

func (s *sseWriter) frame(f workflow.Frame) {
	s.writeFrame(f)
}

func (s *sseWriter) writeFrame(f workflow.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	payload := f.MarshalFrame()
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", raw)
	s.flusher.Flush()
}

func (s *sseWriter) close() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()
	close(s.stop)
}
