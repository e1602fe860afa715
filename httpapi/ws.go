package httpapi

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/norrin/workflow-engine/workflow"
)

// wsUpgrader mirrors devui's own inspector socket: no origin checking since
// this is a debug console endpoint, not meant to sit behind a browser CORS
// boundary in production.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleChatWS is a debug-console alternative to /chat/stream: the same
// frame sequence StartStream produces, delivered as JSON websocket messages
// instead of SSE. It exists so a developer console can watch a run live
// without re-implementing SSE framing on the client side.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var req chatRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": err.Error()})
		return
	}
	if req.Request == "" {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "request is required"})
		return
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	// gorilla/websocket connections aren't safe for concurrent writers;
	// StartStream's frame callback and the final error write both go
	// through this same mutex.
	var mu sync.Mutex
	onFrame := func(f workflow.Frame) {
		mu.Lock()
		defer mu.Unlock()
		_ = conn.WriteJSON(f.MarshalFrame())
	}

	if _, err := s.cfg.Engine.StartStream(r.Context(), workflow.StartRequest{
		ThreadID: threadID,
		Request:  req.Request,
	}, onFrame); err != nil {
		mu.Lock()
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": err.Error()})
		mu.Unlock()
	}
}
