package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/norrin/workflow-engine/integrations"
	"github.com/norrin/workflow-engine/workflow"
)

// chatRequest is the wire shape POST /chat and POST /chat/stream both accept.
// Per-integration bearer tokens ride alongside request/thread_id as extra
// top-level fields (gmail_token, google_token, ...) and are lifted into the
// credentials bag by credentialsFromBody.
type chatRequest struct {
	Request  string `json:"request"`
	ThreadID string `json:"thread_id,omitempty"`
}

var knownCredentialFields = []string{"gmail_token", "google_token", "notion_token", "slack_token"}

func credentialsFromBody(raw map[string]any) map[string]string {
	out := map[string]string{}
	for _, field := range knownCredentialFields {
		if v, ok := raw[field]; ok {
			if s, ok := v.(string); ok && s != "" {
				out[field] = s
			}
		}
	}
	return out
}

func decodeRequestBody(r *http.Request) (chatRequest, map[string]string, error) {
	raw := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return chatRequest{}, nil, err
	}
	body, _ := json.Marshal(raw)
	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return chatRequest{}, nil, err
	}
	return req, credentialsFromBody(raw), nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	req, creds, err := decodeRequestBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Request) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("request is required"))
		return
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	g, err := s.cfg.Engine.Start(r.Context(), workflow.StartRequest{
		ThreadID:    threadID,
		Request:     req.Request,
		Credentials: creds,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(g))
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	req, creds, err := decodeRequestBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Request) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("request is required"))
		return
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	sse, ok := newSSEWriter(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}
	defer sse.close()

	// StartStream itself emits exactly one done frame per terminal outcome
	// (synthesize on completion, the approval branch on pause), so nothing
	// further is written here on success.
	if _, err := s.cfg.Engine.StartStream(r.Context(), workflow.StartRequest{
		ThreadID:    threadID,
		Request:     req.Request,
		Credentials: creds,
	}, sse.frame); err != nil {
		sse.writeFrame(workflow.Frame{Type: "error", Data: map[string]any{"message": err.Error()}})
	}
}

type resumeRequest struct {
	ThreadID string         `json:"thread_id"`
	Action   string         `json:"action"`
	Content  map[string]any `json:"content,omitempty"`
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ThreadID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("thread_id is required"))
		return
	}
	switch req.Action {
	case "approve", "edit", "skip":
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown action %q", req.Action))
		return
	}

	g, err := s.cfg.Engine.Resume(r.Context(), workflow.ResumeRequest{
		ThreadID: req.ThreadID,
		Decision: workflow.ApprovalDecision{Action: req.Action, Content: req.Content},
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(g))
}

type retryRequest struct {
	ThreadID   string `json:"thread_id"`
	StepNumber int    `json:"step_number"`
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req retryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ThreadID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("thread_id is required"))
		return
	}
	g, err := s.cfg.Engine.Retry(r.Context(), workflow.RetryRequest{
		ThreadID:   req.ThreadID,
		StepNumber: req.StepNumber,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(g))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	threadID := strings.TrimPrefix(r.URL.Path, "/chat/history/")
	threadID = strings.Trim(threadID, "/")
	if threadID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("thread_id is required"))
		return
	}
	g, err := s.cfg.Engine.GetState(r.Context(), threadID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	checkpointID, parentCheckpointID, err := s.cfg.Engine.CheckpointInfo(r.Context(), threadID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":                 g.Plan,
		"messages":             g.Messages,
		"current_step_index":   g.CurrentStepIndex,
		"loaded_integrations":  g.LoadedIntegrations,
		"checkpoint_id":        checkpointID,
		"parent_checkpoint_id": parentCheckpointID,
	})
}

// handleIntegrations lists the workflow-bound integration catalog alongside
// the broader connector catalog the rest of the codebase tracks, so a client
// can tell what it's authorized to trigger from what merely exists.
func (s *Server) handleIntegrations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"workflow_integrations": integrations.AllConfigs(),
		"connector_catalog":     integrations.List(),
	})
}

func stateResponse(g *workflow.GraphState) map[string]any {
	return map[string]any{
		"thread_id":   g.ThreadID,
		"plan":        g.Plan,
		"is_complete": g.IsComplete,
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case workflow.IsNotFound(err):
		writeError(w, http.StatusNotFound, err)
	case workflow.IsStateMismatch(err):
		writeError(w, http.StatusConflict, err)
	case workflow.IsInput(err):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, map[string]any{"error": msg})
}
