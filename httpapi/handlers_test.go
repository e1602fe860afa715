package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/norrin/workflow-engine/workflow"
)

func TestHandleIntegrationsListsBothCatalogs(t *testing.T) {
	s := &Server{mux: http.NewServeMux()}
	s.mux.HandleFunc("/integrations", s.handleIntegrations)

	req := httptest.NewRequest(http.MethodGet, "/integrations", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := body["workflow_integrations"]; !ok {
		t.Fatal("expected workflow_integrations field")
	}
	if _, ok := body["connector_catalog"]; !ok {
		t.Fatal("expected connector_catalog field")
	}
}

func TestHandleIntegrationsRejectsNonGet(t *testing.T) {
	s := &Server{mux: http.NewServeMux()}
	s.mux.HandleFunc("/integrations", s.handleIntegrations)

	req := httptest.NewRequest(http.MethodPost, "/integrations", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestWriteEngineErrorMapsKindsToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"state mismatch", workflow.ErrNotAwaitingApproval, http.StatusConflict},
		{"input", workflow.ErrStepNotFound, http.StatusBadRequest},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeEngineError(rec, c.err)
		if rec.Code != c.want {
			t.Errorf("%s: status = %d, want %d", c.name, rec.Code, c.want)
		}
	}
}

func TestCredentialsFromBodyOnlyLiftsKnownFields(t *testing.T) {
	raw := map[string]any{
		"gmail_token": "g",
		"unexpected":  "x",
		"slack_token": 42, // wrong type, should be ignored
	}
	creds := credentialsFromBody(raw)
	if creds["gmail_token"] != "g" {
		t.Fatalf("expected gmail_token to be lifted, got %#v", creds)
	}
	if _, present := creds["unexpected"]; present {
		t.Fatal("unexpected field should not be lifted into credentials")
	}
	if _, present := creds["slack_token"]; present {
		t.Fatal("non-string slack_token should not be lifted into credentials")
	}
}
