package workflow

import (
	"context"
	"encoding/json"
)

// PlanRequest is the input to Gateway.Plan.
type PlanRequest struct {
	Request         string
	History         []Message
	ContextSummary  string // earlier-turns summary the gateway prepends when non-empty; the engine leaves it empty
	AvailableTools  []ToolHandle
}

// StepRequest is the input to Gateway.ExecuteStep.
type StepRequest struct {
	Step             Step
	TotalSteps       int
	PreviousResults  string
	AvailableTools   []ToolHandle
	ApprovedContent  map[string]any // set only when resuming an edited approval
}

// StepResult is the output of Gateway.ExecuteStep.
type StepResult struct {
	ResultText    string
	Rationale     string
	ToolsUsed     []string
	SearchResults []SearchResultItem
}

// TokenFunc receives streaming partial output; content is the incremental text.
type TokenFunc func(content string)

// Gateway encapsulates every LLM call the graph runtime makes. Implementations
// return plain errors (ExecuteStep may return *UnboundToolError); the engine
// wraps failures as KindPlanner / KindExecution errors.
type Gateway interface {
	Plan(ctx context.Context, req PlanRequest) (*Plan, error)
	PlanStream(ctx context.Context, req PlanRequest, onToken TokenFunc) (*Plan, error)
	ExecuteStep(ctx context.Context, req StepRequest) (StepResult, error)
	ExecuteStepStream(ctx context.Context, req StepRequest, onToken TokenFunc) (StepResult, error)
}

// ToolHandle is one callable, credential-bound tool exposed by a ToolSet.
type ToolHandle interface {
	Name() string
	Description() string
	Schema() map[string]any
	IntegrationID() string
	Approval() ApprovalClass
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

// ToolSet is the per-request view produced by a ToolRegistry: the tools the
// caller is authorized to use, classified by integration.
type ToolSet interface {
	// Snapshot lists loaded integrations for display/state purposes.
	Snapshot() []IntegrationInfo
	// Classify performs the pattern-based smart-router classification of a
	// request into a set of integration ids, without any LLM call.
	Classify(request string) []string
	// GetToolset returns the tools for the given integration ids, falling
	// back to every authorized tool if none of the ids match.
	GetToolset(integrationIDs []string) []ToolHandle
	// ToolsFor resolves a step's tool-id hints against the authorized set.
	ToolsFor(hints []string) []ToolHandle
	// IntegrationForTool is the reverse lookup used by incremental loading.
	IntegrationForTool(toolName string) (string, bool)
	// LoadIntegration pulls in a previously-unbound integration's tools.
	LoadIntegration(integrationID string) []ToolHandle
	// All returns every authorized tool across every integration.
	All() []ToolHandle
}

// ToolRegistry builds a request-scoped ToolSet from a caller's credential bag.
// The bag keys are integration-specific token names (gmail_token, notion_token, ...).
type ToolRegistry interface {
	Build(ctx context.Context, credentials map[string]string) (ToolSet, error)
}

// MetadataHook is the out-of-band conversation-metadata write the service
// performs on the first progress frame of a brand-new thread. It is a narrow
// interface so the core never depends on the conversation-metadata subsystem.
type MetadataHook interface {
	EnsureThreadMetadata(ctx context.Context, threadID, title string) error
}

type noopMetadataHook struct{}

func (noopMetadataHook) EnsureThreadMetadata(ctx context.Context, threadID, title string) error {
	return nil
}
