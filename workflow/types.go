package workflow

import "time"

// StepStatus is the lifecycle state of a single plan step.
type StepStatus string

const (
	StepPending          StepStatus = "pending"
	StepInProgress       StepStatus = "in_progress"
	StepAwaitingApproval StepStatus = "awaiting_approval"
	StepCompleted        StepStatus = "completed"
	StepFailed           StepStatus = "failed"
	StepSkipped          StepStatus = "skipped"
)

// ApprovalClass is the policy tier a tool carries. Mandatory tools force
// their step into StepAwaitingApproval regardless of what the planner asked for.
type ApprovalClass string

const (
	ApprovalSilent    ApprovalClass = "silent"
	ApprovalAdvisory  ApprovalClass = "advisory"
	ApprovalMandatory ApprovalClass = "mandatory"
)

// SearchResultItem is a structured tool output shape shared by search-style steps.
type SearchResultItem struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Domain string `json:"domain,omitempty"`
	Favicon string `json:"favicon,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Step is one unit of work in a Plan.
type Step struct {
	StepNumber          int            `json:"step_number"`
	Description         string         `json:"description"`
	ToolHints            []string       `json:"tool_hints,omitempty"`
	RequiresApproval     bool           `json:"requires_human_approval"`
	ApprovalReason       string         `json:"approval_reason,omitempty"`
	Status               StepStatus     `json:"status"`
	Result               string         `json:"result,omitempty"`
	Error                string         `json:"error,omitempty"`
	Rationale            string         `json:"rationale,omitempty"`
	Preview              map[string]any `json:"preview,omitempty"`
	ToolsUsed            []string       `json:"tools_used,omitempty"`
	SearchResults        []SearchResultItem `json:"search_results,omitempty"`
	ThinkingDurationMs   int64          `json:"thinking_duration_ms,omitempty"`
}

// Plan is the planner's output: the ordered step list for one top-level request.
type Plan struct {
	OriginalRequest string `json:"original_request"`
	Thinking        string `json:"thinking,omitempty"`
	Steps           []Step `json:"steps"`
	IsComplete      bool   `json:"is_complete"`
	FinalSummary    string `json:"final_summary,omitempty"`
}

// Message is one entry in a thread's append-only message sequence.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	ToolName  string    `json:"tool_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ApprovalStepInfo is the interrupt payload shown to an approver while a step
// is awaiting_approval. It is persisted as part of GraphState, never held
// as an in-memory continuation.
type ApprovalStepInfo struct {
	StepNumber  int      `json:"step_number"`
	Description string   `json:"description"`
	Reason      string   `json:"reason"`
	Preview     map[string]any `json:"preview,omitempty"`
	Actions     []string `json:"actions"`
}

// ResumeRecord remembers the most recently applied resume decision for a
// thread so an exact-repeat /chat/resume call can be deduped instead of
// rejected as a state mismatch.
type ResumeRecord struct {
	StepNumber int    `json:"step_number"`
	Action     string `json:"action"`
}

// GraphState is the single value persisted per checkpoint.
type GraphState struct {
	ThreadID           string             `json:"thread_id"`
	Messages           []Message          `json:"messages,omitempty"`
	Plan                *Plan             `json:"plan,omitempty"`
	CurrentStepIndex   int                `json:"current_step_index"`
	LoadedIntegrations []IntegrationInfo  `json:"loaded_integrations,omitempty"`
	BoundTools         []string           `json:"bound_tools,omitempty"`
	InitialIntegrations []string          `json:"initial_integrations,omitempty"`
	LastError          string             `json:"last_error,omitempty"`
	AwaitingApproval   bool               `json:"awaiting_approval"`
	ApprovalStepInfo   *ApprovalStepInfo  `json:"approval_step_info,omitempty"`
	LastResume         *ResumeRecord      `json:"last_resume,omitempty"`
	IsComplete         bool               `json:"is_complete"`
	metadataAnnounced  bool
}

// firstUserRequest returns the request that opened the thread, used as the
// source for the metadata hook's title.
func (g *GraphState) firstUserRequest() string {
	for _, m := range g.Messages {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}

// IntegrationInfo is the display-facing summary of one loaded integration,
// included in state snapshots so resumes can restore UI context.
type IntegrationInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ToolsCount  int    `json:"tools_count"`
	Icon        string `json:"icon"`
}

// ApprovalDecision is the caller-supplied resume payload.
type ApprovalDecision struct {
	Action  string         `json:"action"` // approve | edit | skip
	Content map[string]any `json:"content,omitempty"`
}

func (g *GraphState) currentStep() *Step {
	if g == nil || g.Plan == nil {
		return nil
	}
	if g.CurrentStepIndex < 0 || g.CurrentStepIndex >= len(g.Plan.Steps) {
		return nil
	}
	return &g.Plan.Steps[g.CurrentStepIndex]
}

func newGraphState(threadID string) *GraphState {
	return &GraphState{ThreadID: threadID, CurrentStepIndex: 0}
}
