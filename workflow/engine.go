package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/norrin/workflow-engine/observe"
	"github.com/norrin/workflow-engine/state"
)

// RetryPolicy holds attempt and backoff settings for failed steps. NewEngine
// installs defaultRetryPolicy and WithRetryPolicy replaces it, but no engine
// code path reads it: a failed step is marked failed and runs again only
// through Retry/RetryStream.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseBackoff: 200 * time.Millisecond, MaxBackoff: 2 * time.Second}
}

// Frame is one progress notification the engine hands to a streaming caller.
// The httpapi layer encodes it as a spec-compliant SSE `data: <json>\n\n`
// frame; Type travels inside the JSON body rather than an `event:` line.
type Frame struct {
	Type string         `json:"type"`
	Data map[string]any `json:"-"`
}

// MarshalFrame flattens Frame into the single JSON object the wire protocol
// expects: {"type": ..., <Data fields>...}.
func (f Frame) MarshalFrame() map[string]any {
	out := make(map[string]any, len(f.Data)+1)
	for k, v := range f.Data {
		out[k] = v
	}
	out["type"] = f.Type
	return out
}

// FrameFunc receives progress frames during a streaming call. A nil FrameFunc
// is valid and simply discards frames (used by the non-streaming methods).
type FrameFunc func(Frame)

func (f FrameFunc) emit(frame Frame) {
	if f == nil {
		return
	}
	f(frame)
}

// Engine runs the planner -> router -> executor -> synthesizer workflow. It
// is the single tagged state machine the package exposes; there is no
// general-purpose cyclic graph here, on purpose.
type Engine struct {
	gateway  Gateway
	registry ToolRegistry
	cp       *checkpointer
	observer observe.Sink
	hook     MetadataHook
	retry    RetryPolicy
	toolsets *toolsetCache
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

func WithObserver(sink observe.Sink) EngineOption {
	return func(e *Engine) { e.observer = sink }
}

func WithMetadataHook(hook MetadataHook) EngineOption {
	return func(e *Engine) { e.hook = hook }
}

func WithRetryPolicy(policy RetryPolicy) EngineOption {
	return func(e *Engine) { e.retry = policy }
}

// NewEngine builds an Engine backed by the given Gateway (LLM planning and
// step execution), ToolRegistry (credential-scoped tool sets) and a
// state.Store-backed checkpoint log.
func NewEngine(gateway Gateway, registry ToolRegistry, store state.Store, opts ...EngineOption) (*Engine, error) {
	if gateway == nil {
		return nil, fmt.Errorf("workflow: gateway is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("workflow: tool registry is required")
	}
	if store == nil {
		return nil, fmt.Errorf("workflow: state store is required")
	}
	e := &Engine{
		gateway:  gateway,
		registry: registry,
		cp:       newCheckpointer(store),
		observer: observe.NoopSink{},
		hook:     noopMetadataHook{},
		retry:    defaultRetryPolicy(),
		toolsets: newToolsetCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// StartRequest is the input to a brand-new or continuing chat turn.
type StartRequest struct {
	ThreadID    string
	Request     string
	Credentials map[string]string
}

// Start runs a request to completion or to its first interrupt, discarding
// progress frames.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*GraphState, error) {
	return e.StartStream(ctx, req, nil)
}

// StartStream is Start with progress frames delivered to onFrame as they occur.
func (e *Engine) StartStream(ctx context.Context, req StartRequest, onFrame FrameFunc) (*GraphState, error) {
	if req.ThreadID == "" {
		return nil, newErr(KindInput, "start", fmt.Errorf("thread_id is required"))
	}
	if req.Request == "" {
		return nil, newErr(KindInput, "start", fmt.Errorf("request is required"))
	}
	unlock := e.cp.lockThread(req.ThreadID)
	defer unlock()

	if err := e.cp.ensureRun(ctx, req.ThreadID, req.Request); err != nil {
		return nil, err
	}

	toolset, err := e.toolsets.build(ctx, e.registry, req.Credentials)
	if err != nil {
		return nil, newErr(KindExecution, "start", err)
	}

	g := newGraphState(req.ThreadID)
	g.Messages = append(g.Messages, Message{Role: "user", Content: req.Request})

	run := &runner{Engine: e, toolset: toolset, onFrame: onFrame, seq: 1}
	if err := run.smartRouter(ctx, g, req.Request); err != nil {
		return nil, err
	}
	if err := run.plan(ctx, g, req.Request); err != nil {
		return nil, err
	}
	return run.driveToInterruptOrDone(ctx, g)
}

// ResumeRequest carries a human approval decision back into a paused thread.
type ResumeRequest struct {
	ThreadID    string
	Decision    ApprovalDecision
	Credentials map[string]string
}

// Resume applies a pending approval decision and continues execution.
func (e *Engine) Resume(ctx context.Context, req ResumeRequest) (*GraphState, error) {
	return e.ResumeStream(ctx, req, nil)
}

func (e *Engine) ResumeStream(ctx context.Context, req ResumeRequest, onFrame FrameFunc) (*GraphState, error) {
	if req.ThreadID == "" {
		return nil, newErr(KindInput, "resume", fmt.Errorf("thread_id is required"))
	}
	unlock := e.cp.lockThread(req.ThreadID)
	defer unlock()

	g, _, seq, err := e.cp.load(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}

	if !g.AwaitingApproval {
		if g.LastResume != nil && g.LastResume.Action == req.Decision.Action {
			return &g, nil
		}
		return nil, ErrNotAwaitingApproval
	}

	step := g.currentStep()
	if step == nil {
		return nil, newErr(KindStateMismatch, "resume", fmt.Errorf("no current step to resume"))
	}

	switch req.Decision.Action {
	case "approve":
		// fall through to execution with the step unchanged
	case "edit":
		step.Preview = req.Decision.Content
	case "skip":
		step.Status = StepSkipped
		step.Result = "skipped by approver"
	default:
		return nil, newErr(KindInput, "resume", fmt.Errorf("unknown resume action %q", req.Decision.Action))
	}

	g.AwaitingApproval = false
	g.ApprovalStepInfo = nil
	g.LastResume = &ResumeRecord{StepNumber: step.StepNumber, Action: req.Decision.Action}

	toolset, err := e.toolsets.build(ctx, e.registry, req.Credentials)
	if err != nil {
		return nil, newErr(KindExecution, "resume", err)
	}
	run := &runner{Engine: e, toolset: toolset, onFrame: onFrame, seq: seq + 1}

	if req.Decision.Action == "skip" {
		run.advanceStep(&g)
	} else {
		approved := req.Decision.Action == "edit"
		if err := run.executeCurrentStep(ctx, &g, approved); err != nil {
			return nil, err
		}
	}
	return run.driveToInterruptOrDone(ctx, &g)
}

// RetryRequest re-runs a previously failed step.
type RetryRequest struct {
	ThreadID    string
	StepNumber  int
	Credentials map[string]string
}

func (e *Engine) Retry(ctx context.Context, req RetryRequest) (*GraphState, error) {
	return e.RetryStream(ctx, req, nil)
}

func (e *Engine) RetryStream(ctx context.Context, req RetryRequest, onFrame FrameFunc) (*GraphState, error) {
	if req.ThreadID == "" {
		return nil, newErr(KindInput, "retry", fmt.Errorf("thread_id is required"))
	}
	unlock := e.cp.lockThread(req.ThreadID)
	defer unlock()

	g, _, seq, err := e.cp.load(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}
	if g.Plan == nil {
		return nil, ErrStepNotFound
	}
	idx := -1
	for i := range g.Plan.Steps {
		if g.Plan.Steps[i].StepNumber == req.StepNumber {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrStepNotFound
	}
	if g.Plan.Steps[idx].Status != StepFailed {
		return nil, ErrStepHasNoError
	}

	g.Plan.Steps[idx].Status = StepPending
	g.Plan.Steps[idx].Error = ""
	g.CurrentStepIndex = idx
	g.AwaitingApproval = false
	g.ApprovalStepInfo = nil
	g.LastError = ""

	toolset, err := e.toolsets.build(ctx, e.registry, req.Credentials)
	if err != nil {
		return nil, newErr(KindExecution, "retry", err)
	}
	run := &runner{Engine: e, toolset: toolset, onFrame: onFrame, seq: seq + 1}
	if err := run.executeCurrentStep(ctx, &g, false); err != nil {
		return nil, err
	}
	return run.driveToInterruptOrDone(ctx, &g)
}

// GetState returns the latest persisted state for a thread.
func (e *Engine) GetState(ctx context.Context, threadID string) (*GraphState, error) {
	g, _, _, err := e.cp.load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CheckpointInfo returns the latest checkpoint's id and its parent's, derived
// from the checkpoint sequence rather than stored as a separate column.
func (e *Engine) CheckpointInfo(ctx context.Context, threadID string) (id, parentID string, err error) {
	_, _, seq, err := e.cp.load(ctx, threadID)
	if err != nil {
		return "", "", err
	}
	return checkpointID(seq), parentCheckpointID(seq), nil
}
