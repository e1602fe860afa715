package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/norrin/workflow-engine/observe"
)

// runner carries the per-call state the five nodes share: the request-scoped
// toolset, the checkpoint sequence counter, and the progress-frame sink. It
// exists so Engine itself stays free of per-call mutable state.
type runner struct {
	*Engine
	toolset ToolSet
	onFrame FrameFunc
	seq     int
}

func (r *runner) emit(frame Frame) {
	r.onFrame.emit(frame)
}

func (r *runner) observe(ctx context.Context, name string, attrs map[string]any) {
	_ = r.observer.Emit(ctx, observe.Event{
		Kind:       observe.KindWorkflow,
		Status:     observe.StatusCompleted,
		Name:       name,
		Attributes: attrs,
	})
}

func (r *runner) checkpoint(ctx context.Context, g *GraphState, node nodeTag) error {
	if err := r.cp.save(ctx, *g, node, r.seq); err != nil {
		return err
	}
	r.seq++
	return nil
}

// progress emits the canonical state snapshot the client resyncs its local
// plan view from. It is sent after every node transition; on the first such
// frame for a brand-new thread it also fires the metadata hook.
func (r *runner) progress(ctx context.Context, g *GraphState) {
	planView := map[string]any{"steps": []Step{}, "is_complete": false}
	if g.Plan != nil {
		planView = map[string]any{
			"thinking":    g.Plan.Thinking,
			"steps":       g.Plan.Steps,
			"is_complete": g.Plan.IsComplete,
		}
	}
	r.emit(Frame{Type: "progress", Data: map[string]any{
		"thread_id":    g.ThreadID,
		"current_step": g.CurrentStepIndex,
		"plan":         planView,
	}})

	if !g.metadataAnnounced {
		g.metadataAnnounced = true
		title := truncate(g.firstUserRequest(), 100)
		if err := r.hook.EnsureThreadMetadata(ctx, g.ThreadID, title); err != nil {
			r.observe(ctx, "metadata_hook_failed", map[string]any{"thread_id": g.ThreadID, "error": err.Error()})
		}
	}
}

// smartRouter classifies the request into a narrow integration set and binds
// only those tools, grounded in the pattern-then-heuristic classification a
// non-LLM router performs before the planner ever runs. It runs exactly once
// per fresh request and is skipped on resume/retry.
func (r *runner) smartRouter(ctx context.Context, g *GraphState, request string) error {
	integrationIDs := r.toolset.Classify(request)
	tools := r.toolset.GetToolset(integrationIDs)

	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name())
	}
	snapshot := r.toolset.Snapshot()

	g.LoadedIntegrations = snapshot
	g.BoundTools = names
	g.InitialIntegrations = integrationIDs

	r.observe(ctx, "smart_router", map[string]any{"integrations": integrationIDs, "tool_count": len(names)})
	if err := r.checkpoint(ctx, g, nodeSmartRouter); err != nil {
		return err
	}
	r.emit(Frame{Type: "integrations_ready", Data: map[string]any{
		"integrations":     snapshot,
		"total_tool_count": len(names),
	}})
	return nil
}

// plan asks the gateway for the ordered step list, applying mandatory
// approval classification from the bound toolset on top of whatever the
// planner itself suggested.
func (r *runner) plan(ctx context.Context, g *GraphState, request string) error {
	r.emit(Frame{Type: "thinking", Data: map[string]any{"phase": "planning"}})

	plan, err := r.gateway.PlanStream(ctx, PlanRequest{
		Request:        request,
		History:        g.Messages,
		AvailableTools: r.toolset.ToolsFor(g.BoundTools),
	}, func(tok string) {
		r.emit(Frame{Type: "token", Data: map[string]any{"phase": "planning", "content": tok}})
	})
	if err != nil {
		g.LastError = err.Error()
		_ = r.checkpoint(ctx, g, nodePlanner)
		return newErr(KindPlanner, "plan", err)
	}

	for i := range plan.Steps {
		step := &plan.Steps[i]
		step.Status = StepPending
		if cls := r.stepApprovalClass(step); cls == ApprovalMandatory {
			step.RequiresApproval = true
			if step.ApprovalReason == "" {
				step.ApprovalReason = "one or more tools for this step require mandatory approval"
			}
		}
	}

	g.Plan = plan
	g.CurrentStepIndex = 0
	r.observe(ctx, "planner", map[string]any{"step_count": len(plan.Steps)})
	if err := r.checkpoint(ctx, g, nodePlanner); err != nil {
		return err
	}
	r.progress(ctx, g)
	return nil
}

// stepApprovalClass is the most restrictive ApprovalClass among the tools a
// step's hints resolve to; an unresolved hint is silent (no tool, no risk).
func (r *runner) stepApprovalClass(step *Step) ApprovalClass {
	best := ApprovalSilent
	for _, t := range r.toolset.ToolsFor(step.ToolHints) {
		switch t.Approval() {
		case ApprovalMandatory:
			return ApprovalMandatory
		case ApprovalAdvisory:
			best = ApprovalAdvisory
		}
	}
	return best
}

// driveToInterruptOrDone loops step-router -> executor until the plan is
// exhausted, a mandatory approval pauses it, or an unrecoverable error stops
// it. It is the step-router node generalized into a loop rather than a
// recursive graph edge, since the step sequence here is always linear.
func (r *runner) driveToInterruptOrDone(ctx context.Context, g *GraphState) (*GraphState, error) {
	for {
		step := g.currentStep()
		if step == nil {
			return r.synthesize(ctx, g)
		}
		if step.Status == StepCompleted || step.Status == StepSkipped {
			r.advanceStep(g)
			continue
		}
		if step.RequiresApproval && step.Status != StepAwaitingApproval {
			g.AwaitingApproval = true
			g.ApprovalStepInfo = &ApprovalStepInfo{
				StepNumber:  step.StepNumber,
				Description: step.Description,
				Reason:      step.ApprovalReason,
				Preview:     step.Preview,
				Actions:     []string{"approve", "edit", "skip"},
			}
			step.Status = StepAwaitingApproval
			if err := r.checkpoint(ctx, g, nodeInterrupted); err != nil {
				return nil, err
			}
			r.progress(ctx, g)
			r.emit(Frame{Type: "approval_required", Data: map[string]any{
				"thread_id":   g.ThreadID,
				"step_number": step.StepNumber,
				"interrupt": map[string]any{
					"description": step.Description,
					"reason":      step.ApprovalReason,
					"preview":     step.Preview,
					"actions":     []string{"approve", "edit", "skip"},
				},
			}})
			r.emit(Frame{Type: "done", Data: map[string]any{"awaiting_approval": true}})
			return g, nil
		}
		if err := r.executeCurrentStep(ctx, g, false); err != nil {
			return nil, err
		}
		if g.AwaitingApproval {
			return g, nil
		}
	}
}

func (r *runner) advanceStep(g *GraphState) {
	g.CurrentStepIndex++
}

// executeCurrentStep runs the executor node for g's current step. approved
// marks a step whose content was edited by the approver, surfaced to the
// gateway as ApprovedContent so it executes the reviewed version, not a
// freshly-regenerated one.
func (r *runner) executeCurrentStep(ctx context.Context, g *GraphState, approved bool) error {
	step := g.currentStep()
	if step == nil {
		return nil
	}
	step.Status = StepInProgress
	started := time.Now()
	r.progress(ctx, g)

	var approvedContent map[string]any
	if approved {
		approvedContent = step.Preview
	}

	available := r.toolset.ToolsFor(step.ToolHints)
	req := StepRequest{
		Step:            *step,
		TotalSteps:      len(g.Plan.Steps),
		PreviousResults: r.previousResultsSummary(g),
		AvailableTools:  available,
		ApprovedContent: approvedContent,
	}

	result, err := r.gateway.ExecuteStepStream(ctx, req, func(tok string) {
		r.emit(Frame{Type: "step_thinking", Data: map[string]any{"step_number": step.StepNumber, "content": tok}})
	})
	if err != nil {
		if toolName, ok := AsUnboundTool(err); ok {
			if reloaded := r.loadMissingIntegration(ctx, g, toolName); reloaded {
				req.AvailableTools = r.toolset.ToolsFor(step.ToolHints)
				result, err = r.gateway.ExecuteStepStream(ctx, req, func(tok string) {
					r.emit(Frame{Type: "step_thinking", Data: map[string]any{"step_number": step.StepNumber, "content": tok}})
				})
			}
		}
	}
	if err != nil {
		step.Status = StepFailed
		step.Error = err.Error()
		g.LastError = err.Error()
		_ = r.checkpoint(ctx, g, nodeExecutor)
		r.emit(Frame{Type: "error", Data: map[string]any{"step_number": step.StepNumber, "error": err.Error()}})
		return newErr(KindExecution, "execute_step", err)
	}

	step.Status = StepCompleted
	step.Result = truncate(result.ResultText, 4000)
	step.Rationale = result.Rationale
	step.ToolsUsed = result.ToolsUsed
	step.SearchResults = result.SearchResults
	step.ThinkingDurationMs = time.Since(started).Milliseconds()

	g.Messages = append(g.Messages, Message{Role: "assistant", Content: step.Result, CreatedAt: time.Now().UTC()})
	r.observe(ctx, "executor", map[string]any{"step_number": step.StepNumber, "tools_used": step.ToolsUsed})

	if err := r.checkpoint(ctx, g, nodeExecutor); err != nil {
		return err
	}
	r.advanceStep(g)
	r.progress(ctx, g)
	return nil
}

// loadMissingIntegration resolves toolName to its owning integration and
// binds it into g, mirroring the one-shot incremental-load-then-retry the
// executor performs when the planner names a tool outside the smart
// router's initial guess.
func (r *runner) loadMissingIntegration(ctx context.Context, g *GraphState, toolName string) bool {
	integrationID, ok := r.toolset.IntegrationForTool(toolName)
	if !ok {
		return false
	}
	for _, id := range g.BoundTools {
		if id == integrationID {
			return false
		}
	}
	tools := r.toolset.LoadIntegration(integrationID)
	if len(tools) == 0 {
		return false
	}
	for _, t := range tools {
		g.BoundTools = append(g.BoundTools, t.Name())
	}
	g.LoadedIntegrations = r.toolset.Snapshot()
	r.emit(Frame{Type: "integration_added_incrementally", Data: map[string]any{
		"integration": integrationID,
		"tool":        toolName,
	}})
	return true
}

func (r *runner) previousResultsSummary(g *GraphState) string {
	if g.Plan == nil {
		return ""
	}
	var b strings.Builder
	for i := range g.Plan.Steps {
		s := &g.Plan.Steps[i]
		if s.Status != StepCompleted {
			continue
		}
		b.WriteString(s.Description)
		b.WriteString(": ")
		b.WriteString(s.Result)
		b.WriteString("\n")
	}
	return b.String()
}

// synthesize produces the final_summary once every step has resolved. It is
// a plain gateway call rather than a fresh plan/execute round trip.
func (r *runner) synthesize(ctx context.Context, g *GraphState) (*GraphState, error) {
	g.Plan.IsComplete = true
	if g.Plan.FinalSummary == "" {
		g.Plan.FinalSummary = r.previousResultsSummary(g)
	}
	g.IsComplete = true
	r.observe(ctx, "synthesizer", map[string]any{"final_summary_len": len(g.Plan.FinalSummary)})

	if err := r.checkpoint(ctx, g, nodeSynthesizer); err != nil {
		return nil, err
	}
	if err := r.cp.touchRun(ctx, *g, "completed"); err != nil {
		return nil, err
	}
	r.progress(ctx, g)
	r.emit(Frame{Type: "done", Data: map[string]any{"final_summary": g.Plan.FinalSummary}})
	return g, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
