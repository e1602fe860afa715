package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/norrin/workflow-engine/types"
	"github.com/norrin/workflow-engine/workflow"
)

const (
	defaultMaxOutputTokens = 2048
	defaultMaxToolRounds   = 10
	defaultMaxCorrections  = 2
)

const plannerSystemPrompt = `You are the planning stage of a workflow executor. Break the user's
request into an ordered list of concrete steps. Mark a step as requiring human approval when it
creates, sends, updates, deletes, or publishes something external; do not require approval for
steps that only search, read, list, or analyze. Respond with JSON matching the given schema only.`

const executorSystemPrompt = `You are the execution stage of a workflow executor, running one step of
an already-approved plan. Use the tools available to you to complete the step, then summarize what
you did and why. Keep tool use focused on this step; do not attempt future steps.`

// Gateway is the concrete workflow.Gateway backed by an llm.Provider. It owns
// the planner and executor prompts, JSON-schema-constrained plan generation,
// and the bounded tool-calling loop a step execution runs through.
type Gateway struct {
	provider        Provider
	model           string
	maxOutputTokens int
	maxToolRounds   int
	maxCorrections  int
}

// GatewayOption configures a Gateway at construction time.
type GatewayOption func(*Gateway)

func WithModel(model string) GatewayOption {
	return func(g *Gateway) { g.model = model }
}

func WithMaxOutputTokens(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.maxOutputTokens = n
		}
	}
}

func WithMaxToolRounds(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.maxToolRounds = n
		}
	}
}

// NewGateway builds a Gateway over provider.
func NewGateway(provider Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider:        provider,
		maxOutputTokens: defaultMaxOutputTokens,
		maxToolRounds:   defaultMaxToolRounds,
		maxCorrections:  defaultMaxCorrections,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Plan(ctx context.Context, req workflow.PlanRequest) (*workflow.Plan, error) {
	return g.planOnce(ctx, req, nil)
}

func (g *Gateway) PlanStream(ctx context.Context, req workflow.PlanRequest, onToken workflow.TokenFunc) (*workflow.Plan, error) {
	return g.planOnce(ctx, req, onToken)
}

func (g *Gateway) planOnce(ctx context.Context, req workflow.PlanRequest, onToken workflow.TokenFunc) (*workflow.Plan, error) {
	schema, err := PlanJSONSchema()
	if err != nil {
		return nil, fmt.Errorf("plan schema: %w", err)
	}

	messages := toProviderMessages(req.History)
	userContent := req.Request
	if req.ContextSummary != "" {
		userContent = "Earlier context: " + req.ContextSummary + "\n\nRequest: " + req.Request
	}
	messages = append(messages, types.Message{Role: types.RoleUser, Content: userContent})

	var lastErr error
	for attempt := 0; attempt <= g.maxCorrections; attempt++ {
		callMessages := messages
		if lastErr != nil {
			callMessages = append(append([]types.Message{}, messages...), types.Message{
				Role:    types.RoleUser,
				Content: "Your previous response did not match the required schema: " + lastErr.Error() + ". Respond again with corrected JSON only.",
			})
		}

		resp, err := g.provider.Generate(ctx, types.Request{
			Model:           g.model,
			SystemPrompt:    plannerSystemPrompt,
			Messages:        callMessages,
			MaxOutputTokens: g.maxOutputTokens,
			ResponseSchema:  schema,
		})
		if err != nil {
			return nil, err
		}

		content := resp.Message.Content
		if onToken != nil {
			onToken(content)
		}

		if err := validatePlan(schema, []byte(content)); err != nil {
			lastErr = err
			continue
		}

		var plan workflow.Plan
		if err := json.Unmarshal([]byte(content), &plan); err != nil {
			lastErr = fmt.Errorf("decode plan: %w", err)
			continue
		}
		if plan.OriginalRequest == "" {
			plan.OriginalRequest = req.Request
		}
		return &plan, nil
	}
	return nil, fmt.Errorf("planner did not produce a schema-valid plan after %d attempts: %w", g.maxCorrections+1, lastErr)
}

func (g *Gateway) ExecuteStep(ctx context.Context, req workflow.StepRequest) (workflow.StepResult, error) {
	return g.executeStep(ctx, req, nil)
}

func (g *Gateway) ExecuteStepStream(ctx context.Context, req workflow.StepRequest, onToken workflow.TokenFunc) (workflow.StepResult, error) {
	return g.executeStep(ctx, req, onToken)
}

func (g *Gateway) executeStep(ctx context.Context, req workflow.StepRequest, onToken workflow.TokenFunc) (workflow.StepResult, error) {
	toolByName := make(map[string]workflow.ToolHandle, len(req.AvailableTools))
	defs := make([]types.ToolDefinition, 0, len(req.AvailableTools))
	for _, t := range req.AvailableTools {
		toolByName[t.Name()] = t
		defs = append(defs, types.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			JSONSchema:  t.Schema(),
		})
	}

	var userContent strings.Builder
	fmt.Fprintf(&userContent, "Step %d of %d: %s", req.Step.StepNumber, req.TotalSteps, req.Step.Description)
	if req.PreviousResults != "" {
		userContent.WriteString("\n\nResults so far:\n")
		userContent.WriteString(req.PreviousResults)
	}
	if req.ApprovedContent != nil {
		raw, _ := json.Marshal(req.ApprovedContent)
		userContent.WriteString("\n\nThe approver edited this step's content; use it as-is:\n")
		userContent.Write(raw)
	}

	messages := []types.Message{{Role: types.RoleUser, Content: userContent.String()}}

	var toolsUsed []string
	var searchResults []workflow.SearchResultItem
	var finalText string

	for round := 0; round < g.maxToolRounds; round++ {
		resp, err := g.provider.Generate(ctx, types.Request{
			Model:           g.model,
			SystemPrompt:    executorSystemPrompt,
			Messages:        messages,
			Tools:           defs,
			MaxOutputTokens: g.maxOutputTokens,
		})
		if err != nil {
			return workflow.StepResult{}, err
		}

		if resp.Message.Content != "" && onToken != nil {
			onToken(resp.Message.Content)
		}

		if len(resp.Message.ToolCalls) == 0 {
			finalText = resp.Message.Content
			break
		}

		messages = append(messages, resp.Message)
		calls := resp.Message.ToolCalls
		for _, call := range calls {
			if _, ok := toolByName[call.Name]; !ok {
				return workflow.StepResult{}, &workflow.UnboundToolError{ToolName: call.Name}
			}
		}

		toolMsgs, usedNames, results, err := g.dispatchToolCalls(ctx, toolByName, calls)
		if err != nil {
			return workflow.StepResult{}, err
		}
		messages = append(messages, toolMsgs...)
		toolsUsed = append(toolsUsed, usedNames...)
		searchResults = append(searchResults, results...)
	}

	return workflow.StepResult{
		ResultText:    finalText,
		Rationale:     "",
		ToolsUsed:     dedupeStrings(toolsUsed),
		SearchResults: searchResults,
	}, nil
}

// dispatchToolCalls runs every tool call from one round concurrently,
// mirroring the executor's own parallel-tool-calls option but grouped with
// errgroup so a cancelled context stops outstanding calls together. Each
// call's error is captured as tool-message content, not surfaced through the
// group, since one failed tool call must not abort its siblings.
func (g *Gateway) dispatchToolCalls(
	ctx context.Context,
	toolByName map[string]workflow.ToolHandle,
	calls []types.ToolCall,
) ([]types.Message, []string, []workflow.SearchResultItem, error) {
	msgs := make([]types.Message, len(calls))
	used := make([]string, len(calls))
	resultsPerCall := make([][]workflow.SearchResultItem, len(calls))

	group, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		group.Go(func() error {
			tool := toolByName[call.Name]
			result, err := tool.Execute(gctx, call.Arguments)
			used[i] = call.Name

			var content string
			if err != nil {
				content = fmt.Sprintf("error: %v", err)
			} else {
				raw, merr := json.Marshal(result)
				if merr != nil {
					content = fmt.Sprintf("%v", result)
				} else {
					content = string(raw)
				}
				if call.Name == "web_search" {
					resultsPerCall[i] = extractSearchResults(raw)
				}
			}
			msgs[i] = types.Message{
				Role:       types.RoleTool,
				Name:       call.Name,
				ToolCallID: call.ID,
				Content:    content,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, nil, err
	}

	var searchResults []workflow.SearchResultItem
	for _, rs := range resultsPerCall {
		searchResults = append(searchResults, rs...)
	}
	return msgs, used, searchResults, nil
}

func toProviderMessages(msgs []workflow.Message) []types.Message {
	out := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		role := types.RoleUser
		switch m.Role {
		case "assistant":
			role = types.RoleAssistant
		case "tool":
			role = types.RoleTool
		}
		out = append(out, types.Message{Role: role, Content: m.Content, Name: m.ToolName})
	}
	return out
}

// extractSearchResults parses a Tavily-shaped web_search tool response into
// the structured search result items the UI renders alongside a step.
func extractSearchResults(raw []byte) []workflow.SearchResultItem {
	var payload struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	out := make([]workflow.SearchResultItem, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, workflow.SearchResultItem{Title: r.Title, URL: r.URL})
	}
	return out
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
