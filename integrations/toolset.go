package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/norrin/workflow-engine/tools"
	"github.com/norrin/workflow-engine/workflow"
)

// handle adapts a tools.Tool into workflow.ToolHandle, injecting whatever
// credential the owning integration needs into the call arguments so the
// planner/executor never has to know token field names.
type handle struct {
	tool          tools.Tool
	integrationID string
	credentialKey string
	credentials   map[string]string
}

func (h *handle) Name() string                    { return h.tool.Definition().Name }
func (h *handle) Description() string             { return h.tool.Definition().Description }
func (h *handle) Schema() map[string]any           { return h.tool.Definition().JSONSchema }
func (h *handle) IntegrationID() string            { return h.integrationID }
func (h *handle) Approval() workflow.ApprovalClass { return ApprovalClassFor(h.Name()) }

func (h *handle) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	if h.credentialKey == "" {
		return h.tool.Execute(ctx, args)
	}
	token := h.credentials[h.credentialKey]
	if token == "" {
		return h.tool.Execute(ctx, args)
	}
	merged := map[string]any{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &merged); err != nil {
			return nil, fmt.Errorf("decode tool args: %w", err)
		}
	}
	if _, present := merged["access_token"]; !present {
		merged["access_token"] = token
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode tool args: %w", err)
	}
	return h.tool.Execute(ctx, raw)
}

// registryToolSet is the request-scoped view produced by Registry.Build. It
// knows, per integration, whether the caller's credentials actually unlock
// it, and builds every tool handle up front when the set is created.
type registryToolSet struct {
	credentials map[string]string

	mu       sync.Mutex
	handles  map[string]*handle           // toolName -> handle
	byIntg   map[string][]string          // integrationID -> toolNames
	bound    map[string]bool              // integrationID -> currently loaded
}

// resolveFallbackSecret resolves a secret ref such as "env:NAME" via
// ResolveSecret, returning ok=false for an empty ref or an unresolvable one.
func resolveFallbackSecret(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	token, err := ResolveSecret(ref)
	if err != nil {
		return "", false
	}
	return token, true
}

// mergeCredential copies base with key added, leaving the caller's own bag
// untouched so a fallback for one integration never leaks into another's view.
func mergeCredential(base map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out[key] = value
	return out
}

func newRegistryToolSet(credentials map[string]string) *registryToolSet {
	ts := &registryToolSet{
		credentials: credentials,
		handles:     map[string]*handle{},
		byIntg:      map[string][]string{},
		bound:       map[string]bool{},
	}
	for _, cfg := range AllConfigs() {
		intgCredentials := credentials
		if cfg.RequiresAuth && credentials[cfg.CredentialKey] == "" {
			token, ok := resolveFallbackSecret(cfg.SecretRef)
			if !ok {
				continue // caller never supplied the token and no server-side fallback resolved
			}
			intgCredentials = mergeCredential(credentials, cfg.CredentialKey, token)
		}
		var names []string
		for _, toolName := range cfg.ToolNames {
			t, err := tools.BuildSelection([]string{toolName})
			if err != nil || len(t) == 0 {
				continue
			}
			ts.handles[toolName] = &handle{
				tool:          t[0],
				integrationID: cfg.Name,
				credentialKey: cfg.CredentialKey,
				credentials:   intgCredentials,
			}
			names = append(names, toolName)
		}
		ts.byIntg[cfg.Name] = names
	}
	return ts
}

func (ts *registryToolSet) Snapshot() []workflow.IntegrationInfo {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([]workflow.IntegrationInfo, 0, len(ts.bound))
	ids := make([]string, 0, len(ts.bound))
	for id, on := range ts.bound {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		cfg, ok := ConfigFor(id)
		if !ok {
			continue
		}
		out = append(out, workflow.IntegrationInfo{
			Name:        cfg.Name,
			DisplayName: cfg.DisplayName,
			ToolsCount:  len(ts.byIntg[id]),
			Icon:        cfg.Icon,
		})
	}
	return out
}

func (ts *registryToolSet) Classify(request string) []string {
	return Classify(request)
}

func (ts *registryToolSet) GetToolset(integrationIDs []string) []workflow.ToolHandle {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	var out []workflow.ToolHandle
	for _, id := range integrationIDs {
		names, ok := ts.byIntg[id]
		if !ok {
			continue
		}
		ts.bound[id] = true
		for _, n := range names {
			if h, ok := ts.handles[n]; ok {
				out = append(out, h)
			}
		}
	}
	if len(out) == 0 {
		// fall back to every authorized tool, matching the Python
		// registry's own get_toolset behavior when nothing classifies.
		return ts.allLocked()
	}
	return out
}

func (ts *registryToolSet) ToolsFor(hints []string) []workflow.ToolHandle {
	if len(hints) == 0 {
		return ts.All()
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	var out []workflow.ToolHandle
	for _, hint := range hints {
		if h, ok := ts.handles[hint]; ok {
			out = append(out, h)
			continue
		}
		if cfg, ok := ConfigFor(hint); ok {
			for _, n := range cfg.ToolNames {
				if h, ok := ts.handles[n]; ok {
					out = append(out, h)
				}
			}
		}
	}
	return out
}

func (ts *registryToolSet) IntegrationForTool(toolName string) (string, bool) {
	cfg, ok := ConfigForTool(toolName)
	if !ok {
		return "", false
	}
	return cfg.Name, true
}

func (ts *registryToolSet) LoadIntegration(integrationID string) []workflow.ToolHandle {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	names, ok := ts.byIntg[integrationID]
	if !ok {
		return nil
	}
	ts.bound[integrationID] = true
	out := make([]workflow.ToolHandle, 0, len(names))
	for _, n := range names {
		if h, ok := ts.handles[n]; ok {
			out = append(out, h)
		}
	}
	return out
}

func (ts *registryToolSet) All() []workflow.ToolHandle {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.allLocked()
}

func (ts *registryToolSet) allLocked() []workflow.ToolHandle {
	names := make([]string, 0, len(ts.handles))
	for n := range ts.handles {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]workflow.ToolHandle, 0, len(names))
	for _, n := range names {
		out = append(out, ts.handles[n])
	}
	return out
}

// Registry implements workflow.ToolRegistry over the builtin tools package,
// scoped per request by the credential bag the caller supplies.
type Registry struct{}

// NewRegistry returns the default Registry. It takes no arguments because
// the tool catalog and integration config are both process-wide, seeded by
// tools.init/integrations.init the same way the teacher's own registries are.
func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Build(ctx context.Context, credentials map[string]string) (workflow.ToolSet, error) {
	if credentials == nil {
		credentials = map[string]string{}
	}
	return newRegistryToolSet(credentials), nil
}
