package workflow

import (
	"context"
	"testing"
)

type stubToolRegistry struct {
	builds int
}

func (r *stubToolRegistry) Build(ctx context.Context, credentials map[string]string) (ToolSet, error) {
	r.builds++
	return stubToolSet{}, nil
}

type stubToolSet struct{}

func (stubToolSet) Snapshot() []IntegrationInfo                     { return nil }
func (stubToolSet) Classify(request string) []string                { return nil }
func (stubToolSet) GetToolset(integrationIDs []string) []ToolHandle  { return nil }
func (stubToolSet) ToolsFor(hints []string) []ToolHandle             { return nil }
func (stubToolSet) IntegrationForTool(toolName string) (string, bool) { return "", false }
func (stubToolSet) LoadIntegration(integrationID string) []ToolHandle { return nil }
func (stubToolSet) All() []ToolHandle                                 { return nil }

func TestCredentialsKeyIsOrderIndependent(t *testing.T) {
	a := credentialsKey(map[string]string{"gmail_token": "x", "slack_token": "y"})
	b := credentialsKey(map[string]string{"slack_token": "y", "gmail_token": "x"})
	if a != b {
		t.Fatalf("credentialsKey order-dependent: %q != %q", a, b)
	}
}

func TestCredentialsKeyDistinguishesValues(t *testing.T) {
	a := credentialsKey(map[string]string{"gmail_token": "x"})
	b := credentialsKey(map[string]string{"gmail_token": "y"})
	if a == b {
		t.Fatalf("credentialsKey collided for different values")
	}
}

func TestCredentialsKeyEmptyIsStable(t *testing.T) {
	if credentialsKey(nil) != credentialsKey(map[string]string{}) {
		t.Fatalf("credentialsKey should treat nil and empty maps identically")
	}
}

func TestToolsetCacheBuildsOncePerCredentialSet(t *testing.T) {
	registry := &stubToolRegistry{}
	cache := newToolsetCache()
	ctx := context.Background()
	creds := map[string]string{"gmail_token": "x"}

	if _, err := cache.build(ctx, registry, creds); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if _, err := cache.build(ctx, registry, map[string]string{"gmail_token": "x"}); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if registry.builds != 1 {
		t.Fatalf("registry.Build called %d times, want 1", registry.builds)
	}

	if _, err := cache.build(ctx, registry, map[string]string{"gmail_token": "z"}); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if registry.builds != 2 {
		t.Fatalf("registry.Build called %d times, want 2 after a new credential set", registry.builds)
	}
}
