package integrations

import "testing"

func TestResolveSecretEnv(t *testing.T) {
	t.Setenv("WORKFLOW_ENGINE_TEST_SECRET", "shh")
	got, err := ResolveSecret("env:WORKFLOW_ENGINE_TEST_SECRET")
	if err != nil {
		t.Fatalf("ResolveSecret failed: %v", err)
	}
	if got != "shh" {
		t.Fatalf("got %q, want %q", got, "shh")
	}
}

func TestResolveSecretEnvMissing(t *testing.T) {
	if _, err := ResolveSecret("env:WORKFLOW_ENGINE_TEST_SECRET_UNSET"); err == nil {
		t.Fatal("expected error for unset env secret")
	}
}

func TestResolveSecretUnsupportedScheme(t *testing.T) {
	if _, err := ResolveSecret("vault:path/to/secret"); err == nil {
		t.Fatal("expected error for unsupported secret ref scheme")
	}
}

func TestResolveSecretEmptyRef(t *testing.T) {
	if _, err := ResolveSecret(""); err == nil {
		t.Fatal("expected error for empty secret ref")
	}
}

func TestResolveFallbackSecret(t *testing.T) {
	if _, ok := resolveFallbackSecret(""); ok {
		t.Fatal("expected ok=false for empty ref")
	}
	if _, ok := resolveFallbackSecret("env:WORKFLOW_ENGINE_TEST_SECRET_UNSET"); ok {
		t.Fatal("expected ok=false for unresolvable ref")
	}

	t.Setenv("WORKFLOW_ENGINE_TEST_SECRET", "shh")
	token, ok := resolveFallbackSecret("env:WORKFLOW_ENGINE_TEST_SECRET")
	if !ok || token != "shh" {
		t.Fatalf("resolveFallbackSecret(...) = (%q, %v), want (%q, true)", token, ok, "shh")
	}
}

func TestMergeCredentialLeavesBaseUntouched(t *testing.T) {
	base := map[string]string{"slack_token": "s"}
	merged := mergeCredential(base, "google_token", "g")

	if _, present := base["google_token"]; present {
		t.Fatal("mergeCredential mutated the base map")
	}
	if merged["slack_token"] != "s" || merged["google_token"] != "g" {
		t.Fatalf("unexpected merged credentials: %#v", merged)
	}
}
