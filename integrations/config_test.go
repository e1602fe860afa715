package integrations

import "testing"

func TestDefaultCatalogIncludesGoogleDocsSecretRef(t *testing.T) {
	cfg, ok := ConfigFor("google_docs")
	if !ok {
		t.Fatal("expected google_docs integration in default catalog")
	}
	if !cfg.RequiresAuth {
		t.Fatal("google_docs should require auth")
	}
	if cfg.SecretRef == "" {
		t.Fatal("google_docs should carry a server-side secret fallback")
	}
}

func TestConfigForToolReverseLookup(t *testing.T) {
	cfg, ok := ConfigForTool("web_search")
	if !ok {
		t.Fatal("expected web_search to belong to an integration")
	}
	if cfg.Name != "web_search" {
		t.Fatalf("got integration %q, want %q", cfg.Name, "web_search")
	}
}

func TestAllConfigsSortedByName(t *testing.T) {
	all := AllConfigs()
	if len(all) == 0 {
		t.Fatal("expected at least one integration config")
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name > all[i].Name {
			t.Fatalf("AllConfigs not sorted: %q before %q", all[i-1].Name, all[i].Name)
		}
	}
}

func TestLoadConfigYAMLReplacesCatalog(t *testing.T) {
	t.Cleanup(func() {
		_ = LoadConfigYAML([]byte(defaultConfigYAML))
	})

	custom := `
integrations:
  - name: custom_tool
    display_name: Custom Tool
    tool_names: [custom_tool]
    requires_auth: false
    request_patterns:
      - "custom thing"
`
	if err := LoadConfigYAML([]byte(custom)); err != nil {
		t.Fatalf("LoadConfigYAML failed: %v", err)
	}
	if _, ok := ConfigFor("web_search"); ok {
		t.Fatal("expected the default catalog to be fully replaced")
	}
	cfg, ok := ConfigFor("custom_tool")
	if !ok {
		t.Fatal("expected custom_tool to be registered")
	}
	if !cfg.matches("please do a custom thing for me") {
		t.Fatal("expected request pattern to match")
	}
}
