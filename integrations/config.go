package integrations

import (
	"regexp"
	"sort"
	"sync"

	"github.com/goccy/go-yaml"
)

// IntegrationConfig describes one pluggable integration: the tool names it
// owns, the display metadata shown to a user, and the request patterns the
// smart router uses to decide whether a fresh request needs it.
type IntegrationConfig struct {
	Name            string   `yaml:"name" json:"name"`
	DisplayName     string   `yaml:"display_name" json:"display_name"`
	Icon            string   `yaml:"icon" json:"icon"`
	ToolNames       []string `yaml:"tool_names" json:"tool_names"`
	RequiresAuth    bool     `yaml:"requires_auth" json:"requires_auth"`
	CredentialKey   string   `yaml:"credential_key,omitempty" json:"credential_key,omitempty"`
	// SecretRef is a server-side fallback for CredentialKey, resolved via
	// ResolveSecret when the caller's own credential bag doesn't carry the
	// token. This lets an operator run an auth-gated integration
	// unattended from an env-configured secret instead of a bearer token
	// on every request.
	SecretRef       string   `yaml:"secret_ref,omitempty" json:"secret_ref,omitempty"`
	RequestPatterns []string `yaml:"request_patterns" json:"request_patterns"`

	compiled []*regexp.Regexp
}

// defaultConfigYAML is the built-in integration catalog, equivalent to what
// a deployment would normally override via config file. It is parsed once
// at init() the same way integrations.Register seeds its provider list.
const defaultConfigYAML = `
integrations:
  - name: web_search
    display_name: Web Search
    icon: search
    tool_names: [web_search]
    requires_auth: false
    request_patterns:
      - "search (for|the web)"
      - "look up"
      - "find (information|articles|news)"
      - "what is|who is|latest news"

  - name: google_docs
    display_name: Google Docs
    icon: file-text
    tool_names: [google_docs_manager]
    requires_auth: true
    credential_key: google_token
    secret_ref: "env:AGENT_GOOGLE_ACCESS_TOKEN"
    request_patterns:
      - "google doc"
      - "create a doc"
      - "write (a )?document"

  - name: workspace_docs
    display_name: Workspace Documents
    icon: folder
    tool_names: [document_generator, document_preview, todo_manager]
    requires_auth: false
    request_patterns:
      - "generate (a )?(report|document|pdf)"
      - "todo|to-do|task list"
      - "preview (the )?document"

  - name: code
    display_name: Code Tools
    icon: code
    tool_names: [git_repo, code_search, diff_generator]
    requires_auth: false
    request_patterns:
      - "clone (the )?repo"
      - "search (the )?code"
      - "diff|patch"

  - name: network
    display_name: Network Tools
    icon: globe
    tool_names: [http_client, web_scraper, curl, dns_lookup, network_utils]
    requires_auth: false
    request_patterns:
      - "http request|api call"
      - "scrape"
      - "dns|ping|traceroute"

  - name: infra
    display_name: Infrastructure
    icon: server
    tool_names: [kubectl, k3s, docker_compose, log_viewer]
    requires_auth: false
    request_patterns:
      - "kubernetes|k8s|kubectl"
      - "docker compose"
      - "(view|tail) logs"

  - name: files
    display_name: File System
    icon: hard-drive
    tool_names: [file_system, archive, pdf_generator]
    requires_auth: false
    request_patterns:
      - "read file|write file|list directory"
      - "zip|unzip|archive"
      - "generate pdf"

  - name: system
    display_name: System
    icon: terminal
    tool_names: [shell_command, env_vars, cron_manager]
    requires_auth: false
    request_patterns:
      - "run (a )?(command|script)"
      - "schedule|cron job"

  - name: utility
    display_name: Utilities
    icon: tool
    tool_names:
      - calculator
      - json_parser
      - regex_matcher
      - text_processor
      - base64_codec
      - timestamp_converter
      - uuid_generator
      - url_parser
      - secret_redactor
      - hash_generator
      - memory_store
    requires_auth: false
    request_patterns:
      - "calculate|compute"
      - "parse json"
      - "regex|pattern match"
      - "encode|decode base64"
      - "generate uuid"
`

type configFile struct {
	Integrations []IntegrationConfig `yaml:"integrations"`
}

var (
	configMu sync.RWMutex
	configs  = map[string]*IntegrationConfig{}
)

func init() {
	if err := LoadConfigYAML([]byte(defaultConfigYAML)); err != nil {
		panic("integrations: invalid built-in config: " + err.Error())
	}
}

// LoadConfigYAML replaces the integration catalog with the one described by
// raw, compiling each integration's request patterns up front. A deployment
// wanting a custom catalog calls this once at startup with its own file.
func LoadConfigYAML(raw []byte) error {
	var cf configFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return err
	}
	next := make(map[string]*IntegrationConfig, len(cf.Integrations))
	for i := range cf.Integrations {
		cfg := cf.Integrations[i]
		cfg.compiled = make([]*regexp.Regexp, 0, len(cfg.RequestPatterns))
		for _, p := range cfg.RequestPatterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return err
			}
			cfg.compiled = append(cfg.compiled, re)
		}
		next[cfg.Name] = &cfg
	}
	configMu.Lock()
	configs = next
	configMu.Unlock()
	return nil
}

// AllConfigs returns every registered integration config, sorted by name.
func AllConfigs() []*IntegrationConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	out := make([]*IntegrationConfig, 0, len(configs))
	for _, c := range configs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ConfigFor looks up one integration by name.
func ConfigFor(name string) (*IntegrationConfig, bool) {
	configMu.RLock()
	defer configMu.RUnlock()
	c, ok := configs[name]
	return c, ok
}

// ConfigForTool reverse-looks-up the integration owning a tool name.
func ConfigForTool(toolName string) (*IntegrationConfig, bool) {
	configMu.RLock()
	defer configMu.RUnlock()
	for _, c := range configs {
		for _, t := range c.ToolNames {
			if t == toolName {
				return c, true
			}
		}
	}
	return nil, false
}

func (c *IntegrationConfig) matches(request string) bool {
	for _, re := range c.compiled {
		if re.MatchString(request) {
			return true
		}
	}
	return false
}
