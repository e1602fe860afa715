package integrations

import (
	"sync"

	"github.com/norrin/workflow-engine/workflow"
)

// approvalClasses assigns every builtin tool an ApprovalClass: silent tools
// never pause a run, advisory tools are flagged for the caller's UI but
// don't force a pause, and mandatory tools always force awaiting_approval
// regardless of what the planner itself suggested. Tools that mutate
// external state or run arbitrary commands are mandatory; read-only or
// pure-computation tools are silent.
var approvalClasses = map[string]workflow.ApprovalClass{
	// mandatory: external side effects or arbitrary execution
	"google_docs_manager": workflow.ApprovalMandatory,
	"document_generator":  workflow.ApprovalMandatory,
	"shell_command":        workflow.ApprovalMandatory,
	"kubectl":              workflow.ApprovalMandatory,
	"k3s":                  workflow.ApprovalMandatory,
	"docker_compose":       workflow.ApprovalMandatory,
	"cron_manager":         workflow.ApprovalMandatory,
	"file_system":          workflow.ApprovalMandatory,
	"archive":              workflow.ApprovalMandatory,

	// advisory: network calls or credential-adjacent reads worth a flag
	"http_client":  workflow.ApprovalAdvisory,
	"web_scraper":  workflow.ApprovalAdvisory,
	"curl":         workflow.ApprovalAdvisory,
	"git_repo":     workflow.ApprovalAdvisory,
	"env_vars":     workflow.ApprovalAdvisory,
	"memory_store": workflow.ApprovalAdvisory,

	// silent: read-only, pure computation, or local-only
	"web_search":          workflow.ApprovalSilent,
	"document_preview":    workflow.ApprovalSilent,
	"todo_manager":        workflow.ApprovalSilent,
	"code_search":         workflow.ApprovalSilent,
	"diff_generator":      workflow.ApprovalSilent,
	"dns_lookup":          workflow.ApprovalSilent,
	"network_utils":       workflow.ApprovalSilent,
	"log_viewer":          workflow.ApprovalSilent,
	"pdf_generator":       workflow.ApprovalSilent,
	"calculator":          workflow.ApprovalSilent,
	"json_parser":         workflow.ApprovalSilent,
	"regex_matcher":       workflow.ApprovalSilent,
	"text_processor":      workflow.ApprovalSilent,
	"base64_codec":        workflow.ApprovalSilent,
	"timestamp_converter": workflow.ApprovalSilent,
	"uuid_generator":      workflow.ApprovalSilent,
	"url_parser":          workflow.ApprovalSilent,
	"secret_redactor":     workflow.ApprovalSilent,
	"hash_generator":      workflow.ApprovalSilent,
}

var approvalMu sync.RWMutex

// ApprovalClassFor returns the configured class for a tool, defaulting to
// advisory for any tool nobody has classified yet: unknown side effects are
// worth flagging but not worth blocking on by default.
func ApprovalClassFor(toolName string) workflow.ApprovalClass {
	approvalMu.RLock()
	defer approvalMu.RUnlock()
	if c, ok := approvalClasses[toolName]; ok {
		return c
	}
	return workflow.ApprovalAdvisory
}

// SetApprovalClass lets a deployment override or extend the default table,
// e.g. after registering a custom tool.
func SetApprovalClass(toolName string, class workflow.ApprovalClass) {
	approvalMu.Lock()
	defer approvalMu.Unlock()
	approvalClasses[toolName] = class
}
