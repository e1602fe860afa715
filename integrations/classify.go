package integrations

import (
	"regexp"
	"strings"
)

var (
	questionWordRe = regexp.MustCompile(`(?i)^\s*(what|who|when|where|why|how|which)\b`)
	actionVerbRe   = regexp.MustCompile(`(?i)\b(create|send|write|update|delete|publish|schedule|generate)\b`)
)

// Classify runs the pattern-based smart router: it matches the request
// against every integration's request patterns, then falls back to two
// heuristics when nothing matched — a leading question word implies a web
// search, an action verb implies the general-purpose workspace integration.
// It never calls an LLM; it exists precisely so the planner doesn't have to.
func Classify(request string) []string {
	trimmed := strings.TrimSpace(request)
	if trimmed == "" {
		return nil
	}

	var matched []string
	seen := map[string]bool{}
	for _, cfg := range AllConfigs() {
		if cfg.matches(trimmed) {
			if !seen[cfg.Name] {
				seen[cfg.Name] = true
				matched = append(matched, cfg.Name)
			}
		}
	}
	if len(matched) > 0 {
		return matched
	}

	if questionWordRe.MatchString(trimmed) {
		if _, ok := ConfigFor("web_search"); ok {
			return []string{"web_search"}
		}
	}
	if actionVerbRe.MatchString(trimmed) {
		if _, ok := ConfigFor("workspace_docs"); ok {
			return []string{"workspace_docs"}
		}
	}
	return nil
}
