package llm

import (
	"encoding/json"
	"testing"
)

func TestPlanJSONSchemaIsCached(t *testing.T) {
	first, err := PlanJSONSchema()
	if err != nil {
		t.Fatalf("PlanJSONSchema failed: %v", err)
	}
	if first == nil {
		t.Fatal("expected a non-nil schema")
	}
	second, err := PlanJSONSchema()
	if err != nil {
		t.Fatalf("PlanJSONSchema failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected the cached schema to be stable across calls")
	}
}

func TestValidatePlanRejectsMissingRequiredField(t *testing.T) {
	schema, err := PlanJSONSchema()
	if err != nil {
		t.Fatalf("PlanJSONSchema failed: %v", err)
	}
	raw, _ := json.Marshal(map[string]any{"steps": []any{}})
	if err := validatePlan(schema, raw); err == nil {
		t.Fatal("expected validation error for a plan missing original_request")
	}
}

func TestValidatePlanAcceptsWellFormedPlan(t *testing.T) {
	schema, err := PlanJSONSchema()
	if err != nil {
		t.Fatalf("PlanJSONSchema failed: %v", err)
	}
	raw, _ := json.Marshal(map[string]any{
		"original_request": "do the thing",
		"steps": []any{
			map[string]any{
				"step_number":             1,
				"description":             "do it",
				"status":                  "pending",
				"requires_human_approval": false,
			},
		},
		"is_complete": false,
	})
	if err := validatePlan(schema, raw); err != nil {
		t.Fatalf("expected a well-formed plan to validate, got: %v", err)
	}
}
