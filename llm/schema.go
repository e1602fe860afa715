package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/norrin/workflow-engine/workflow"
	"github.com/xeipuuv/gojsonschema"
)

var (
	schemaOnce  sync.Once
	planSchema  map[string]any
	schemaErr   error
)

// PlanJSONSchema returns the JSON schema a planner call must satisfy,
// reflected once from workflow.Plan and cached for the process lifetime.
func PlanJSONSchema() (map[string]any, error) {
	schemaOnce.Do(func() {
		reflector := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
		schema := reflector.Reflect(&workflow.Plan{})
		raw, err := json.Marshal(schema)
		if err != nil {
			schemaErr = fmt.Errorf("marshal plan schema: %w", err)
			return
		}
		out := map[string]any{}
		if err := json.Unmarshal(raw, &out); err != nil {
			schemaErr = fmt.Errorf("decode plan schema: %w", err)
			return
		}
		planSchema = out
	})
	return planSchema, schemaErr
}

// validatePlan checks a planner response against the plan schema, returning
// a human-readable description of the first violation so it can be folded
// back into a corrective retry prompt.
func validatePlan(schema map[string]any, raw []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	docLoader := gojsonschema.NewBytesLoader(raw)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate plan: %w", err)
	}
	if result.Valid() {
		return nil
	}
	if len(result.Errors()) == 0 {
		return fmt.Errorf("plan failed schema validation")
	}
	return fmt.Errorf("plan failed schema validation: %s", result.Errors()[0].String())
}
