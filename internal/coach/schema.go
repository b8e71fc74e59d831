package coach

import (
	"fmt"

	"github.com/Jiyoung0219/doc2plan-coach/internal/llm"
)

// SchemaKind names one of the two extraction targets.
type SchemaKind int

const (
	Assignment SchemaKind = iota + 1
	Project
)

func (k SchemaKind) String() string {
	switch k {
	case Assignment:
		return "assignment"
	case Project:
		return "project"
	default:
		return fmt.Sprintf("SchemaKind(%d)", int(k))
	}
}

// ParseSchemaKind maps "assignment" or "project" to a SchemaKind.
func ParseSchemaKind(s string) (SchemaKind, error) {
	switch s {
	case "assignment":
		return Assignment, nil
	case "project":
		return Project, nil
	default:
		return 0, fmt.Errorf("unknown schema kind %q", s)
	}
}

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// AssignmentSchema describes an individual assignment brief.
var AssignmentSchema = &llm.Schema{
	Name:        "assignment",
	Description: "An individual assignment: goal, requirements, deliverables and grading rubric.",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"assignment_title": map[string]any{"type": "string"},
			"goal":             map[string]any{"type": "string"},
			"requirements":     stringArray(),
			"deliverables":     stringArray(),
			"rubric":           stringArray(),
			"deadline":         map[string]any{"type": "string"},
			"constraints":      stringArray(),
			"tools_required":   stringArray(),
		},
	},
}

// ProjectSchema describes a team project brief.
var ProjectSchema = &llm.Schema{
	Name:        "project",
	Description: "A team project: goal, milestones, suggested roles, evaluation criteria and risks.",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"project_title": map[string]any{"type": "string"},
			"project_goal":  map[string]any{"type": "string"},
			"milestones": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":         map[string]any{"type": "string"},
						"due":          map[string]any{"type": "string"},
						"deliverables": stringArray(),
					},
				},
			},
			"roles_suggested":     stringArray(),
			"evaluation_criteria": stringArray(),
			"constraints":         stringArray(),
			"risks":               stringArray(),
		},
	},
}

// SchemaFor returns the shared schema for kind, or nil for an unknown kind.
// The returned value must not be modified.
func SchemaFor(kind SchemaKind) *llm.Schema {
	switch kind {
	case Assignment:
		return AssignmentSchema
	case Project:
		return ProjectSchema
	default:
		return nil
	}
}
