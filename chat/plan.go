package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ToolCall declares intent to execute exactly one named operation from the
// fixed tool catalogue.
type ToolCall struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params,omitempty"`
}

// PlanStep is one entry of a plan. Models produce steps in two shapes: a
// plain descriptive string, or a tool-call object. Both decode into this
// struct; Describe renders whichever variant is populated.
type PlanStep struct {
	Description string         `json:"description,omitempty"`
	Tool        string         `json:"tool,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// UnmarshalJSON accepts either a bare string or an object with
// description/tool/params fields.
func (s *PlanStep) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = PlanStep{Description: text}
		return nil
	}
	type alias PlanStep
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = PlanStep(obj)
	return nil
}

// Describe renders the step for prompts and for the client. Tool-shaped
// steps without a description fall back to the call signature.
func (s PlanStep) Describe() string {
	if s.Description != "" {
		return s.Description
	}
	if s.Tool == "" {
		return "(empty step)"
	}
	if len(s.Params) == 0 {
		return s.Tool
	}
	args, err := json.Marshal(s.Params)
	if err != nil {
		return s.Tool
	}
	return fmt.Sprintf("%s %s", s.Tool, args)
}

// Plan is the ordered step sequence a model proposes. It is immutable once
// parsed; only the executor's index progresses.
type Plan struct {
	Steps []PlanStep `json:"steps"`
}

// Describe renders the whole plan as a numbered list for step prompts.
func (p Plan) Describe() string {
	var b strings.Builder
	for i, step := range p.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step.Describe())
	}
	return b.String()
}

// ToolLogEntry records one tool invocation within a request. The log is
// append-only and scoped to a single request; it is the contextual memory
// fed back to the model on retried step calls.
type ToolLogEntry struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params,omitempty"`
	Result any            `json:"result"`
}

// StepLogEntry records one finalized step result, in step order. The step
// log feeds the summary prompt.
type StepLogEntry struct {
	Step   string `json:"step"`
	Output string `json:"output"`
}
