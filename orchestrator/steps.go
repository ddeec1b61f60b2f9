package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/canvaspilot/canvaspilot/chat"
)

// ErrToolBudget signals a runaway tool loop: the model kept requesting
// tools past the per-request ceiling. Fatal for the request, never a silent
// truncation.
var ErrToolBudget = errors.New("tool call budget exhausted")

// stepDecision is the shape a step-execution call is expected to return.
// Result stays raw because models emit both strings and nested objects.
type stepDecision struct {
	Tool   string          `json:"tool"`
	Params map[string]any  `json:"params"`
	Result json.RawMessage `json:"result"`
	Done   bool            `json:"done"`
}

// runSteps executes the plan. For each index it asks the model for either a
// tool call or a finalized result. A tool call executes the tool, appends
// the outcome to the tool log, and re-runs the same index with the enriched
// log — that is how the model discovers real identifiers before using them.
// The index advances only on a non-tool result. Returns the step log and
// whether every planned step finalized.
func (r *Runner) runSteps(ctx context.Context, query string, plan chat.Plan, executor ToolExecutor, em chat.Emitter) ([]chat.StepLogEntry, bool, error) {
	var toolLog []chat.ToolLogEntry
	var stepLog []chat.StepLogEntry
	toolCalls := 0

	for i := 0; i < len(plan.Steps); i++ {
		for {
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}
			raw, err := r.Model.Complete(ctx, stepPrompt(query, plan, i, toolLog, stepLog), nil, r.Options)
			if err != nil {
				return nil, false, fmt.Errorf("step %d: %w", i, err)
			}
			r.debugf("step %d response: %s", i, raw)

			decision, parsed := parseDecision(raw)
			if parsed && decision.Tool != "" {
				toolCalls++
				if toolCalls > r.maxToolCalls() {
					return nil, false, fmt.Errorf("%w after %d calls", ErrToolBudget, toolCalls-1)
				}
				if err := em.Emit(chat.StatusEvent(fmt.Sprintf("Fetching %s...", decision.Tool))); err != nil {
					return nil, false, err
				}
				result := executeTool(ctx, executor, decision.Tool, decision.Params)
				toolLog = append(toolLog, chat.ToolLogEntry{
					Tool:   decision.Tool,
					Params: decision.Params,
					Result: result,
				})
				continue // same index, enriched context
			}

			output, done := finalizeResult(raw, decision, parsed)
			stepLog = append(stepLog, chat.StepLogEntry{
				Step:   plan.Steps[i].Describe(),
				Output: output,
			})
			if err := em.Emit(chat.StepEvent(i, plan.Steps[i].Describe(), output)); err != nil {
				return nil, false, err
			}
			if done || i == len(plan.Steps)-1 {
				// Every planned step finalized only when we reached the
				// last index; an early done leaves the rest unexecuted.
				return stepLog, i == len(plan.Steps)-1, nil
			}
			break // advance to i+1
		}
	}
	return stepLog, true, nil
}

// parseDecision extracts the JSON decision from a step response. The
// second return is false when the response carried no parseable object.
func parseDecision(raw string) (stepDecision, bool) {
	payload, ok := ExtractObject(raw)
	if !ok {
		return stepDecision{}, false
	}
	var decision stepDecision
	if err := json.Unmarshal([]byte(payload), &decision); err != nil {
		return stepDecision{}, false
	}
	return decision, true
}

// finalizeResult turns a non-tool step response into the step's recorded
// output. A response with no extractable JSON is not an error: the raw
// sanitized text is the result and the step counts as done.
func finalizeResult(raw string, decision stepDecision, parsed bool) (string, bool) {
	if !parsed {
		return strings.TrimSpace(chat.Sanitize(raw)), true
	}
	return renderResult(decision.Result), decision.Done
}

func renderResult(result json.RawMessage) string {
	if len(result) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(result, &text); err == nil {
		return chat.Sanitize(text)
	}
	// Non-string results (objects, arrays) pass through as raw JSON text;
	// marker pairs can hide inside string fields, so sanitize here too.
	return chat.Sanitize(string(result))
}

func (r *Runner) maxToolCalls() int {
	if r.MaxToolCalls > 0 {
		return r.MaxToolCalls
	}
	return DefaultMaxToolCalls
}
