package orchestrator

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/canvaspilot/canvaspilot/chat"
	"github.com/canvaspilot/canvaspilot/llm"
)

// PlanResult is the outcome of the planning call: either an ordered step
// list, or a direct free-text answer that short-circuits the whole loop.
type PlanResult struct {
	Steps  []chat.PlanStep
	Direct string
}

// plan issues one buffered model call and interprets the response. A parsed
// object with a non-empty steps array becomes a plan; anything else —
// missing JSON, empty steps, or prose — is reinterpreted as a direct
// answer, never as an error.
func (r *Runner) plan(ctx context.Context, query string, history []llm.Message) (PlanResult, error) {
	raw, err := r.Model.Complete(ctx, planPrompt(query), history, r.Options)
	if err != nil {
		return PlanResult{}, err
	}
	r.debugf("plan response: %s", raw)

	if payload, ok := ExtractObject(raw); ok {
		var plan chat.Plan
		if err := json.Unmarshal([]byte(payload), &plan); err == nil && len(plan.Steps) > 0 {
			return PlanResult{Steps: plan.Steps}, nil
		}
	}
	return PlanResult{Direct: strings.TrimSpace(chat.Sanitize(raw))}, nil
}
