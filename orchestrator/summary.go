package orchestrator

import (
	"context"
	"strings"

	"github.com/canvaspilot/canvaspilot/chat"
)

// summarize issues the final model call over the complete step log. In
// streaming mode each delta is forwarded as a summary_chunk event and
// accumulated; the full text is returned either way so the caller can emit
// the terminal summary event.
func (r *Runner) summarize(ctx context.Context, query string, stepLog []chat.StepLogEntry, em chat.Emitter) (string, error) {
	prompt := summaryPrompt(query, stepLog)
	if !r.StreamSummary {
		text, err := r.Model.Complete(ctx, prompt, nil, r.Options)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(chat.Sanitize(text)), nil
	}

	stream, err := r.Model.CompleteStream(ctx, prompt, nil, r.Options)
	if err != nil {
		return "", err
	}
	var full strings.Builder
	for chunk := range stream {
		if chunk.Err != nil {
			return "", chunk.Err
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if chunk.Delta == "" {
			continue
		}
		full.WriteString(chunk.Delta)
		if err := em.Emit(chat.SummaryChunkEvent(chunk.Delta)); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(chat.Sanitize(full.String())), nil
}
