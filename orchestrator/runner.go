package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/canvaspilot/canvaspilot/chat"
	"github.com/canvaspilot/canvaspilot/llm"
)

// DefaultMaxToolCalls bounds tool executions per request. The loop itself
// has no natural ceiling — it trusts the model to eventually return a
// non-tool result — so this guard is what turns a runaway model into a
// clean error instead of a hung request.
const DefaultMaxToolCalls = 32

// DefaultHistoryWindow is how many recent messages are forwarded to the
// model as conversation history.
const DefaultHistoryWindow = 10

// Runner drives one chat request through plan, step execution, and
// summary. A Runner is stateless across requests; every log it accumulates
// lives on the stack of a single Run call and dies with it. Safe for
// concurrent use.
type Runner struct {
	Model         llm.LanguageModel
	Executor      ToolExecutor
	Options       *llm.Options
	MaxToolCalls  int
	HistoryWindow int
	StreamSummary bool
	Logger        *slog.Logger
	Debug         bool
}

// Run processes one chat turn and emits the full event sequence, ending
// with exactly one summary event — unless ctx is cancelled, in which case
// it stops promptly and emits nothing further. The returned error reports
// fatal failures for logging; those are already surfaced to the client as
// an error summary event.
func (r *Runner) Run(ctx context.Context, req chat.Request, em chat.Emitter) error {
	if r.Model == nil {
		return r.fail(ctx, em, errors.New("no language model configured"))
	}
	if r.Executor == nil {
		return r.fail(ctx, em, errors.New("no tool executor configured"))
	}
	query := req.LatestUserContent()
	if query == "" {
		return r.fail(ctx, em, errors.New("request carries no user message"))
	}

	window := r.HistoryWindow
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	history := toModelMessages(chat.SanitizeMessages(chat.RecentWindow(req.Messages, window)))

	if err := em.Emit(chat.StatusEvent("Thinking about your request...")); err != nil {
		return err
	}
	planned, err := r.plan(ctx, query, history)
	if err != nil {
		return r.fail(ctx, em, fmt.Errorf("planning: %w", err))
	}

	// Direct answer: no tool use needed, no plan/step events.
	if len(planned.Steps) == 0 {
		r.log().Info("request answered directly", "query_len", len(query))
		return em.Emit(chat.SummaryEvent(planned.Direct, true))
	}

	plan := chat.Plan{Steps: planned.Steps}
	if err := em.Emit(chat.PlanEvent(plan.Steps)); err != nil {
		return err
	}

	stepLog, completeAll, err := r.runSteps(ctx, query, plan, r.Executor, em)
	if err != nil {
		return r.fail(ctx, em, err)
	}

	summary, err := r.summarize(ctx, query, stepLog, em)
	if err != nil {
		return r.fail(ctx, em, fmt.Errorf("summary: %w", err))
	}
	r.log().Info("request complete", "steps", len(stepLog), "complete_all", completeAll)
	return em.Emit(chat.Event{
		Type:        chat.EventSummary,
		Summary:     summary,
		CompleteAll: completeAll,
	})
}

// fail surfaces a fatal error as the terminal summary event. Cancellation
// is the exception: the client hung up, so nothing further is emitted.
func (r *Runner) fail(ctx context.Context, em chat.Emitter, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	r.log().Error("request failed", "error", err)
	if emitErr := em.Emit(chat.ErrorSummaryEvent(err.Error())); emitErr != nil {
		return errors.Join(err, emitErr)
	}
	return err
}

func (r *Runner) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) debugf(format string, args ...any) {
	if !r.Debug {
		return
	}
	r.log().Debug(fmt.Sprintf(format, args...))
}

func toModelMessages(messages []chat.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
