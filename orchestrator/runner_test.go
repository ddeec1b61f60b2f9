package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvaspilot/canvaspilot/chat"
	"github.com/canvaspilot/canvaspilot/llm"
)

// stubModel returns queued responses in order and records every prompt it
// was asked.
type stubModel struct {
	mu        sync.Mutex
	responses []string
	prompts   []string
	histories [][]llm.Message
	repeat    string // returned forever once the queue is empty, if set
}

func (s *stubModel) Complete(ctx context.Context, system string, messages []llm.Message, opts *llm.Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, system)
	s.histories = append(s.histories, messages)
	if len(s.responses) == 0 {
		if s.repeat != "" {
			return s.repeat, nil
		}
		return "", errors.New("stub model: no response queued")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *stubModel) CompleteStream(ctx context.Context, system string, messages []llm.Message, opts *llm.Options) (<-chan llm.Chunk, error) {
	text, err := s.Complete(ctx, system, messages, opts)
	if err != nil {
		return nil, err
	}
	ch := make(chan llm.Chunk)
	go func() {
		defer close(ch)
		// Two deltas per response exercises accumulation.
		half := len(text) / 2
		for _, delta := range []string{text[:half], text[half:]} {
			if delta != "" {
				ch <- llm.Chunk{Delta: delta}
			}
		}
	}()
	return ch, nil
}

// recorder collects emitted events in order.
type recorder struct {
	events []chat.Event
}

func (r *recorder) Emit(event chat.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) types() []chat.EventType {
	out := make([]chat.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *recorder) last() chat.Event {
	return r.events[len(r.events)-1]
}

func echoExecutor(t *testing.T) ToolExecutor {
	t.Helper()
	return ToolExecutorFunc(func(ctx context.Context, tool string, params map[string]any) (any, error) {
		return map[string]any{"tool": tool, "ok": true}, nil
	})
}

func userRequest(content string) chat.Request {
	return chat.Request{Messages: []chat.Message{{Role: chat.RoleUser, Content: content}}}
}

func TestRunDirectAnswer(t *testing.T) {
	model := &stubModel{responses: []string{
		"Hello! Ask me about your courses, assignments, or grades.",
	}}
	r := Runner{Model: model, Executor: echoExecutor(t)}
	em := &recorder{}

	err := r.Run(context.Background(), userRequest("hi there"), em)
	require.NoError(t, err)

	require.Equal(t, []chat.EventType{chat.EventStatus, chat.EventSummary}, em.types())
	final := em.last()
	assert.Equal(t, "Hello! Ask me about your courses, assignments, or grades.", final.Summary)
	assert.True(t, final.CompleteAll)
	assert.False(t, final.Error)
}

func TestRunDirectAnswerSanitized(t *testing.T) {
	model := &stubModel{responses: []string{
		"Answer [context]leak[/context] text",
	}}
	r := Runner{Model: model, Executor: echoExecutor(t)}
	em := &recorder{}

	require.NoError(t, r.Run(context.Background(), userRequest("hi"), em))
	assert.Equal(t, "Answer  text", em.last().Summary)
}

func TestRunFullLoop(t *testing.T) {
	model := &stubModel{responses: []string{
		// Plan: one step.
		`{"steps": ["List my favorite courses"]}`,
		// Step 0, first call: tool request.
		`{"tool": "get_courses", "params": {}}`,
		// Step 0, retried with the tool log: final result.
		`{"result": "You are enrolled in Biology and Calculus.", "done": true}`,
		// Summary.
		"You're taking Biology 1110 and Calculus I this term.",
	}}
	r := Runner{Model: model, Executor: echoExecutor(t)}
	em := &recorder{}

	err := r.Run(context.Background(), userRequest("what courses am I taking?"), em)
	require.NoError(t, err)

	require.Equal(t, []chat.EventType{
		chat.EventStatus, // thinking
		chat.EventPlan,
		chat.EventStatus, // fetching get_courses
		chat.EventStep,
		chat.EventSummary,
	}, em.types())

	assert.Contains(t, em.events[2].Message, "get_courses")
	assert.Equal(t, 0, em.events[3].Index)
	assert.Equal(t, "You are enrolled in Biology and Calculus.", em.events[3].Output)

	final := em.last()
	assert.True(t, final.CompleteAll)
	assert.Equal(t, "You're taking Biology 1110 and Calculus I this term.", final.Summary)

	// The retried step call saw the tool result; the summary call saw the
	// step log.
	require.Len(t, model.prompts, 4)
	assert.Contains(t, model.prompts[2], "get_courses")
	assert.Contains(t, model.prompts[3], "You are enrolled in Biology and Calculus.")
}

func TestRetryAdvancesLogNotIndex(t *testing.T) {
	model := &stubModel{responses: []string{
		`{"steps": ["Find the course, then its assignments"]}`,
		`{"tool": "get_courses", "params": {}}`,
		`{"tool": "get_assignments", "params": {"course_id": 101}}`,
		`{"result": "Two assignments due this week.", "done": true}`,
		"Biology has two assignments due this week.",
	}}
	var calls []string
	executor := ToolExecutorFunc(func(ctx context.Context, tool string, params map[string]any) (any, error) {
		calls = append(calls, tool)
		return map[string]any{"ok": true}, nil
	})
	r := Runner{Model: model, Executor: executor}
	em := &recorder{}

	require.NoError(t, r.Run(context.Background(), userRequest("what's due in biology?"), em))

	// Two tool executions, but exactly one step event at index 0: the
	// index only advanced once a non-tool result arrived.
	assert.Equal(t, []string{"get_courses", "get_assignments"}, calls)
	var stepEvents []chat.Event
	for _, ev := range em.events {
		if ev.Type == chat.EventStep {
			stepEvents = append(stepEvents, ev)
		}
	}
	require.Len(t, stepEvents, 1)
	assert.Equal(t, 0, stepEvents[0].Index)

	// Both tool outcomes were visible on the final step call.
	assert.Contains(t, model.prompts[3], "get_courses")
	assert.Contains(t, model.prompts[3], "get_assignments")
}

func TestRunToolFailureIsAbsorbed(t *testing.T) {
	model := &stubModel{responses: []string{
		`{"steps": ["Fetch assignments"]}`,
		`{"tool": "get_assignments", "params": {"course_id": 999}}`,
		`{"result": "That course does not exist.", "done": true}`,
		"I couldn't find course 999. Try get_courses to see valid ids.",
	}}
	failing := ToolExecutorFunc(func(ctx context.Context, tool string, params map[string]any) (any, error) {
		return nil, fmt.Errorf("canvas /courses/999/assignments: 404 Not Found")
	})
	r := Runner{Model: model, Executor: failing}
	em := &recorder{}

	err := r.Run(context.Background(), userRequest("assignments for course 999"), em)
	require.NoError(t, err)

	// The failure reached the model as a value on the retried call, not
	// as a fatal error.
	require.Len(t, model.prompts, 4)
	assert.Contains(t, model.prompts[2], "404 Not Found")
	final := em.last()
	assert.False(t, final.Error)
	assert.True(t, final.CompleteAll)
}

func TestRunToolBudgetExhausted(t *testing.T) {
	model := &stubModel{
		responses: []string{`{"steps": ["Loop forever"]}`},
		repeat:    `{"tool": "get_courses", "params": {}}`,
	}
	r := Runner{Model: model, Executor: echoExecutor(t), MaxToolCalls: 3}
	em := &recorder{}

	err := r.Run(context.Background(), userRequest("loop"), em)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolBudget)

	final := em.last()
	assert.Equal(t, chat.EventSummary, final.Type)
	assert.True(t, final.Error)
	assert.Contains(t, final.Summary, "budget")
}

func TestRunMultiStepPlainTextStep(t *testing.T) {
	model := &stubModel{responses: []string{
		`{"steps": ["First thing", "Second thing"]}`,
		// Step 0 answers in plain prose: counts as done for that step.
		"The first thing is handled.",
		// Step 1 likewise.
		"The second thing is handled too.",
		"All done.",
	}}
	r := Runner{Model: model, Executor: echoExecutor(t)}
	em := &recorder{}

	require.NoError(t, r.Run(context.Background(), userRequest("do two things"), em))
	require.Equal(t, []chat.EventType{
		chat.EventStatus,
		chat.EventPlan,
		chat.EventStep,
		chat.EventStep,
		chat.EventSummary,
	}, em.types())
	assert.Equal(t, 0, em.events[2].Index)
	assert.Equal(t, 1, em.events[3].Index)
	assert.True(t, em.last().CompleteAll)
}

func TestRunEarlyDoneIsNotCompleteAll(t *testing.T) {
	model := &stubModel{responses: []string{
		`{"steps": ["First", "Second", "Third"]}`,
		`{"result": "Everything resolved at step one.", "done": true}`,
		"Summary of the shortened run.",
	}}
	r := Runner{Model: model, Executor: echoExecutor(t)}
	em := &recorder{}

	require.NoError(t, r.Run(context.Background(), userRequest("three things"), em))
	final := em.last()
	assert.Equal(t, chat.EventSummary, final.Type)
	assert.False(t, final.CompleteAll)
}

func TestStepObjectResultIsSanitized(t *testing.T) {
	model := &stubModel{responses: []string{
		`{"steps": ["One step"]}`,
		`{"result": {"note": "visible [context]hidden hint[/context] tail"}, "done": true}`,
		"summary text",
	}}
	r := Runner{Model: model, Executor: echoExecutor(t)}
	em := &recorder{}

	require.NoError(t, r.Run(context.Background(), userRequest("go"), em))

	var step *chat.Event
	for i := range em.events {
		if em.events[i].Type == chat.EventStep {
			step = &em.events[i]
		}
	}
	require.NotNil(t, step)
	assert.Contains(t, step.Output, "visible")
	assert.NotContains(t, step.Output, chat.ContextOpen)
	assert.NotContains(t, step.Output, "hidden hint")
}

func TestRunStreamingSummary(t *testing.T) {
	model := &stubModel{responses: []string{
		`{"steps": ["One step"]}`,
		`{"result": "step output", "done": true}`,
		"Streamed summary text.",
	}}
	r := Runner{Model: model, Executor: echoExecutor(t), StreamSummary: true}
	em := &recorder{}

	require.NoError(t, r.Run(context.Background(), userRequest("stream it"), em))

	var chunks string
	sawChunk := false
	for _, ev := range em.events {
		if ev.Type == chat.EventSummaryChunk {
			sawChunk = true
			chunks += ev.Delta
		}
	}
	assert.True(t, sawChunk)
	assert.Equal(t, "Streamed summary text.", chunks)

	final := em.last()
	assert.Equal(t, chat.EventSummary, final.Type)
	assert.Equal(t, "Streamed summary text.", final.Summary)
}

func TestRunEndToEndCourseListing(t *testing.T) {
	model := &stubModel{responses: []string{
		`{"steps": [{"tool": "get_courses", "params": {}}]}`,
		`{"tool": "get_courses", "params": {}}`,
		`{"result": [{"id":1,"name":"Algorithms"}], "done": true}`,
		"You are enrolled in Algorithms.",
	}}
	executor := ToolExecutorFunc(func(ctx context.Context, tool string, params map[string]any) (any, error) {
		require.Equal(t, "get_courses", tool)
		return []map[string]any{{"id": 1, "name": "Algorithms"}}, nil
	})
	r := Runner{Model: model, Executor: executor}
	em := &recorder{}

	require.NoError(t, r.Run(context.Background(), userRequest("What are my courses?"), em))

	var plan, step, summary *chat.Event
	for i := range em.events {
		ev := &em.events[i]
		switch ev.Type {
		case chat.EventPlan:
			plan = ev
		case chat.EventStep:
			step = ev
		case chat.EventSummary:
			summary = ev
		}
	}
	require.NotNil(t, plan)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "get_courses", plan.Steps[0].Tool)

	require.NotNil(t, step)
	assert.Equal(t, 0, step.Index)
	assert.Contains(t, step.Output, "Algorithms")

	require.NotNil(t, summary)
	assert.Equal(t, "You are enrolled in Algorithms.", summary.Summary)
	assert.True(t, summary.CompleteAll)
	assert.False(t, summary.Error)
	assert.Equal(t, chat.EventSummary, em.last().Type, "no events after summary")
}

func TestRunPlanningFailureEmitsErrorSummary(t *testing.T) {
	model := &stubModel{} // empty queue: first call fails
	r := Runner{Model: model, Executor: echoExecutor(t)}
	em := &recorder{}

	err := r.Run(context.Background(), userRequest("anything"), em)
	require.Error(t, err)

	final := em.last()
	assert.Equal(t, chat.EventSummary, final.Type)
	assert.True(t, final.Error)
	assert.NotEmpty(t, final.Summary)
}

func TestRunCancelledEmitsNothingFurther(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &stubModel{repeat: `{"steps": ["x"]}`}
	r := Runner{Model: model, Executor: echoExecutor(t)}
	em := &recorder{}

	err := r.Run(ctx, userRequest("anything"), em)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	for _, ev := range em.events {
		assert.NotEqual(t, chat.EventSummary, ev.Type)
	}
}

func TestRunNoUserMessage(t *testing.T) {
	model := &stubModel{}
	r := Runner{Model: model, Executor: echoExecutor(t)}
	em := &recorder{}

	err := r.Run(context.Background(), chat.Request{}, em)
	require.Error(t, err)
	assert.True(t, em.last().Error)
	assert.Empty(t, model.prompts)
}

func TestRunContextHintStaysOutOfHistory(t *testing.T) {
	model := &stubModel{responses: []string{"direct answer"}}
	r := Runner{Model: model, Executor: echoExecutor(t)}
	em := &recorder{}

	req := chat.Request{Messages: []chat.Message{
		{Role: chat.RoleUser, Content: "earlier turn [context]course_id=42[/context]"},
		{Role: chat.RoleAssistant, Content: "earlier reply"},
		{Role: chat.RoleUser, Content: "what's due? [context]course_id=42 course_name=Biology[/context]"},
	}}
	require.NoError(t, r.Run(context.Background(), req, em))

	// The current turn's hint reaches the planner prompt; use of the raw
	// query is what lets pre-resolved ids flow into tool params.
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "course_id=42 course_name=Biology")

	// The history window fed alongside the prompt is sanitized.
	require.Len(t, model.histories, 1)
	for _, msg := range model.histories[0] {
		assert.NotContains(t, msg.Content, chat.ContextOpen)
	}
}
