package chat

// EventType enumerates the kinds of events on the response stream.
type EventType string

const (
	EventStatus       EventType = "status"
	EventPlan         EventType = "plan"
	EventStep         EventType = "step"
	EventSummaryChunk EventType = "summary_chunk"
	EventSummary      EventType = "summary"
)

// Event is one entry of the ordered, one-way stream a request produces.
// Field usage per type:
//
//	status        Message
//	plan          Steps (at most once, only when planning produced steps)
//	step          Index, Step, Output (ascending index, once per step)
//	summary_chunk Delta (streaming mode only)
//	summary       Summary, CompleteAll, Error (exactly once, always last)
//
// Index and CompleteAll serialize without omitempty: index 0 and
// complete_all false are meaningful values and must appear on the wire.
type Event struct {
	Type        EventType  `json:"type"`
	Message     string     `json:"message,omitempty"`
	Steps       []PlanStep `json:"steps,omitempty"`
	Index       int        `json:"index"`
	Step        string     `json:"step,omitempty"`
	Output      string     `json:"output,omitempty"`
	Delta       string     `json:"delta,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	CompleteAll bool       `json:"complete_all"`
	Error       bool       `json:"error,omitempty"`
}

// Emitter receives events in causal order. Implementations may block under
// backpressure; a returned error aborts the request.
type Emitter interface {
	Emit(event Event) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(event Event) error

// Emit calls f.
func (f EmitterFunc) Emit(event Event) error { return f(event) }

// StatusEvent builds a progress event.
func StatusEvent(message string) Event {
	return Event{Type: EventStatus, Message: message}
}

// PlanEvent builds the plan announcement event.
func PlanEvent(steps []PlanStep) Event {
	return Event{Type: EventPlan, Steps: steps}
}

// StepEvent builds a step-completed event.
func StepEvent(index int, step, output string) Event {
	return Event{Type: EventStep, Index: index, Step: step, Output: output}
}

// SummaryChunkEvent builds an incremental summary delta event.
func SummaryChunkEvent(delta string) Event {
	return Event{Type: EventSummaryChunk, Delta: delta}
}

// SummaryEvent builds the terminal event. completeAll reports whether every
// planned step finished.
func SummaryEvent(text string, completeAll bool) Event {
	return Event{Type: EventSummary, Summary: text, CompleteAll: completeAll}
}

// ErrorSummaryEvent builds the terminal event for an unrecoverable failure.
// Clients must render it as a displayable error, not drop it.
func ErrorSummaryEvent(message string) Event {
	return Event{Type: EventSummary, Summary: message, Error: true}
}
