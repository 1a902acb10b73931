package agent

import "context"

// Event is one item of a turn's event stream. The set of variants is closed
// except for Other, which carries anything a consumer may safely ignore.
type Event interface {
	AgentEvent()
}

// ToolCallStarted - the runtime is about to execute a tool
type ToolCallStarted struct {
	Name string
}

func (e ToolCallStarted) AgentEvent() {}

// ToolCallFinished - the tool returned its result
type ToolCallFinished struct {
	Name string
}

func (e ToolCallFinished) AgentEvent() {}

// ReasoningStarted - the model began a reasoning block
type ReasoningStarted struct{}

func (e ReasoningStarted) AgentEvent() {}

// ReasoningTextChunk - incremental reasoning text
type ReasoningTextChunk struct {
	Text string
}

func (e ReasoningTextChunk) AgentEvent() {}

// ReasoningFinished - the reasoning block ended
type ReasoningFinished struct{}

func (e ReasoningFinished) AgentEvent() {}

// OutputTextChunk - incremental answer text
type OutputTextChunk struct {
	Text string
}

func (e OutputTextChunk) AgentEvent() {}

// Other - any event without a dedicated variant
type Other struct {
	Kind string
}

func (e Other) AgentEvent() {}

// Stream delivers the events of one turn in order. Next returns io.EOF once
// the turn completed and the turn's error if it failed.
type Stream interface {
	Next(ctx context.Context) (Event, error)
}
