// Package classifier turns the event stream of an agent turn into render
// calls and the visible answer text.
package classifier

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/Rorical/clanker/internal/agent"
	"github.com/Rorical/clanker/ui/render"
)

// Phase is the high level activity of the agent.
type Phase int

const (
	Idle Phase = iota
	Thinking
	CallingTool
	EmittingText
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Thinking:
		return "thinking"
	case CallingTool:
		return "calling-tool"
	case EmittingText:
		return "emitting-text"
	}
	return "unknown"
}

// Status texts shown while the agent is busy.
const (
	ThinkingStatus = "thinking…"
	ToolStatus     = "🔧 "
)

const separator = "\n"

// Renderer is the part of render.Engine the classifier drives.
type Renderer interface {
	SetStatus(status string)
	Print(text string)
	PrintWith(text, prefix, suffix string)
}

type chunkKind int

const (
	noChunk chunkKind = iota
	reasoningChunk
	outputChunk
)

// Classifier holds the phase state of one stream consumer. It is not safe for
// concurrent use.
type Classifier struct {
	renderer Renderer
	phase    Phase
	last     chunkKind
}

// New creates a classifier driving renderer.
func New(renderer Renderer) *Classifier {
	return &Classifier{renderer: renderer}
}

// Phase returns the current phase.
func (c *Classifier) Phase() Phase {
	return c.phase
}

// Run consumes stream until it ends and yields every answer text chunk. A
// stream error is yielded once and ends the sequence; the caller owns the
// status line from then on. Stopping the iteration early leaves the rest of
// the stream unread.
func (c *Classifier) Run(ctx context.Context, stream agent.Stream) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		c.reset()
		defer c.reset()
		for {
			event, err := stream.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if text, ok := c.Handle(event); ok {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

// Handle applies one event and reports the answer text it carries, if any.
func (c *Classifier) Handle(event agent.Event) (string, bool) {
	switch e := event.(type) {
	case agent.ToolCallStarted:
		c.renderer.SetStatus(ToolStatus + e.Name)
		c.enter(CallingTool)

	case agent.ToolCallFinished:
		if c.phase != CallingTool {
			return "", false
		}
		c.renderer.SetStatus("")
		c.renderer.Print(separator + "🔧 calling " + e.Name)
		c.enter(Idle)

	case agent.ReasoningStarted:
		c.renderer.SetStatus(ThinkingStatus)
		c.enter(Thinking)

	case agent.ReasoningFinished:
		if c.phase != Thinking {
			return "", false
		}
		c.renderer.SetStatus("")
		c.enter(Idle)

	case agent.ReasoningTextChunk:
		if e.Text == "" {
			return "", false
		}
		if c.last != reasoningChunk {
			c.renderer.Print(separator)
			c.last = reasoningChunk
		}
		c.renderer.PrintWith(e.Text, render.Dim, render.Reset)
		c.phase = Thinking

	case agent.OutputTextChunk:
		if e.Text == "" {
			return "", false
		}
		if c.last != outputChunk {
			c.renderer.Print(separator)
			c.last = outputChunk
		}
		c.renderer.Print(e.Text)
		c.phase = EmittingText
		return e.Text, true
	}

	return "", false
}

// enter switches to a phase started by a non-chunk event, which also ends any
// run of chunks.
func (c *Classifier) enter(phase Phase) {
	c.phase = phase
	c.last = noChunk
}

func (c *Classifier) reset() {
	c.enter(Idle)
}
