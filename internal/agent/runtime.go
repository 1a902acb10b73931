package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"pkt.systems/pslog"

	"github.com/Rorical/clanker/internal/tools"
)

// DefaultMaxToolRounds bounds the model/tool ping-pong of a single turn.
const DefaultMaxToolRounds = 25

// Item is one transcript entry.
type Item = openai.ChatCompletionMessage

// Options configures a Runtime.
type Options struct {
	Model         string
	SystemPrompt  string
	MaxToolRounds int
}

// Runtime drives chat completions with tool calling against an OpenAI
// compatible endpoint.
type Runtime struct {
	client    *openai.Client
	model     string
	system    string
	maxRounds int
}

// NewRuntime creates a runtime for the given client.
func NewRuntime(client *openai.Client, opts Options) *Runtime {
	maxRounds := opts.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	return &Runtime{
		client:    client,
		model:     opts.Model,
		system:    opts.SystemPrompt,
		maxRounds: maxRounds,
	}
}

// NewClient builds a go-openai client for a profile.
func NewClient(apiKey, baseURL string) *openai.Client {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

// Request is the input of one turn.
type Request struct {
	Prompt  string
	History []Item
	Tools   *tools.Registry
}

// Turn is a running runtime invocation.
type Turn struct {
	events chan Event
	err    error
	items  []Item
}

// Next returns the next event of the turn.
func (t *Turn) Next(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case event, ok := <-t.events:
		if !ok {
			if t.err != nil {
				return nil, t.err
			}
			return nil, io.EOF
		}
		return event, nil
	}
}

// Items returns the transcript items finalized by the turn: the user message,
// assistant messages and tool results in conversation order. It is only
// meaningful after Next returned io.EOF.
func (t *Turn) Items() []Item {
	return t.items
}

// Start begins a turn. Events are produced by a single goroutine that stops
// when the turn completes or ctx is cancelled.
func (r *Runtime) Start(ctx context.Context, req Request) *Turn {
	turn := &Turn{events: make(chan Event, 64)}
	go func() {
		items, err := r.run(ctx, turn.events, req)
		if err == nil {
			turn.items = items
		}
		turn.err = err
		close(turn.events)
	}()
	return turn
}

func (r *Runtime) run(ctx context.Context, events chan<- Event, req Request) ([]Item, error) {
	log := pslog.Ctx(ctx).With("model", r.model)
	registry := req.Tools
	if registry == nil {
		registry = tools.NewRegistry()
	}

	history := SanitizeHistory(req.History)
	messages := make([]Item, 0, len(history)+2)
	if r.system != "" {
		messages = append(messages, Item{Role: openai.ChatMessageRoleSystem, Content: r.system})
	}
	messages = append(messages, history...)

	user := Item{Role: openai.ChatMessageRoleUser, Content: req.Prompt}
	messages = append(messages, user)
	items := []Item{user}

	emit := func(event Event) error {
		select {
		case events <- event:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	log.Info("runtime turn started", "history", len(history), "tools", len(registry.ListTools()))
	definitions := toolDefinitions(registry)

	for round := 1; ; round++ {
		assistant, err := r.streamRound(ctx, emit, messages, definitions)
		if err != nil {
			log.Warn("runtime round failed", "round", round, "err", err)
			return nil, err
		}
		messages = append(messages, assistant)
		items = append(items, assistant)
		if err := emit(Other{Kind: "round.completed"}); err != nil {
			return nil, err
		}

		if len(assistant.ToolCalls) == 0 {
			log.Info("runtime turn completed", "rounds", round, "items", len(items))
			return items, nil
		}
		if round > r.maxRounds {
			return nil, fmt.Errorf("model requested tools after %d tool rounds", r.maxRounds)
		}

		for _, call := range assistant.ToolCalls {
			if err := emit(ToolCallStarted{Name: call.Function.Name}); err != nil {
				return nil, err
			}
			output := registry.Execute(ctx, call.Function.Name, call.Function.Arguments)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := emit(ToolCallFinished{Name: call.Function.Name}); err != nil {
				return nil, err
			}
			result := Item{
				Role:       openai.ChatMessageRoleTool,
				Content:    output,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			}
			messages = append(messages, result)
			items = append(items, result)
		}
	}
}

// streamRound runs one streamed completion and returns the assembled
// assistant message.
func (r *Runtime) streamRound(ctx context.Context, emit func(Event) error, messages []Item, definitions []openai.Tool) (Item, error) {
	stream, err := r.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
		Tools:    definitions,
		Stream:   true,
	})
	if err != nil {
		return Item{}, fmt.Errorf("create chat completion stream: %w", err)
	}
	defer stream.Close()

	var content strings.Builder
	var calls []openai.ToolCall
	reasoning := false

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Item{}, ctxErr
			}
			return Item{}, fmt.Errorf("receive chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if delta.ReasoningContent != "" {
			if !reasoning {
				reasoning = true
				if err := emit(ReasoningStarted{}); err != nil {
					return Item{}, err
				}
			}
			if err := emit(ReasoningTextChunk{Text: delta.ReasoningContent}); err != nil {
				return Item{}, err
			}
		}
		if reasoning && (delta.Content != "" || len(delta.ToolCalls) > 0) {
			reasoning = false
			if err := emit(ReasoningFinished{}); err != nil {
				return Item{}, err
			}
		}
		if delta.Content != "" {
			content.WriteString(delta.Content)
			if err := emit(OutputTextChunk{Text: delta.Content}); err != nil {
				return Item{}, err
			}
		}
		for _, call := range delta.ToolCalls {
			calls = mergeToolCall(calls, call)
		}
	}
	if reasoning {
		if err := emit(ReasoningFinished{}); err != nil {
			return Item{}, err
		}
	}

	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + uuid.New().String()[:8]
		}
		if calls[i].Type == "" {
			calls[i].Type = openai.ToolTypeFunction
		}
		calls[i].Index = nil
	}
	return Item{
		Role:      openai.ChatMessageRoleAssistant,
		Content:   content.String(),
		ToolCalls: calls,
	}, nil
}

// mergeToolCall folds a streamed tool call fragment into the accumulated
// calls. Fragments are keyed by index; fragments without index extend the
// last call unless they carry a new id.
func mergeToolCall(calls []openai.ToolCall, fragment openai.ToolCall) []openai.ToolCall {
	index := len(calls) - 1
	switch {
	case fragment.Index != nil:
		index = *fragment.Index
	case fragment.ID != "" || index < 0:
		index = len(calls)
	}
	for len(calls) <= index {
		calls = append(calls, openai.ToolCall{})
	}

	call := &calls[index]
	if fragment.ID != "" {
		call.ID = fragment.ID
	}
	if fragment.Type != "" {
		call.Type = fragment.Type
	}
	if fragment.Function.Name != "" {
		call.Function.Name = fragment.Function.Name
	}
	call.Function.Arguments += fragment.Function.Arguments
	return calls
}

// SanitizeHistory drops leading tool results whose originating call was cut
// off by a history limit.
func SanitizeHistory(history []Item) []Item {
	start := 0
	for start < len(history) && history[start].Role == openai.ChatMessageRoleTool {
		start++
	}
	return history[start:]
}

func toolDefinitions(registry *tools.Registry) []openai.Tool {
	specs := registry.Specs()
	if len(specs) == 0 {
		return nil
	}
	definitions := make([]openai.Tool, len(specs))
	for i, spec := range specs {
		definitions[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		}
	}
	return definitions
}

// Complete answers a single prompt without tools or streaming.
func (r *Runtime) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []Item{{Role: openai.ChatMessageRoleUser, Content: prompt}}
	if system != "" {
		messages = append([]Item{{Role: openai.ChatMessageRoleSystem, Content: system}}, messages...)
	}
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
