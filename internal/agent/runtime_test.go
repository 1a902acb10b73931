package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Rorical/clanker/internal/tools"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedServer struct {
	t        *testing.T
	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
	rounds   [][]openai.ChatCompletionStreamResponse
	repeat   bool
}

func (s *scriptedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	index := len(s.requests)
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if !req.Stream {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "func Add(a, b int) int"},
			}},
		})
		return
	}

	if s.repeat {
		index = 0
	}
	if index >= len(s.rounds) {
		http.Error(w, `{"error":{"message":"no more rounds"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	for _, chunk := range s.rounds[index] {
		data, err := json.Marshal(chunk)
		require.NoError(s.t, err)
		fmt.Fprintf(w, "data: %s\n\n", data)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func (s *scriptedServer) Requests() []openai.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]openai.ChatCompletionRequest(nil), s.requests...)
}

func newScriptedRuntime(t *testing.T, script *scriptedServer, opts Options) *Runtime {
	t.Helper()
	script.t = t
	srv := httptest.NewServer(script)
	t.Cleanup(srv.Close)
	return NewRuntime(NewClient("test-key", srv.URL+"/v1"), opts)
}

func delta(d openai.ChatCompletionStreamChoiceDelta) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		Object:  "chat.completion.chunk",
		Choices: []openai.ChatCompletionStreamChoice{{Delta: d}},
	}
}

func toolFragment(index int, id, name, args string) openai.ChatCompletionStreamResponse {
	return delta(openai.ChatCompletionStreamChoiceDelta{
		ToolCalls: []openai.ToolCall{{
			Index:    &index,
			ID:       id,
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: name, Arguments: args},
		}},
	})
}

func drain(t *testing.T, stream Stream) ([]Event, error) {
	t.Helper()
	var events []Event
	for {
		event, err := stream.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

type echoTool struct {
	calls []string
}

func (e *echoTool) Name() string                { return "echo" }
func (e *echoTool) Description() string         { return "Echoes its text argument" }
func (e *echoTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

func (e *echoTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	e.calls = append(e.calls, args.Text)
	return map[string]any{"success": true, "echo": args.Text}, nil
}

func TestTurnStreamsReasoningThenText(t *testing.T) {
	script := &scriptedServer{rounds: [][]openai.ChatCompletionStreamResponse{{
		delta(openai.ChatCompletionStreamChoiceDelta{Role: openai.ChatMessageRoleAssistant}),
		delta(openai.ChatCompletionStreamChoiceDelta{ReasoningContent: "think"}),
		delta(openai.ChatCompletionStreamChoiceDelta{Content: "Hel"}),
		delta(openai.ChatCompletionStreamChoiceDelta{Content: "lo"}),
	}}}
	runtime := newScriptedRuntime(t, script, Options{Model: "test-model", SystemPrompt: "be brief"})

	turn := runtime.Start(context.Background(), Request{Prompt: "hi"})
	events, err := drain(t, turn)
	require.NoError(t, err)

	assert.Equal(t, []Event{
		ReasoningStarted{},
		ReasoningTextChunk{Text: "think"},
		ReasoningFinished{},
		OutputTextChunk{Text: "Hel"},
		OutputTextChunk{Text: "lo"},
		Other{Kind: "round.completed"},
	}, events)

	items := turn.Items()
	require.Len(t, items, 2)
	assert.Equal(t, Item{Role: openai.ChatMessageRoleUser, Content: "hi"}, items[0])
	assert.Equal(t, openai.ChatMessageRoleAssistant, items[1].Role)
	assert.Equal(t, "Hello", items[1].Content)

	requests := script.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "test-model", requests[0].Model)
	require.Len(t, requests[0].Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, requests[0].Messages[0].Role)
	assert.Equal(t, "be brief", requests[0].Messages[0].Content)
	assert.Empty(t, requests[0].Tools)
}

func TestTurnExecutesToolCalls(t *testing.T) {
	script := &scriptedServer{rounds: [][]openai.ChatCompletionStreamResponse{
		{
			toolFragment(0, "call_1", "echo", `{"te`),
			toolFragment(0, "", "", `xt":"ping"}`),
		},
		{
			delta(openai.ChatCompletionStreamChoiceDelta{Content: "done"}),
		},
	}}
	runtime := newScriptedRuntime(t, script, Options{Model: "test-model"})
	echo := &echoTool{}
	registry := tools.NewRegistry()
	registry.Register(echo)

	history := []Item{
		{Role: openai.ChatMessageRoleUser, Content: "earlier"},
		{Role: openai.ChatMessageRoleAssistant, Content: "sure"},
	}
	turn := runtime.Start(context.Background(), Request{Prompt: "ping it", History: history, Tools: registry})
	events, err := drain(t, turn)
	require.NoError(t, err)

	assert.Equal(t, []Event{
		Other{Kind: "round.completed"},
		ToolCallStarted{Name: "echo"},
		ToolCallFinished{Name: "echo"},
		OutputTextChunk{Text: "done"},
		Other{Kind: "round.completed"},
	}, events)
	assert.Equal(t, []string{"ping"}, echo.calls)

	items := turn.Items()
	require.Len(t, items, 4)
	assert.Equal(t, "ping it", items[0].Content)
	require.Len(t, items[1].ToolCalls, 1)
	assert.Equal(t, "call_1", items[1].ToolCalls[0].ID)
	assert.Equal(t, `{"text":"ping"}`, items[1].ToolCalls[0].Function.Arguments)
	assert.Equal(t, openai.ChatMessageRoleTool, items[2].Role)
	assert.Equal(t, "call_1", items[2].ToolCallID)
	assert.JSONEq(t, `{"success":true,"echo":"ping"}`, items[2].Content)
	assert.Equal(t, "done", items[3].Content)

	requests := script.Requests()
	require.Len(t, requests, 2)
	require.Len(t, requests[0].Tools, 1)
	assert.Equal(t, "echo", requests[0].Tools[0].Function.Name)
	assert.Len(t, requests[0].Messages, 3)
	second := requests[1].Messages
	require.Len(t, second, 5)
	assert.Equal(t, openai.ChatMessageRoleTool, second[4].Role)
	assert.Equal(t, "call_1", second[4].ToolCallID)
}

func TestTurnUnknownToolIsReportedToModel(t *testing.T) {
	script := &scriptedServer{rounds: [][]openai.ChatCompletionStreamResponse{
		{toolFragment(0, "call_9", "rm_rf", `{}`)},
		{delta(openai.ChatCompletionStreamChoiceDelta{Content: "sorry"})},
	}}
	runtime := newScriptedRuntime(t, script, Options{})

	turn := runtime.Start(context.Background(), Request{Prompt: "go", Tools: tools.NewRegistry()})
	_, err := drain(t, turn)
	require.NoError(t, err)

	items := turn.Items()
	require.Len(t, items, 4)
	assert.JSONEq(t, `{"success":false,"error_message":"tool 'rm_rf' not found"}`, items[2].Content)
}

func TestTurnToolRoundLimit(t *testing.T) {
	script := &scriptedServer{
		repeat: true,
		rounds: [][]openai.ChatCompletionStreamResponse{
			{toolFragment(0, "", "echo", `{"text":"again"}`)},
		},
	}
	runtime := newScriptedRuntime(t, script, Options{MaxToolRounds: 2})
	echo := &echoTool{}
	registry := tools.NewRegistry()
	registry.Register(echo)

	turn := runtime.Start(context.Background(), Request{Prompt: "loop", Tools: registry})
	_, err := drain(t, turn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 tool rounds")
	assert.Len(t, echo.calls, 2)
	assert.Len(t, script.Requests(), 3)
	assert.Nil(t, turn.Items())
}

func TestTurnTransportError(t *testing.T) {
	runtime := newScriptedRuntime(t, &scriptedServer{}, Options{})

	turn := runtime.Start(context.Background(), Request{Prompt: "hi"})
	events, err := drain(t, turn)
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
	assert.Empty(t, events)
	assert.Nil(t, turn.Items())

	_, err = turn.Next(context.Background())
	assert.Error(t, err)
}

func TestTurnNextHonoursContext(t *testing.T) {
	turn := &Turn{events: make(chan Event)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := turn.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeHistory(t *testing.T) {
	history := []Item{
		{Role: openai.ChatMessageRoleTool, Content: "orphan", ToolCallID: "call_1"},
		{Role: openai.ChatMessageRoleTool, Content: "orphan", ToolCallID: "call_2"},
		{Role: openai.ChatMessageRoleUser, Content: "q"},
		{Role: openai.ChatMessageRoleTool, Content: "kept", ToolCallID: "call_3"},
	}

	sanitized := SanitizeHistory(history)
	require.Len(t, sanitized, 2)
	assert.Equal(t, "q", sanitized[0].Content)
	assert.Equal(t, "kept", sanitized[1].Content)
	assert.Empty(t, SanitizeHistory(nil))
}

func TestMergeToolCallWithoutIndex(t *testing.T) {
	var calls []openai.ToolCall
	calls = mergeToolCall(calls, openai.ToolCall{ID: "a", Function: openai.FunctionCall{Name: "one", Arguments: "{"}})
	calls = mergeToolCall(calls, openai.ToolCall{Function: openai.FunctionCall{Arguments: "}"}})
	calls = mergeToolCall(calls, openai.ToolCall{ID: "b", Function: openai.FunctionCall{Name: "two"}})

	require.Len(t, calls, 2)
	assert.Equal(t, "one", calls[0].Function.Name)
	assert.Equal(t, "{}", calls[0].Function.Arguments)
	assert.Equal(t, "b", calls[1].ID)
}

func TestMissingToolCallIDIsGenerated(t *testing.T) {
	script := &scriptedServer{rounds: [][]openai.ChatCompletionStreamResponse{
		{toolFragment(0, "", "echo", `{"text":"x"}`)},
		{delta(openai.ChatCompletionStreamChoiceDelta{Content: "ok"})},
	}}
	runtime := newScriptedRuntime(t, script, Options{})
	registry := tools.NewRegistry()
	registry.Register(&echoTool{})

	turn := runtime.Start(context.Background(), Request{Prompt: "x", Tools: registry})
	_, err := drain(t, turn)
	require.NoError(t, err)

	items := turn.Items()
	id := items[1].ToolCalls[0].ID
	assert.Regexp(t, `^call_[0-9a-f-]{8}$`, id)
	assert.Equal(t, id, items[2].ToolCallID)
}

func TestComplete(t *testing.T) {
	script := &scriptedServer{}
	runtime := newScriptedRuntime(t, script, Options{Model: "m"})

	var completer tools.Completer = runtime
	answer, err := completer.Complete(context.Background(), "extract", "package x")
	require.NoError(t, err)
	assert.Equal(t, "func Add(a, b int) int", answer)

	requests := script.Requests()
	require.Len(t, requests, 1)
	assert.False(t, requests[0].Stream)
	require.Len(t, requests[0].Messages, 2)
	assert.Equal(t, "extract", requests[0].Messages[0].Content)
	assert.Equal(t, "package x", requests[0].Messages[1].Content)
}
