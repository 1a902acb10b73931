package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"pkt.systems/pslog"
)

// Tool represents a function that can be called by the model
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage // JSON schema for the arguments object
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

// Spec is the provider-neutral description of a registered tool.
type Spec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Registry manages available tools. It is filled once at startup and only
// read afterwards.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry, replacing any tool with the same name.
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// GetTool retrieves a tool by name
func (r *Registry) GetTool(name string) (Tool, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

// ListTools returns all registered tools sorted by name
func (r *Registry) ListTools() []Tool {
	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name() < tools[j].Name()
	})
	return tools
}

// Specs returns the specifications of all registered tools sorted by name.
func (r *Registry) Specs() []Spec {
	tools := r.ListTools()
	specs := make([]Spec, len(tools))
	for i, tool := range tools {
		specs[i] = Spec{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		}
	}
	return specs
}

// Execute runs the named tool with JSON encoded arguments and returns the JSON
// encoded result. Failures never escape as Go errors: unknown tools, bad
// arguments and tool errors are all reported as failed results so the model
// can react to them.
func (r *Registry) Execute(ctx context.Context, name string, args string) string {
	log := pslog.Ctx(ctx).With("tool", name)
	start := time.Now()

	tool, exists := r.GetTool(name)
	if !exists {
		log.Warn("unknown tool requested")
		return encodeResult(Failed("tool '%s' not found", name))
	}

	if args == "" {
		args = "{}"
	}
	result, err := tool.Execute(ctx, json.RawMessage(args))
	if err != nil {
		log.Info("tool failed", "duration", time.Since(start), "err", err)
		return encodeResult(Failed("%v", err))
	}

	success := true
	if outcome, ok := result.(interface{ Succeeded() bool }); ok {
		success = outcome.Succeeded()
	}
	log.Info("tool executed", "duration", time.Since(start), "success", success)
	return encodeResult(result)
}

func encodeResult(result any) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error_message":%q}`, "unable to encode result: "+err.Error())
	}
	return string(data)
}
