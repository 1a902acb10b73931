package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	calls   int
	answer  string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

func newTestRegistry(t *testing.T) (*Registry, *Workspace, *APICache, *fakeCompleter) {
	t.Helper()
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)
	cache := NewAPICache()
	completer := &fakeCompleter{answer: "func Add(a, b int) int"}
	registry := NewRegistry()
	RegisterBuiltinTools(registry, ws, cache, completer)
	return registry, ws, cache, completer
}

func execute[T any](t *testing.T, registry *Registry, name string, args any) T {
	t.Helper()
	data, err := json.Marshal(args)
	require.NoError(t, err)
	raw := registry.Execute(context.Background(), name, string(data))
	var result T
	require.NoError(t, json.Unmarshal([]byte(raw), &result), raw)
	return result
}

func writeFile(t *testing.T, ws *Workspace, name, content string) {
	t.Helper()
	full := filepath.Join(ws.Root(), filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestRegistryListsToolsSorted(t *testing.T) {
	registry, _, _, _ := newTestRegistry(t)

	var names []string
	for _, tool := range registry.ListTools() {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{
		"current_time", "find_file", "git_grep", "grep", "list_files", "patch_file",
		"read_api", "read_file", "run_sh_command", "sleep", "write_file",
	}, names)
}

func TestRegistryWithoutCompleterSkipsReadAPI(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)
	registry := NewRegistry()
	RegisterBuiltinTools(registry, ws, NewAPICache(), nil)

	_, ok := registry.GetTool("read_api")
	assert.False(t, ok)
	_, ok = registry.GetTool("read_file")
	assert.True(t, ok)
}

func TestSpecsCarryRequiredParameters(t *testing.T) {
	registry, _, _, _ := newTestRegistry(t)

	for _, spec := range registry.Specs() {
		var schema struct {
			Type       string                     `json:"type"`
			Properties map[string]json.RawMessage `json:"properties"`
			Required   []string                   `json:"required"`
		}
		require.NoError(t, json.Unmarshal(spec.Parameters, &schema), spec.Name)
		assert.Equal(t, "object", schema.Type, spec.Name)
		assert.NotEmpty(t, spec.Description, spec.Name)
		if spec.Name == "patch_file" {
			assert.ElementsMatch(t, []string{"file_name", "search_text", "replace_text"}, schema.Required)
		}
		if spec.Name == "run_sh_command" {
			assert.Equal(t, []string{"command"}, schema.Required)
			assert.Contains(t, schema.Properties, "timeout_seconds")
		}
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	registry, _, _, _ := newTestRegistry(t)

	result := execute[Result](t, registry, "format_disk", map[string]any{})
	assert.False(t, result.Success)
	assert.Equal(t, "tool 'format_disk' not found", result.ErrorMessage)
}

func TestExecuteInvalidArguments(t *testing.T) {
	registry, _, _, _ := newTestRegistry(t)

	raw := registry.Execute(context.Background(), "read_file", `{"file_name": 42}`)
	var result Result
	require.NoError(t, json.Unmarshal([]byte(raw), &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "invalid arguments")
}

func TestWorkspaceResolve(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)

	full, err := ws.Resolve("/src/main.go")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws.Root(), "src", "main.go"), full)
	assert.Equal(t, "src/main.go", ws.Rel(full))

	root, err := ws.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, ws.Root(), root)

	_, err = ws.Resolve("../etc/passwd")
	assert.Error(t, err)
	_, err = ws.Resolve("a/../../b")
	assert.Error(t, err)
}

func TestNewWorkspaceCreatesFolder(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "workspace")

	ws, err := NewWorkspace(root)
	require.NoError(t, err)
	info, err := os.Stat(ws.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
