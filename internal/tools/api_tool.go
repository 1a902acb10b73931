package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"pkt.systems/pslog"
)

// Completer answers a single prompt with one model completion.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// APICache remembers extracted API summaries by absolute file path. It is
// owned by one session and used from one goroutine at a time.
type APICache struct {
	entries map[string]string
}

// NewAPICache creates an empty cache.
func NewAPICache() *APICache {
	return &APICache{entries: make(map[string]string)}
}

// Get returns the cached summary for path.
func (c *APICache) Get(path string) (string, bool) {
	api, ok := c.entries[path]
	return api, ok
}

// Put stores the summary for path.
func (c *APICache) Put(path, api string) {
	c.entries[path] = api
}

// Invalidate drops the summary for path. Writers call it after changing a file.
func (c *APICache) Invalidate(path string) {
	delete(c.entries, path)
}

// Len returns the number of cached summaries.
func (c *APICache) Len() int {
	return len(c.entries)
}

const apiExtractorPrompt = `You extract the public API of a source file.
List every exported type, function, method and constant with its full signature and a one line description.
Answer with the API only, no introduction and no code that is not part of a signature.`

// ReadAPITool summarizes the API of a file with a model call and caches it
type ReadAPITool struct {
	workspace *Workspace
	cache     *APICache
	completer Completer
}

type readAPIArgs struct {
	FileName string `json:"file_name" jsonschema:"description=Workspace relative name of the source file"`
}

// ReadAPIResult is the outcome of read_api.
type ReadAPIResult struct {
	Result
	API    string `json:"api"`
	Cached bool   `json:"cached,omitempty"`
}

func (r *ReadAPITool) Name() string {
	return "read_api"
}

func (r *ReadAPITool) Description() string {
	return "Returns the API signatures of a source file. Much cheaper than `read_file` when the implementation is not needed."
}

func (r *ReadAPITool) Parameters() json.RawMessage {
	return schemaFor[readAPIArgs]()
}

func (r *ReadAPITool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[readAPIArgs](raw)
	if err != nil {
		return nil, err
	}

	full, err := r.workspace.Resolve(args.FileName)
	if err != nil {
		return ReadAPIResult{Result: Failed("%v", err)}, nil
	}
	if api, ok := r.cache.Get(full); ok {
		pslog.Ctx(ctx).Debug("api cache hit", "file", args.FileName)
		return ReadAPIResult{Result: Success(), API: api, Cached: true}, nil
	}

	content, err := readWorkspaceFile(r.workspace, args.FileName)
	if err != nil {
		return ReadAPIResult{Result: Failed("%v", err)}, nil
	}
	api, err := r.completer.Complete(ctx, apiExtractorPrompt, fmt.Sprintf("File: %s\n\n%s", args.FileName, content))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return ReadAPIResult{Result: Failed("unable to extract the API of %s: %v", args.FileName, err)}, nil
	}
	r.cache.Put(full, api)

	return ReadAPIResult{Result: Success(), API: api}, nil
}
