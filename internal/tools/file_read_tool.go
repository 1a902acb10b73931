package tools

import (
	"context"
	"encoding/json"
	"os"
)

// ReadFileTool returns the full content of a workspace file
type ReadFileTool struct {
	workspace *Workspace
}

type readFileArgs struct {
	FileName string `json:"file_name" jsonschema:"description=Workspace relative name of the file to read"`
}

// ReadFileResult is the outcome of read_file.
type ReadFileResult struct {
	Result
	Content string `json:"content"`
}

func (f *ReadFileTool) Name() string {
	return "read_file"
}

func (f *ReadFileTool) Description() string {
	return "Reads the full content of the file. Use only when needed, files can be large. If all you need are API signatures, use the `read_api` tool."
}

func (f *ReadFileTool) Parameters() json.RawMessage {
	return schemaFor[readFileArgs]()
}

func (f *ReadFileTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[readFileArgs](raw)
	if err != nil {
		return nil, err
	}
	content, err := readWorkspaceFile(f.workspace, args.FileName)
	if err != nil {
		return ReadFileResult{Result: Failed("%v", err)}, nil
	}
	return ReadFileResult{Result: Success(), Content: content}, nil
}

func readWorkspaceFile(ws *Workspace, name string) (string, error) {
	full, err := ws.Resolve(name)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return "", &fileError{name: name, reason: "does not exist"}
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", &fileError{name: name, reason: "is a directory"}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type fileError struct {
	name   string
	reason string
}

func (e *fileError) Error() string {
	return e.name + " " + e.reason
}
