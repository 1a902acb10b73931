package tools

import (
	"context"
	"encoding/json"
	"os"

	"pkt.systems/pslog"
)

// WriteFileTool creates or replaces a workspace file
type WriteFileTool struct {
	workspace *Workspace
	cache     *APICache
}

type writeFileArgs struct {
	FileName string `json:"file_name" jsonschema:"description=Workspace relative name of the file to write"`
	Content  string `json:"content" jsonschema:"description=Full UTF-8 content of the file"`
}

// WriteFileResult is the outcome of write_file.
type WriteFileResult struct {
	Result
	FileName     string `json:"file_name"`
	BytesWritten int    `json:"bytes_written"`
}

func (f *WriteFileTool) Name() string {
	return "write_file"
}

func (f *WriteFileTool) Description() string {
	return "Writes the content into the file as UTF-8. Characters are written as they are, no escaping is necessary. Use this only to create a new file, otherwise use the `patch_file` tool."
}

func (f *WriteFileTool) Parameters() json.RawMessage {
	return schemaFor[writeFileArgs]()
}

func (f *WriteFileTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[writeFileArgs](raw)
	if err != nil {
		return nil, err
	}

	full, err := f.workspace.Resolve(args.FileName)
	if err != nil {
		return WriteFileResult{Result: Failed("%v", err), FileName: args.FileName}, nil
	}
	if err := ensureDir(full); err != nil {
		return WriteFileResult{Result: Failed("unable to create folders for %s: %v", args.FileName, err), FileName: args.FileName}, nil
	}
	if err := os.WriteFile(full, []byte(args.Content), 0o644); err != nil {
		return WriteFileResult{Result: Failed("unable to write %s: %v", args.FileName, err), FileName: args.FileName}, nil
	}
	f.cache.Invalidate(full)
	pslog.Ctx(ctx).Debug("file written", "file", f.workspace.Rel(full), "bytes", len(args.Content))

	return WriteFileResult{
		Result:       Success(),
		FileName:     args.FileName,
		BytesWritten: len(args.Content),
	}, nil
}
