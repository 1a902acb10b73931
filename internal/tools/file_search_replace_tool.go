package tools

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"pkt.systems/pslog"
)

// PatchFileTool replaces the first occurrence of a text in a workspace file
type PatchFileTool struct {
	workspace *Workspace
	cache     *APICache
}

type patchFileArgs struct {
	FileName    string `json:"file_name" jsonschema:"description=Workspace relative name of the file to patch"`
	SearchText  string `json:"search_text" jsonschema:"description=Exact text to search for"`
	ReplaceText string `json:"replace_text" jsonschema:"description=Text that replaces the first occurrence of search_text"`
}

// PatchFileResult is the outcome of patch_file.
type PatchFileResult struct {
	Result
	FileName string `json:"file_name"`
}

func (f *PatchFileTool) Name() string {
	return "patch_file"
}

func (f *PatchFileTool) Description() string {
	return "Patches a file by replacing the first occurrence of search_text with replace_text."
}

func (f *PatchFileTool) Parameters() json.RawMessage {
	return schemaFor[patchFileArgs]()
}

func (f *PatchFileTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[patchFileArgs](raw)
	if err != nil {
		return nil, err
	}
	if args.SearchText == "" {
		return PatchFileResult{Result: Failed("search_text must not be empty"), FileName: args.FileName}, nil
	}

	content, err := readWorkspaceFile(f.workspace, args.FileName)
	if err != nil {
		return PatchFileResult{Result: Failed("unable to patch %s: %v", args.FileName, err), FileName: args.FileName}, nil
	}
	if !strings.Contains(content, args.SearchText) {
		return PatchFileResult{Result: Failed("searched text not found in %s", args.FileName), FileName: args.FileName}, nil
	}

	full, err := f.workspace.Resolve(args.FileName)
	if err != nil {
		return PatchFileResult{Result: Failed("%v", err), FileName: args.FileName}, nil
	}
	patched := strings.Replace(content, args.SearchText, args.ReplaceText, 1)
	if err := os.WriteFile(full, []byte(patched), 0o644); err != nil {
		return PatchFileResult{Result: Failed("unable to patch %s: %v", args.FileName, err), FileName: args.FileName}, nil
	}
	f.cache.Invalidate(full)
	pslog.Ctx(ctx).Debug("file patched", "file", f.workspace.Rel(full))

	return PatchFileResult{Result: Success(), FileName: args.FileName}, nil
}
