package tools

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"sort"
)

// ListFilesTool lists the entries of a workspace folder
type ListFilesTool struct {
	workspace *Workspace
}

type listFilesArgs struct {
	Path string `json:"path" jsonschema:"description=Workspace relative folder to list"`
}

// ListFilesResult is the outcome of list_files. Folders end with a slash.
type ListFilesResult struct {
	Result
	Files []string `json:"files"`
}

func (d *ListFilesTool) Name() string {
	return "list_files"
}

func (d *ListFilesTool) Description() string {
	return "Lists all the files in the given folder. Folders end with a `/` in the name. Files do not end with a `/`."
}

func (d *ListFilesTool) Parameters() json.RawMessage {
	return schemaFor[listFilesArgs]()
}

func (d *ListFilesTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[listFilesArgs](raw)
	if err != nil {
		return nil, err
	}

	full, err := d.workspace.Resolve(args.Path)
	if err != nil {
		return ListFilesResult{Result: Failed("%v", err), Files: []string{}}, nil
	}
	info, err := os.Stat(full)
	if err != nil || !info.IsDir() {
		return ListFilesResult{Result: Failed("%s does not exist or is not a directory", args.Path), Files: []string{}}, nil
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return ListFilesResult{Result: Failed("unable to list %s: %v", args.Path, err), Files: []string{}}, nil
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := path.Join(args.Path, entry.Name())
		if entry.IsDir() {
			name += "/"
		}
		files = append(files, name)
	}
	sort.Strings(files)

	return ListFilesResult{Result: Success(), Files: files}, nil
}
