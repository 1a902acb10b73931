package tools

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
)

// FindFileTool walks a workspace folder looking for entries by name and type
type FindFileTool struct {
	workspace *Workspace
}

type findFileArgs struct {
	StartingFolder  string `json:"starting_folder" jsonschema:"description=Workspace relative folder to start from"`
	FilenamePattern string `json:"filename_pattern" jsonschema:"description=Shell glob matched against the entry name"`
	FileType        string `json:"file_type" jsonschema:"enum=f,enum=d,enum=l,enum=x,description=f for regular file or d for directory or l for symlink or x for executable"`
}

// FoundFile is one matching entry, relative to the starting folder.
type FoundFile struct {
	Path     string `json:"path"`
	FileType string `json:"file_type"`
}

// FindFileResult is the outcome of find_file.
type FindFileResult struct {
	Result
	Files []FoundFile `json:"files"`
}

func (f *FindFileTool) Name() string {
	return "find_file"
}

func (f *FindFileTool) Description() string {
	return "Recursively finds entries below starting_folder whose name matches filename_pattern. file_type selects regular files (f), directories (d), symbolic links (l) or executables (x)."
}

func (f *FindFileTool) Parameters() json.RawMessage {
	return schemaFor[findFileArgs]()
}

func (f *FindFileTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[findFileArgs](raw)
	if err != nil {
		return nil, err
	}
	fail := func(format string, a ...any) (any, error) {
		return FindFileResult{Result: Failed(format, a...), Files: []FoundFile{}}, nil
	}

	switch args.FileType {
	case "f", "d", "l", "x":
	default:
		return fail("invalid file_type %q, expected one of f, d, l, x", args.FileType)
	}
	if _, err := filepath.Match(args.FilenamePattern, ""); err != nil {
		return fail("invalid filename_pattern %q: %v", args.FilenamePattern, err)
	}

	start, err := f.workspace.Resolve(args.StartingFolder)
	if err != nil {
		return fail("%v", err)
	}
	info, err := os.Stat(start)
	if os.IsNotExist(err) {
		return fail("starting folder %s does not exist", args.StartingFolder)
	}
	if err != nil {
		return fail("%v", err)
	}
	if !info.IsDir() {
		return fail("starting folder %s is not a directory", args.StartingFolder)
	}

	files := []FoundFile{}
	err = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped
			if d != nil && d.IsDir() && path != start {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == start {
			return nil
		}
		if ok, _ := filepath.Match(args.FilenamePattern, d.Name()); !ok {
			return nil
		}
		if !matchesFileType(d, args.FileType) {
			return nil
		}
		rel, err := filepath.Rel(start, path)
		if err != nil {
			return nil
		}
		files = append(files, FoundFile{Path: filepath.ToSlash(rel), FileType: args.FileType})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return FindFileResult{Result: Success(), Files: files}, nil
}

func matchesFileType(d fs.DirEntry, fileType string) bool {
	switch fileType {
	case "d":
		return d.IsDir()
	case "l":
		return d.Type()&fs.ModeSymlink != 0
	case "f":
		return d.Type().IsRegular()
	case "x":
		if !d.Type().IsRegular() {
			return false
		}
		info, err := d.Info()
		return err == nil && info.Mode().Perm()&0o111 != 0
	}
	return false
}
