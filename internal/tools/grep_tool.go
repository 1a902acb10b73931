package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

const maxGrepMatches = 500

// GrepMatch is one matching line.
type GrepMatch struct {
	FileName   string `json:"file_name"`
	LineNumber int    `json:"line_number"`
	LineText   string `json:"line_text"`
}

// GrepResult is the outcome of grep and git_grep.
type GrepResult struct {
	Result
	Matches   []GrepMatch `json:"matches"`
	Truncated bool        `json:"truncated,omitempty"`
}

type grepArgs struct {
	SearchText string `json:"search_text" jsonschema:"description=Text or pattern to search for"`
	IsRegex    bool   `json:"is_regex,omitempty" jsonschema:"description=Treat search_text as an extended regular expression"`
}

// GrepTool searches the workspace recursively with grep
type GrepTool struct {
	workspace *Workspace
}

func (g *GrepTool) Name() string {
	return "grep"
}

func (g *GrepTool) Description() string {
	return "Searches all files in the workspace recursively for search_text and returns file name, line number and line text of every match."
}

func (g *GrepTool) Parameters() json.RawMessage {
	return schemaFor[grepArgs]()
}

func (g *GrepTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[grepArgs](raw)
	if err != nil {
		return nil, err
	}
	mode := "-F"
	if args.IsRegex {
		mode = "-E"
	}
	return runGrep(ctx, g.workspace.Root(), "grep", "-r", "-n", "-H", mode, "--", args.SearchText, ".")
}

// GitGrepTool searches the tracked files of the workspace repository
type GitGrepTool struct {
	workspace *Workspace
}

func (g *GitGrepTool) Name() string {
	return "git_grep"
}

func (g *GitGrepTool) Description() string {
	return "Searches the files tracked by git in the workspace for search_text. Fails when the workspace is not a git repository."
}

func (g *GitGrepTool) Parameters() json.RawMessage {
	return schemaFor[grepArgs]()
}

func (g *GitGrepTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[grepArgs](raw)
	if err != nil {
		return nil, err
	}

	check := exec.CommandContext(ctx, "git", "rev-parse", "--git-dir")
	check.Dir = g.workspace.Root()
	if err := check.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return GrepResult{Result: Failed("not in a git repository"), Matches: []GrepMatch{}}, nil
	}

	mode := "-F"
	if args.IsRegex {
		mode = "-E"
	}
	return runGrep(ctx, g.workspace.Root(), "git", "grep", "-n", "-H", "--no-color", mode, "-e", args.SearchText)
}

// runGrep runs a grep style command and parses its file:line:text output.
// Exit status 1 means no match.
func runGrep(ctx context.Context, dir string, name string, arg ...string) (any, error) {
	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			return GrepResult{Result: Failed("%s failed: %s", name, msg), Matches: []GrepMatch{}}, nil
		}
	}

	matches, truncated := parseGrepOutput(stdout.String(), maxGrepMatches)
	return GrepResult{Result: Success(), Matches: matches, Truncated: truncated}, nil
}

func parseGrepOutput(output string, limit int) ([]GrepMatch, bool) {
	matches := []GrepMatch{}
	for line := range strings.Lines(output) {
		line = strings.TrimRight(line, "\r\n")
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		number, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		if len(matches) == limit {
			return matches, true
		}
		matches = append(matches, GrepMatch{
			FileName:   strings.TrimPrefix(parts[0], "./"),
			LineNumber: number,
			LineText:   parts[2],
		})
	}
	return matches, false
}
