package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"time"

	"pkt.systems/pslog"
)

const (
	defaultShellTimeout = 120 * time.Second
	maxShellTimeout     = 30 * time.Minute
)

// ShellTool runs a command with `sh -c` inside the workspace folder
type ShellTool struct {
	workspace *Workspace
}

type shellArgs struct {
	Command        string  `json:"command" jsonschema:"description=Shell command line passed to sh -c"`
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty" jsonschema:"description=Timeout in seconds (default 120)"`
}

// ShellResult is the outcome of run_sh_command. Success means return code 0.
type ShellResult struct {
	Result
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"return_code"`
	TimedOut   bool   `json:"timed_out,omitempty"`
}

func (s *ShellTool) Name() string {
	return "run_sh_command"
}

func (s *ShellTool) Description() string {
	return "Runs a shell command in the workspace folder and returns its stdout, stderr and return code."
}

func (s *ShellTool) Parameters() json.RawMessage {
	return schemaFor[shellArgs]()
}

func (s *ShellTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[shellArgs](raw)
	if err != nil {
		return nil, err
	}

	timeout := defaultShellTimeout
	if args.TimeoutSeconds > 0 {
		timeout = min(time.Duration(args.TimeoutSeconds*float64(time.Second)), maxShellTimeout)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, "sh", "-c", args.Command)
	cmd.Dir = s.workspace.Root()
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	pslog.Ctx(ctx).Debug("running shell command", "command", args.Command, "timeout", timeout)
	err = cmd.Run()

	result := ShellResult{
		Result: Success(),
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(timeoutCtx.Err(), context.DeadlineExceeded):
		result.Result = Failed("command timed out after %s", timeout)
		result.ReturnCode = -1
		result.TimedOut = true
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.As(err, &exitErr):
		result.Result = Failed("command exited with status %d", exitErr.ExitCode())
		result.ReturnCode = exitErr.ExitCode()
	default:
		result.Result = Failed("error executing command: %v", err)
		result.ReturnCode = -1
	}
	return result, nil
}
