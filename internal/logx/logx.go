// Package logx builds the process logger and annotates it for sessions.
package logx

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
)

// Stderr is the log file value that routes logs to standard error.
const Stderr = "-"

// Options maps a level name to pslog options. Unknown levels mean info.
func Options(level string, console bool) pslog.Options {
	opts := pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.InfoLevel}
	if console {
		opts.Mode = pslog.ModeConsole
		opts.NoColor = false
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		opts.MinLevel = pslog.TraceLevel
	case "debug":
		opts.MinLevel = pslog.DebugLevel
	case "error":
		opts.MinLevel = pslog.ErrorLevel
	}
	return opts
}

// New opens the log destination. stdout is never used because it carries the
// live render region. The returned closer releases the log file.
func New(level, path string) (pslog.Logger, io.Closer, error) {
	if path == Stderr {
		return pslog.NewWithOptions(os.Stderr, Options(level, true)), io.NopCloser(os.Stderr), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return pslog.NewWithOptions(file, Options(level, false)), file, nil
}

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithSession annotates the logger with a session id when available.
func WithSession(log pslog.Logger, sessionID string) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}

// WithWorkspace annotates the logger with the workspace folder.
func WithWorkspace(log pslog.Logger, workspace string) pslog.Logger {
	if workspace != "" {
		log = log.With("workspace", workspace)
	}
	return log
}

// ContextWithSession attaches a session annotated logger to ctx.
func ContextWithSession(ctx context.Context, sessionID, workspace string) context.Context {
	log := WithWorkspace(WithSession(pslog.Ctx(ctx), sessionID), workspace)
	return pslog.ContextWithLogger(ctx, log)
}
