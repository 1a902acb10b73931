package tools

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// SleepTool pauses the agent for a number of seconds
type SleepTool struct{}

type sleepArgs struct {
	Seconds float64 `json:"seconds" jsonschema:"description=Number of seconds to sleep"`
}

// SleepResult is the outcome of sleep.
type SleepResult struct {
	Result
	Slept float64 `json:"slept"`
}

func (s *SleepTool) Name() string {
	return "sleep"
}

func (s *SleepTool) Description() string {
	return "Sleeps for the given number of seconds. Useful to wait for a background process."
}

func (s *SleepTool) Parameters() json.RawMessage {
	return schemaFor[sleepArgs]()
}

func (s *SleepTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[sleepArgs](raw)
	if err != nil {
		return nil, err
	}
	if args.Seconds < 0 {
		return SleepResult{Result: Failed("seconds must not be negative")}, nil
	}

	timer := time.NewTimer(time.Duration(args.Seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return SleepResult{Result: Success(), Slept: args.Seconds}, nil
}

// CurrentTimeTool returns the current time
type CurrentTimeTool struct {
	now func() time.Time
}

type currentTimeArgs struct {
	Format string `json:"format,omitempty" jsonschema:"description=One of iso (default) or human or date or time or unix"`
}

// CurrentTimeResult is the outcome of current_time.
type CurrentTimeResult struct {
	Result
	Time string `json:"time"`
}

func (c *CurrentTimeTool) Name() string {
	return "current_time"
}

func (c *CurrentTimeTool) Description() string {
	return "Get the current date and time"
}

func (c *CurrentTimeTool) Parameters() json.RawMessage {
	return schemaFor[currentTimeArgs]()
}

func (c *CurrentTimeTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[currentTimeArgs](raw)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if c.now != nil {
		now = c.now()
	}

	var formatted string
	switch args.Format {
	case "iso", "":
		formatted = now.Format(time.RFC3339)
	case "human":
		formatted = now.Format("January 2, 2006 at 3:04 PM MST")
	case "date":
		formatted = now.Format(time.DateOnly)
	case "time":
		formatted = now.Format(time.TimeOnly)
	case "unix":
		formatted = strconv.FormatInt(now.Unix(), 10)
	default:
		return CurrentTimeResult{Result: Failed("unknown time format %q", args.Format)}, nil
	}
	return CurrentTimeResult{Result: Success(), Time: formatted}, nil
}
