// Package render keeps a streamed content region above a one-line status bar
// on a fixed-width terminal.
//
// Every call starts and ends with the cursor at the first column of the status
// line. Content is written by moving up one line, replaying the remembered
// column and continuing from there, so calls never overwrite earlier output.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"pkt.systems/pslog"
)

// ANSI control sequences used by the engine and its callers.
const (
	CursorUp  = "\x1b[1A"
	ClearLine = "\x1b[2K"
	Dim       = "\x1b[2m"
	Reset     = "\x1b[0m"
)

// DefaultWidth is the terminal column count used when none is configured.
const DefaultWidth = 120

const tabStop = 8

// Engine is the stateful compositor. It is not safe for concurrent use: a
// single owner issues every Print and SetStatus call in sequence.
type Engine struct {
	out    io.Writer
	width  int
	column int
	wraps  int
	status string
	log    pslog.Logger
}

// NewEngine creates an engine writing to out. Widths below 2 fall back to
// DefaultWidth. log may be nil.
func NewEngine(out io.Writer, width int, log pslog.Logger) *Engine {
	if width < 2 {
		width = DefaultWidth
	}
	return &Engine{
		out:   out,
		width: width,
		log:   log,
	}
}

// Width returns the configured column count.
func (e *Engine) Width() int {
	return e.width
}

// Column returns the cursor column of the content line above the status line.
func (e *Engine) Column() int {
	return e.column
}

// Wraps returns how many forced line breaks the engine has inserted.
func (e *Engine) Wraps() int {
	return e.wraps
}

// Status returns the current status text.
func (e *Engine) Status() string {
	return e.status
}

// SetStatus replaces and immediately redraws the status line. The content
// region is not touched.
func (e *Engine) SetStatus(status string) {
	e.status = status
	var b strings.Builder
	e.writeStatus(&b)
	e.write(b.String())
}

// Print appends text to the content region.
func (e *Engine) Print(text string) {
	e.PrintWith(text, "", "")
}

// PrintWith appends text to the content region wrapped in the raw control
// sequences prefix and suffix, which do not count against the column budget.
// A newline in text starts a fresh cleared line. A character that would reach
// the last terminal column is moved to a fresh line first.
func (e *Engine) PrintWith(text, prefix, suffix string) {
	var b strings.Builder
	b.WriteString(CursorUp)
	if e.column > 0 {
		fmt.Fprintf(&b, "\x1b[%dC", e.column)
	}
	b.WriteString(prefix)
	for _, r := range text {
		switch r {
		case '\n':
			b.WriteString("\n" + ClearLine)
			e.column = 0
			continue
		case '\r':
			continue
		case '\t':
			n := tabStop - e.column%tabStop
			for i := 0; i < n; i++ {
				e.put(&b, ' ', 1)
			}
			continue
		}
		w := runewidth.RuneWidth(r)
		if w == 0 && r < 0x20 {
			continue
		}
		e.put(&b, r, w)
	}
	b.WriteString(suffix)
	b.WriteString("\n")
	e.writeStatus(&b)
	e.write(b.String())
}

func (e *Engine) put(b *strings.Builder, r rune, w int) {
	if w > 0 && e.column+w >= e.width {
		b.WriteString("\n" + ClearLine)
		e.column = 0
		e.wraps++
	}
	b.WriteRune(r)
	e.column += w
}

// writeStatus draws the status line padded to width-1 columns after a one
// column margin and returns the cursor to the start of the line.
func (e *Engine) writeStatus(b *strings.Builder) {
	visible := e.width - 1
	text := runewidth.Truncate(e.status, visible, "")
	b.WriteString(" ")
	b.WriteString(runewidth.FillRight(text, visible))
	b.WriteString("\r")
}

func (e *Engine) write(s string) {
	if _, err := io.WriteString(e.out, s); err != nil && e.log != nil {
		e.log.Debug("render write failed", "bytes", len(s), "err", err)
	}
}
