package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/Rorical/clanker/ui/components"
)

// ErrInterrupted reports that the user pressed Ctrl+C at the prompt.
var ErrInterrupted = errors.New("interrupted")

// LineReader reads one line of user input. It returns io.EOF when input is
// exhausted and ctx.Err() when ctx is cancelled while waiting.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

// NewInput picks promptui on an interactive terminal and a plain line reader
// otherwise.
func NewInput(in *os.File, out io.Writer) LineReader {
	if term.IsTerminal(int(in.Fd())) {
		return &promptReader{in: in}
	}
	return NewLineReader(in, out)
}

type readResult struct {
	line string
	err  error
}

// promptReader reads lines with promptui. promptui cannot be cancelled, so a
// read continues in the background after ctx is done.
type promptReader struct {
	in io.ReadCloser
}

func (p *promptReader) ReadLine(ctx context.Context) (string, error) {
	prompt := promptui.Prompt{
		Label: components.RenderPrompt(),
		Templates: &promptui.PromptTemplates{
			Prompt:  "{{ . }}",
			Valid:   "{{ . }}",
			Invalid: "{{ . }}",
			Success: "{{ . }}",
		},
		Stdin: p.in,
	}

	done := make(chan readResult, 1)
	go func() {
		line, err := prompt.Run()
		switch {
		case errors.Is(err, promptui.ErrInterrupt):
			err = ErrInterrupted
		case errors.Is(err, promptui.ErrEOF):
			err = io.EOF
		}
		done <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.line, res.err
	}
}

type lineReader struct {
	in    *bufio.Reader
	out   io.Writer
	lines chan readResult
	once  sync.Once
}

// NewLineReader reads newline terminated lines from in, writing the prompt to
// out before each line.
func NewLineReader(in io.Reader, out io.Writer) LineReader {
	return &lineReader{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan readResult),
	}
}

func (r *lineReader) ReadLine(ctx context.Context) (string, error) {
	r.once.Do(func() { go r.readLoop() })
	fmt.Fprint(r.out, components.RenderPrompt())

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
}

func (r *lineReader) readLoop() {
	defer close(r.lines)
	for {
		line, err := r.in.ReadString('\n')
		if line != "" {
			r.lines <- readResult{line: strings.TrimRight(line, "\r\n")}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.lines <- readResult{err: err}
			}
			return
		}
	}
}
