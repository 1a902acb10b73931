package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pkt.systems/pslog"

	"github.com/Rorical/clanker/internal/agent"
	"github.com/Rorical/clanker/internal/classifier"
	"github.com/Rorical/clanker/internal/logx"
	"github.com/Rorical/clanker/internal/tools"
	"github.com/Rorical/clanker/internal/transcript"
	"github.com/Rorical/clanker/ui/components"
	"github.com/Rorical/clanker/ui/render"
)

// Turn is a running runtime invocation as seen by the session.
type Turn interface {
	agent.Stream
	Items() []agent.Item
}

// Runtime starts agent turns.
type Runtime interface {
	Start(ctx context.Context, req agent.Request) Turn
}

// Options configures a ChatService.
type Options struct {
	Width        int
	HistoryLimit int
	QuitKeyword  string
	Banner       components.BannerInfo
}

// ChatService is the interactive session loop. It exclusively owns the
// transcript and the render engine of the turn in progress.
type ChatService struct {
	runtime    Runtime
	registry   *tools.Registry
	input      LineReader
	out        io.Writer
	transcript *transcript.Store[agent.Item]
	opts       Options
}

// NewChatService creates a session with an empty transcript.
func NewChatService(runtime Runtime, registry *tools.Registry, input LineReader, out io.Writer, opts Options) *ChatService {
	if opts.QuitKeyword == "" {
		opts.QuitKeyword = "quit"
	}
	return &ChatService{
		runtime:    runtime,
		registry:   registry,
		input:      input,
		out:        out,
		transcript: transcript.NewStore[agent.Item](),
		opts:       opts,
	}
}

// Transcript returns the session transcript.
func (cs *ChatService) Transcript() *transcript.Store[agent.Item] {
	return cs.transcript
}

// Run reads prompts and runs them until the quit keyword, end of input or
// cancellation of ctx. initialPrompt, when set, is run before reading input.
// Runtime failures are reported and the loop continues.
func (cs *ChatService) Run(ctx context.Context, initialPrompt string) error {
	ctx = logx.ContextWithSession(ctx, cs.transcript.SessionID(), cs.opts.Banner.Workspace)
	log := pslog.Ctx(ctx)
	log.Info("session started")
	defer func() {
		log.Info("session ended", "items", cs.transcript.Len())
	}()

	banner := cs.opts.Banner
	banner.SessionID = cs.transcript.SessionID()
	banner.QuitKeyword = cs.opts.QuitKeyword
	width := cs.opts.Width
	if width < 2 {
		width = render.DefaultWidth
	}
	fmt.Fprintln(cs.out, components.RenderBanner(banner, width))

	prompt := strings.TrimSpace(initialPrompt)
	if prompt != "" {
		fmt.Fprintln(cs.out, components.RenderPrompt()+prompt)
	}

	for {
		if prompt == "" {
			line, err := cs.input.ReadLine(ctx)
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, ErrInterrupted), ctx.Err() != nil:
				cs.farewell()
				return nil
			case err != nil:
				return fmt.Errorf("read input: %w", err)
			}
			prompt = strings.TrimSpace(line)
			if prompt == "" {
				continue
			}
		}

		if strings.EqualFold(prompt, cs.opts.QuitKeyword) {
			cs.farewell()
			return nil
		}

		if err := cs.runTurn(ctx, prompt); err != nil && ctx.Err() != nil {
			cs.farewell()
			return nil
		}
		prompt = ""
	}
}

// runTurn runs one prompt through the runtime and renders its events. The
// transcript is only extended when the turn completes.
func (cs *ChatService) runTurn(ctx context.Context, prompt string) error {
	log := pslog.Ctx(ctx)
	engine := render.NewEngine(cs.out, cs.opts.Width, log)
	events := classifier.New(engine)

	history := cs.transcript.GetItems(cs.opts.HistoryLimit)
	log.Info("runtime invoked", "history", len(history))
	turn := cs.runtime.Start(ctx, agent.Request{
		Prompt:  prompt,
		History: history,
		Tools:   cs.registry,
	})

	var answer strings.Builder
	for text, err := range events.Run(ctx, turn) {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("turn failed", "err", err)
			engine.SetStatus("")
			fmt.Fprintln(cs.out, components.RenderError(err))
			return err
		}
		answer.WriteString(text)
	}

	items := turn.Items()
	cs.transcript.AddItems(items...)
	log.Debug("turn completed", "items", len(items), "answer", answer.String())
	return nil
}

func (cs *ChatService) farewell() {
	fmt.Fprintln(cs.out, "\n"+components.RenderFarewell())
}
