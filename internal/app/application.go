package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"pkt.systems/pslog"

	"github.com/Rorical/clanker/internal/agent"
	"github.com/Rorical/clanker/internal/config"
	"github.com/Rorical/clanker/internal/core"
	"github.com/Rorical/clanker/internal/logx"
	"github.com/Rorical/clanker/internal/tools"
	"github.com/Rorical/clanker/ui/components"
)

// Options are the command line inputs of an interactive session.
type Options struct {
	ConfigPath string
	Workspace  string
	UserPrompt string
}

// Application manages the complete application lifecycle
type Application struct {
	config    *config.Config
	service   *core.ChatService
	log       pslog.Logger
	logCloser io.Closer
	prompt    string
}

// NewApplication loads the configuration and wires the session.
func NewApplication(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return NewApplicationWithConfig(cfg, opts)
}

// NewApplicationWithConfig wires the session for an already loaded
// configuration.
func NewApplicationWithConfig(cfg *config.Config, opts Options) (*Application, error) {
	logger, closer, err := logx.New(cfg.Log.Level, cfg.LogPath())
	if err != nil {
		return nil, err
	}

	workspace, err := tools.NewWorkspace(opts.Workspace)
	if err != nil {
		closer.Close()
		return nil, err
	}

	systemPrompt := cfg.Session.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = agent.DefaultSystemPrompt
	}
	runtime := agent.NewRuntime(agent.NewClient(cfg.GetAPIKey(), cfg.GetBaseURL()), agent.Options{
		Model:         cfg.GetModel(),
		SystemPrompt:  systemPrompt,
		MaxToolRounds: cfg.Session.MaxToolRounds,
	})

	registry := tools.NewRegistry()
	tools.RegisterBuiltinTools(registry, workspace, tools.NewAPICache(), runtime)

	service := core.NewChatService(turnStarter{runtime: runtime}, registry, core.NewInput(os.Stdin, os.Stdout), os.Stdout, core.Options{
		Width:        cfg.Terminal.Width,
		HistoryLimit: cfg.Session.HistoryLimit,
		QuitKeyword:  cfg.Session.QuitKeyword,
		Banner: components.BannerInfo{
			Profile:   cfg.ActiveProfile,
			Model:     cfg.GetModel(),
			Workspace: workspace.Root(),
			Ready:     cfg.IsValid(),
		},
	})

	return &Application{
		config:    cfg,
		service:   service,
		log:       logger,
		logCloser: closer,
		prompt:    opts.UserPrompt,
	}, nil
}

// Start runs the session until quit, end of input or cancellation of ctx.
func (app *Application) Start(ctx context.Context) error {
	ctx = pslog.ContextWithLogger(ctx, app.log)
	log.SetOutput(pslog.LogLogger(app.log).Writer())

	app.log.Info("starting session", "profile", app.config.ActiveProfile, "model", app.config.GetModel(), "config", app.config.Path())
	if err := app.service.Run(ctx, app.prompt); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

// Stop releases the log destination.
func (app *Application) Stop() {
	if err := app.logCloser.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log: %v\n", err)
	}
}

// turnStarter adapts agent.Runtime to core.Runtime.
type turnStarter struct {
	runtime *agent.Runtime
}

func (s turnStarter) Start(ctx context.Context, req agent.Request) core.Turn {
	return s.runtime.Start(ctx, req)
}
