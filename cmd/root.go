package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Rorical/clanker/internal/app"
)

func newRootCmd() *cobra.Command {
	opts := &app.Options{}

	root := &cobra.Command{
		Use:   "clanker",
		Short: "Interactive terminal coding agent",
		Long: `Clanker is an interactive coding agent. It streams the model's reasoning,
tool calls and answers live while the agent edits files in a workspace folder.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), *opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default $CLANKER_HOME/.clanker/config.yaml)")
	flags.StringVarP(&opts.Workspace, "workspace", "w", "workspace", "workspace folder where the agent works on files")
	flags.StringVarP(&opts.UserPrompt, "user-prompt", "u", "", "initial prompt to run before reading input")

	root.AddCommand(newProfileCmd(opts))
	root.AddCommand(newUseCmd(opts))
	return root
}

func runSession(ctx context.Context, opts app.Options) error {
	application, err := app.NewApplication(opts)
	if err != nil {
		return err
	}
	defer application.Stop()

	return application.Start(ctx)
}

// Execute runs the command line with a context that is cancelled on
// interrupt.
func Execute(ctx context.Context, args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
