package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Rorical/clanker/internal/app"
	"github.com/Rorical/clanker/internal/config"
)

func newUseCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "use [profile-name]",
		Short: "Switch to a profile and start a session",
		Long:  `Switch to the specified profile and immediately start an interactive session.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if err := cfg.SetActiveProfile(args[0]); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			application, err := app.NewApplicationWithConfig(cfg, *opts)
			if err != nil {
				return err
			}
			defer application.Stop()

			return application.Start(cmd.Context())
		},
	}
}
