package cmd

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Rorical/clanker/internal/app"
	"github.com/Rorical/clanker/internal/config"
)

func newProfileCmd(opts *app.Options) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage API profiles",
		Long:  `Manage API profiles for different providers and configurations.`,
	}

	profileCmd.AddCommand(newListProfilesCmd(opts))
	profileCmd.AddCommand(newShowProfileCmd(opts))
	profileCmd.AddCommand(newAddProfileCmd(opts))
	profileCmd.AddCommand(newEditProfileCmd(opts))
	profileCmd.AddCommand(newDeleteProfileCmd(opts))
	profileCmd.AddCommand(newSwitchProfileCmd(opts))
	return profileCmd
}

func newListProfilesCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Active Profile: %s\n\n", cfg.ActiveProfile)
			fmt.Fprintln(out, "Available Profiles:")
			for _, name := range cfg.ProfileNames() {
				profile := cfg.Profiles[name]
				marker := ""
				if name == cfg.ActiveProfile {
					marker = " (active)"
				}
				fmt.Fprintf(out, "  %s%s\n", name, marker)
				fmt.Fprintf(out, "    Model: %s\n", profile.Model)
				if profile.BaseURL != "" {
					fmt.Fprintf(out, "    Base URL: %s\n", profile.BaseURL)
				}
				fmt.Fprintf(out, "    API Key: %s\n\n", yesNo(profile.APIKey != ""))
			}
			return nil
		},
	}
}

// profileView is the printable form of a profile; the key itself is never
// shown.
type profileView struct {
	Name    string `yaml:"name"`
	Active  bool   `yaml:"active"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"api_key"`
}

func newShowProfileCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show [profile-name]",
		Short: "Show profile details",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			name := cfg.ActiveProfile
			if len(args) > 0 {
				name = args[0]
			}
			profile, exists := cfg.Profiles[name]
			if !exists {
				return fmt.Errorf("profile '%s' does not exist", name)
			}

			view := profileView{
				Name:    name,
				Active:  name == cfg.ActiveProfile,
				Model:   profile.Model,
				BaseURL: profile.BaseURL,
				APIKey:  "not set",
			}
			if profile.APIKey != "" {
				view.APIKey = "set (hidden)"
			}
			data, err := yaml.Marshal(view)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

type profileFlags struct {
	apiKey  string
	model   string
	baseURL string
}

func (f *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key (prompted when omitted)")
	cmd.Flags().StringVar(&f.model, "model", "", "model name (prompted when omitted)")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "OpenAI compatible base URL (prompted when omitted)")
}

// fill sets every field either from its flag or from an interactive prompt
// seeded with the current value.
func (f *profileFlags) fill(cmd *cobra.Command, profile config.Profile) (config.Profile, error) {
	var err error
	if cmd.Flags().Changed("api-key") {
		profile.APIKey = f.apiKey
	} else if profile.APIKey, err = runPrompt(promptui.Prompt{Label: "API Key", Default: profile.APIKey, Mask: '*'}); err != nil {
		return profile, err
	}
	if cmd.Flags().Changed("model") {
		profile.Model = f.model
	} else if profile.Model, err = runPrompt(promptui.Prompt{Label: "Model", Default: profile.Model}); err != nil {
		return profile, err
	}
	if cmd.Flags().Changed("base-url") {
		profile.BaseURL = f.baseURL
	} else if profile.BaseURL, err = runPrompt(promptui.Prompt{Label: "Base URL (optional)", Default: profile.BaseURL}); err != nil {
		return profile, err
	}
	return profile, nil
}

func newAddProfileCmd(opts *app.Options) *cobra.Command {
	flags := &profileFlags{}
	cmd := &cobra.Command{
		Use:   "add [profile-name]",
		Short: "Add a new profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			var name string
			if len(args) > 0 {
				name = args[0]
			} else if name, err = runPrompt(promptui.Prompt{Label: "Profile name"}); err != nil {
				return err
			}
			if _, exists := cfg.Profiles[name]; exists {
				return fmt.Errorf("profile '%s' already exists", name)
			}

			profile, err := flags.fill(cmd, config.Profile{Model: config.DefaultModel})
			if err != nil {
				return err
			}
			if err := cfg.AddProfile(name, profile); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' added successfully!\n", name)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newEditProfileCmd(opts *app.Options) *cobra.Command {
	flags := &profileFlags{}
	cmd := &cobra.Command{
		Use:   "edit [profile-name]",
		Short: "Edit an existing profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			name, err := profileArg(args, "Select profile to edit", cfg.ProfileNames())
			if err != nil {
				return err
			}
			profile, exists := cfg.Profiles[name]
			if !exists {
				return fmt.Errorf("profile '%s' does not exist", name)
			}

			profile, err = flags.fill(cmd, profile)
			if err != nil {
				return err
			}
			if err := cfg.UpdateProfile(name, profile); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' updated successfully!\n", name)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDeleteProfileCmd(opts *app.Options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete [profile-name]",
		Short: "Delete a profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			name, err := profileArg(args, "Select profile to delete", cfg.ProfileNames())
			if err != nil {
				return err
			}
			if _, exists := cfg.Profiles[name]; !exists {
				return fmt.Errorf("profile '%s' does not exist", name)
			}

			if !yes {
				confirm := promptui.Prompt{
					Label:     fmt.Sprintf("Delete profile '%s'", name),
					IsConfirm: true,
				}
				if _, err := confirm.Run(); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}

			if err := cfg.DeleteProfile(name); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' deleted successfully!\n", name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without confirmation")
	return cmd
}

func newSwitchProfileCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "switch [profile-name]",
		Short: "Switch to a different profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			var others []string
			for _, name := range cfg.ProfileNames() {
				if name != cfg.ActiveProfile {
					others = append(others, name)
				}
			}
			if len(args) == 0 && len(others) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No other profiles available to switch to")
				return nil
			}

			name, err := profileArg(args, "Select profile to switch to", others)
			if err != nil {
				return err
			}
			if err := cfg.SetActiveProfile(name); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile '%s'\n", cfg.ActiveProfile)
			return nil
		},
	}
}

// profileArg returns the profile named on the command line or lets the user
// select one.
func profileArg(args []string, label string, names []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if len(names) == 0 {
		return "", errors.New("no profiles available")
	}
	prompt := promptui.Select{
		Label: label,
		Items: names,
	}
	_, name, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection failed: %w", err)
	}
	return name, nil
}

func runPrompt(prompt promptui.Prompt) (string, error) {
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return value, nil
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
