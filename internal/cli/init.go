package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/repowatch/internal/credential"
	"github.com/nhle/repowatch/internal/model"
)

// NewInitCommand creates the init command, an interactive first-time setup
// that writes the config file and optionally stores the webhook in the
// keyring.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively create the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, rootOpts)
		},
	}
}

func runInit(cmd *cobra.Command, opts *RootOptions) error {
	if _, err := os.Stat(opts.ConfigPath); err == nil {
		return fmt.Errorf("config already exists at %s; edit it directly or remove it first", opts.ConfigPath)
	}

	// Start from defaults so the form only asks for what matters.
	cfg, err := model.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	repo := cfg.GitHub.Repo
	branch := cfg.GitHub.BaseBranch
	stateDir := cfg.State.Dir
	webhook := ""

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Repository (owner/name)").
				Value(&repo).
				Validate(func(s string) error {
					if !strings.Contains(s, "/") {
						return fmt.Errorf("must be an owner/name slug")
					}
					return nil
				}),
			huh.NewInput().
				Title("Base branch for pull requests").
				Value(&branch),
			huh.NewInput().
				Title("State directory").
				Value(&stateDir),
			huh.NewInput().
				Title("Discord webhook URL (stored in keyring, optional)").
				EchoMode(huh.EchoModePassword).
				Value(&webhook),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("running setup form: %w", err)
	}

	cfg.GitHub.Repo = strings.TrimSpace(repo)
	cfg.GitHub.BaseBranch = strings.TrimSpace(branch)
	cfg.State.Dir = strings.TrimSpace(stateDir)

	if err := model.SaveConfig(opts.ConfigPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.ConfigPath)

	if strings.TrimSpace(webhook) != "" {
		if err := credential.Set(credential.KeyDiscordWebhookURL, strings.TrimSpace(webhook)); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "stored discord webhook in keyring")
	}

	return nil
}
