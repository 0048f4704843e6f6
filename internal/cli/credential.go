package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/repowatch/internal/credential"
)

var credentialNames = []string{
	credential.KeyGitHubToken,
	credential.KeyDiscordWebhookURL,
	credential.KeyAnthropicAPIKey,
}

// NewCredentialCommand creates the credential command group.
func NewCredentialCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage secrets in the OS keyring",
		Long: fmt.Sprintf(
			"Store and inspect the secrets repowatch needs. Valid names: %s.",
			strings.Join(credentialNames, ", "),
		),
	}

	cmd.AddCommand(newCredentialSetCommand())
	cmd.AddCommand(newCredentialGetCommand())
	cmd.AddCommand(newCredentialDeleteCommand())

	return cmd
}

func newCredentialSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Store a credential (prompts for the value)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := validateCredentialName(name); err != nil {
				return err
			}

			var value string
			input := huh.NewInput().
				Title(fmt.Sprintf("Value for %s", name)).
				EchoMode(huh.EchoModePassword).
				Value(&value)
			if err := input.Run(); err != nil {
				return fmt.Errorf("reading credential value: %w", err)
			}
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("credential value must not be empty")
			}

			if err := credential.Set(name, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", name)
			return nil
		},
	}
}

func newCredentialGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := validateCredentialName(name); err != nil {
				return err
			}

			value, err := credential.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newCredentialDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := validateCredentialName(name); err != nil {
				return err
			}

			if err := credential.Delete(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
			return nil
		},
	}
}

func validateCredentialName(name string) error {
	for _, valid := range credentialNames {
		if name == valid {
			return nil
		}
	}
	return fmt.Errorf(
		"unknown credential %q: must be one of %s",
		name, strings.Join(credentialNames, ", "),
	)
}
