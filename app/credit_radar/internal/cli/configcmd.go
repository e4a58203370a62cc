package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/config"
)

func newConfigCmd(app *App) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration (credentials redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(app.cfg.Redacted())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "📋 Current Configuration:")
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check that the reasoning provider credential is present",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			cfg := app.cfg
			fmt.Fprintf(w, "Provider: %s (%s)\n", cfg.LLM.Provider, cfg.LLM.Model)
			if key := config.CredentialEnv(cfg.LLM.Provider); key != "" {
				if cfg.HasCredential() {
					fmt.Fprintln(w, "API Key Detected ✅")
				} else {
					fmt.Fprintf(w, "Missing %s ❌\nPlease check your .env file\n", key)
				}
			}
			if err := cfg.Validate(); err != nil {
				return &ExitError{Code: ExitFatal, Err: err}
			}
			return nil
		},
	})

	return configCmd
}
