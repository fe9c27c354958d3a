// Package commands defines all Cobra CLI commands for the navigator binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nelfund/navigator-go/internal/audit"
	"github.com/nelfund/navigator-go/internal/config"
	"github.com/nelfund/navigator-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "navigator",
		Short: "NELFUND Navigator — a grounded assistant for student loan questions",
		Long: `NELFUND Navigator answers student questions about the Nigerian Education
Loan Fund using only the official NELFUND documents it has ingested.

Every answer cites the documents it draws on; when the corpus doesn't cover
a question, the assistant says so and points to nelfund.gov.ng instead of
guessing.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.navigator/config.yaml).
See 'navigator --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A local .env is a development convenience; absence is not an error.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.navigator/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewServeCmd(),
		NewIngestCmd(),
		NewVersionCmd(),
	)

	return root
}
