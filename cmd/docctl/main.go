// Command docctl works with the finance document store from the shell:
// totals preview, CSV/XLSX import and export, and development tokens.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/infrastructure/config"
	"github.com/oneflow/backend/internal/infrastructure/logger"
)

var version = "dev"

// cli carries what every subcommand needs once the root command has run
type cli struct {
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	app := &cli{}
	var logLevel string

	root := &cobra.Command{
		Use:   "docctl",
		Short: "Finance document command-line tool",
		Long: `docctl previews document totals, imports and exports CSV or XLSX files
and mints development tokens for the finance API.

Settings come from config.toml, a .env file and FIN_* environment variables,
the same sources the server reads.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
			if err != nil {
				return err
			}
			app.cfg, app.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app.log != nil {
				_ = app.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newTotalsCmd(app),
		newImportCmd(app),
		newExportCmd(app),
		newTokenCmd(app),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
