package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	financeapp "github.com/oneflow/backend/internal/application/finance"
	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/infrastructure/cache"
	"github.com/oneflow/backend/internal/infrastructure/config"
	"github.com/oneflow/backend/internal/infrastructure/event"
	"github.com/oneflow/backend/internal/infrastructure/logger"
	"github.com/oneflow/backend/internal/infrastructure/persistence"
	"github.com/oneflow/backend/internal/infrastructure/tabular"
)

// cliActor is the identity exports run as; admins see every request
var cliActor = finance.Actor{Username: "docctl", Role: finance.RoleAdmin}

// openReconciler connects to the configured database and builds a Reconciler on it
func openReconciler(ctx context.Context, app *cli) (*financeapp.Reconciler, func(), error) {
	if app.cfg.Database.Driver == config.DriverMemory {
		return nil, nil, fmt.Errorf("database.driver=memory keeps nothing between runs; configure postgres or sqlite")
	}
	db, err := persistence.NewDatabase(&app.cfg.Database, logger.NewGormLogger(app.log, logger.GormLevel("warn"), 0))
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			app.log.Warn("failed to close database", zap.Error(err))
		}
	}

	reconciler := financeapp.NewReconciler(
		persistence.NewGormDocumentRepository(db.DB),
		persistence.NewGormExpenseRepository(db.DB),
		persistence.NewGormDocumentRequestRepository(db.DB),
		finance.NewNumberGenerator(),
		cache.NewIdempotencyStore(ctx, app.cfg.Redis, app.log),
		financeapp.ReconcilerConfig{MaxRows: app.cfg.Finance.ImportMaxRows, IdempotencyTTL: app.cfg.Finance.IdempotencyTTL},
		app.log,
	)
	bus := event.NewInMemoryEventBus(app.log)
	audit := financeapp.NewAuditLogHandler(app.log)
	bus.Subscribe(audit, audit.EventTypes()...)
	reconciler.SetEventPublisher(bus)
	if len(app.cfg.Finance.Projects) > 0 {
		reconciler.SetProjectDirectory(finance.NewStaticProjectDirectory(app.cfg.Finance.Projects))
	}
	return reconciler, closeDB, nil
}

func newImportCmd(app *cli) *cobra.Command {
	var (
		format string
		key    string
	)
	cmd := &cobra.Command{
		Use:   "import <type> <file>",
		Short: "Import a CSV or XLSX file into one record family",
		Long: `Imports every row of the file or none of them. <type> is one of
sales-orders, purchase-orders, invoices, vendor-bills or expenses.`,
		Example: `  docctl import invoices invoices.xlsx
  docctl import expenses march.csv --key march-2025`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := financeapp.ParseFamily(args[0])
			if err != nil {
				return err
			}
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(args[1]), ".")
			}
			f, err := tabular.ParseFormat(format)
			if err != nil {
				return err
			}
			file, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer file.Close()

			ctx := cmd.Context()
			reconciler, closeDB, err := openReconciler(ctx, app)
			if err != nil {
				return err
			}
			defer closeDB()

			result, err := reconciler.ImportFile(ctx, family, f, file, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s\n", result.Imported, result.Family)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "csv or xlsx (defaults to the file extension)")
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key; a repeated key is rejected")
	return cmd
}

func newExportCmd(app *cli) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <type>",
		Short: "Export one record family as CSV or XLSX",
		Example: `  docctl export requests --format xlsx -o requests.xlsx
  docctl export expenses > expenses.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := financeapp.ParseFamily(args[0])
			if err != nil {
				return err
			}
			f, err := tabular.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			reconciler, closeDB, err := openReconciler(ctx, app)
			if err != nil {
				return err
			}
			defer closeDB()

			out := cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}
			return reconciler.Export(ctx, cliActor, family, f, out)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(tabular.FormatCSV), "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of standard output")
	return cmd
}
