// pkg/commands/diagnostics.go
package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/config"
	"github.com/David-Botos/event-lakehouse/pkg/report"
	"github.com/David-Botos/event-lakehouse/pkg/store"
)

// NewDiagnosticsCmd creates the diagnostics command.
func NewDiagnosticsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Show bot flagging, headline metrics and quarantine samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(configPath, func(ctx context.Context, _ *config.Config, st *store.Store, logger *zap.Logger) error {
				return report.NewReporter(st, logger).Diagnostics(ctx, os.Stdout)
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file overlaid on the environment")
	return cmd
}

// NewTablesCmd creates the tables command.
func NewTablesCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List every table in the store with column and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(configPath, func(ctx context.Context, _ *config.Config, st *store.Store, logger *zap.Logger) error {
				return report.NewReporter(st, logger).Inventory(ctx, os.Stdout)
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file overlaid on the environment")
	return cmd
}
