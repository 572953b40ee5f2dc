// pkg/commands/run.go
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/config"
	"github.com/David-Botos/event-lakehouse/pkg/intake"
	"github.com/David-Botos/event-lakehouse/pkg/pipeline"
	"github.com/David-Botos/event-lakehouse/pkg/store"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run intake, cleaning and metrics derivation end to end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(configPath, func(ctx context.Context, cfg *config.Config, st *store.Store, logger *zap.Logger) error {
				source, closeSource, err := intake.OpenSource(ctx, cfg, logger)
				if err != nil {
					return fmt.Errorf("opening intake source: %w", err)
				}
				defer func() { _ = closeSource() }()

				runner, err := pipeline.NewRunner(cfg, st, source, logger)
				if err != nil {
					return err
				}
				metrics, err := runner.Run(ctx)
				return printRun(metrics, err, asJSON)
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file overlaid on the environment")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run report as JSON")
	return cmd
}

// NewTransformCmd creates the transform command.
func NewTransformCmd() *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Rebuild clean, quarantine and metric tables from the existing raw tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(configPath, func(ctx context.Context, cfg *config.Config, st *store.Store, logger *zap.Logger) error {
				runner, err := pipeline.NewRunner(cfg, st, nil, logger)
				if err != nil {
					return err
				}
				metrics, err := runner.Transform(ctx)
				return printRun(metrics, err, asJSON)
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file overlaid on the environment")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run report as JSON")
	return cmd
}

func printRun(metrics *pipeline.RunMetrics, runErr error, asJSON bool) error {
	if metrics == nil {
		return runErr
	}

	if asJSON {
		data, err := metrics.ToJSON()
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Print(metrics.GenerateReport())
		fmt.Println()
		if runErr == nil {
			color.Green("Pipeline succeeded in %s", metrics.Duration().Round(time.Millisecond))
		} else {
			color.Red("Pipeline failed in %s", metrics.Duration().Round(time.Millisecond))
		}
	}
	return runErr
}
