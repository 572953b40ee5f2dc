package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/David-Botos/event-lakehouse/pkg/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "lakehouse",
		Short: "Batch pipeline turning raw product events into business metric tables",
		Long: `lakehouse stages marketing spend, subscriptions and product events into raw
tables, splits them into clean and quarantine tables, and derives daily,
monthly, cohort and unit-economics metric tables in a single store.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(
		commands.NewRunCmd(),
		commands.NewTransformCmd(),
		commands.NewDiagnosticsCmd(),
		commands.NewTablesCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
