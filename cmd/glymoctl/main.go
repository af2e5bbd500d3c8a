// Command glymoctl is the operator CLI: database migrations, account
// creation, goal estimates and product lookups.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/config"
	"github.com/foulezombie94/Glymo-ai/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "glymoctl",
		Short:         "Operator tools for the Glymo API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newCreateUserCmd(), newEstimateGoalCmd(), newLookupCmd())
	return root
}

// loadConfig reads GLYMO_* settings and builds the matching logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.Must(cfg.Environment), nil
}
