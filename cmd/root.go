package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ambassador/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ambassador",
	Short: "Budget-constrained multi-channel outreach orchestrator",
	Long:  "Runs a sense-plan-act outreach loop over a simulated population: surveys citizen attitudes, plans spend across messages, posters and announcements, and executes the strategy under a hard funds ceiling.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
