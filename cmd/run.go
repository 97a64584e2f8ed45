package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runRounds     int
	runPopulation string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive a fixed number of outreach rounds and print the report",
	Long:  "Loads a population snapshot, advances the sense-plan-act loop the requested number of rounds and writes the final scores, spend ledger and action history as JSON to stdout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("score"); err != nil {
			return err
		}

		controller, err := buildController(runPopulation)
		if err != nil {
			return err
		}

		for i := 0; i < runRounds; i++ {
			if err := controller.AdvanceRound(cmd.Context()); err != nil {
				return eris.Wrapf(err, "round %d", i+1)
			}
		}

		report := map[string]any{
			"rounds":       controller.Round(),
			"funds":        controller.Funds(),
			"ledger":       controller.Ledger(),
			"scores":       controller.Scores(),
			"distribution": controller.Distribution(),
			"actions":      controller.Actions(),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "encode report")
		}

		zap.L().Info("run complete",
			zap.Int("rounds", controller.Round()),
			zap.Int64("funds_left", controller.Funds()),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runRounds, "rounds", 1, "number of rounds to advance")
	runCmd.Flags().StringVar(&runPopulation, "population", "population.json", "population snapshot file")
	rootCmd.AddCommand(runCmd)
}
