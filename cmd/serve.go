package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/ambassador/internal/server"
)

var (
	servePort       int
	servePopulation string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the harness-facing HTTP server",
	Long:  "Loads a population snapshot and exposes the round tick, the citizen message callback and the reporting endpoints over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		controller, err := buildController(servePopulation)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		return server.New(controller, port).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&servePopulation, "population", "population.json", "population snapshot file")
	rootCmd.AddCommand(serveCmd)
}
