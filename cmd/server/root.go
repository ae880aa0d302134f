package main

import (
	"github.com/spf13/cobra"

	"github.com/nikolag/summit/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "summit-server",
	Short: "Event and delegation management server",
	Long:  "summit-server hosts the participant and event registry with its API and web UI.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if level, ok := logger.ParseLevel(logLevel); ok {
			logger.SetLevel(level)
		}
	},
}

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(secretCmd)
}
