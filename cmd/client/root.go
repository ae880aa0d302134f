package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "summit",
	Short: "Event and delegation management CLI",
	Long:  "summit is the command line client for the summit event and participant registry.",
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(participantsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(importCmd)
}
