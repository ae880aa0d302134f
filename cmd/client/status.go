package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry totals",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	counts, err := c.Counts(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Participants: %d\n", counts.Participants)
	fmt.Printf("Events:       %d\n", counts.Events)
	fmt.Printf("Countries:    %d\n", counts.Countries)
	return nil
}
