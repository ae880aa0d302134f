package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikolag/summit/internal/config"
	"github.com/nikolag/summit/internal/storage"
)

var normalizePhonesCmd = &cobra.Command{
	Use:   "normalize-phones",
	Short: "Rewrite stored phone numbers into canonical +digits form",
	Long: "One-off maintenance pass over the participants table. Numbers " +
		"that cannot be normalized are left untouched and listed.",
	RunE: runNormalizePhones,
}

func init() {
	rootCmd.AddCommand(normalizePhonesCmd)
}

func runNormalizePhones(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	result, err := store.NormalizeParticipantPhones(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Updated %d phone numbers\n", result.Updated)
	if len(result.Skipped) > 0 {
		fmt.Printf("Could not normalize: %s\n", strings.Join(result.Skipped, ", "))
	}
	return nil
}
