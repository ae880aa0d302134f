package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikolag/summit/internal/config"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the session signing secret",
}

var secretShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show or generate the session signing secret",
	Long:  "Show the current session signing secret, or generate one if it doesn't exist.",
	RunE:  runSecretShow,
}

func init() {
	secretCmd.AddCommand(secretShowCmd)
}

func runSecretShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.JWTSecret == "" {
		secret, err := generateSecret()
		if err != nil {
			return fmt.Errorf("failed to generate secret: %w", err)
		}
		cfg.JWTSecret = secret

		if err := config.SaveServer(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Println("Generated new secret:")
	}

	fmt.Println(cfg.JWTSecret)
	return nil
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
