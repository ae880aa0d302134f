package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikolag/summit/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize server configuration",
	Long:  "Interactive wizard to configure the server settings.",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("summit-server configuration wizard")
	fmt.Println("==================================")
	fmt.Println()

	// Load existing config or create default
	cfg, _ := config.LoadServer()
	if cfg == nil {
		cfg = config.DefaultServerConfig()
	}

	// Server Configuration
	fmt.Println("Server Configuration")
	fmt.Println("--------------------")

	cfg.ListenAddr = prompt(reader, "HTTP Listen Address", cfg.ListenAddr, ":8080")
	cfg.DBPath = prompt(reader, "Database Path", cfg.DBPath, "")

	retentionStr := prompt(reader, "Workbook Retention Days", fmt.Sprintf("%d", cfg.RetentionDays), "90")
	if days, err := strconv.Atoi(retentionStr); err == nil {
		cfg.RetentionDays = days
	}

	fmt.Println()

	// Optional S3 archive for uploaded workbooks
	fmt.Println("Workbook Archive (S3, optional)")
	fmt.Println("-------------------------------")

	if promptYesNo(reader, "Archive large workbooks to S3?", cfg.S3Bucket != "") {
		cfg.S3Endpoint = prompt(reader, "S3 Endpoint URL", cfg.S3Endpoint, "http://localhost:9000")
		cfg.S3Bucket = prompt(reader, "S3 Bucket Name", cfg.S3Bucket, "summit-uploads")
		cfg.S3AccessKey = prompt(reader, "S3 Access Key", cfg.S3AccessKey, "")
		cfg.S3SecretKey = promptSecret(reader, "S3 Secret Key", cfg.S3SecretKey)
		cfg.S3Region = prompt(reader, "S3 Region", cfg.S3Region, "us-east-1")
	} else {
		cfg.S3Bucket = ""
	}

	fmt.Println()

	// Session signing secret
	fmt.Println("Authentication")
	fmt.Println("--------------")

	if cfg.JWTSecret == "" {
		secret, err := generateSecret()
		if err != nil {
			return fmt.Errorf("failed to generate secret: %w", err)
		}
		cfg.JWTSecret = secret
		fmt.Println("Generated new session signing secret.")
	} else {
		if promptYesNo(reader, "Regenerate session signing secret? (logs everyone out)", false) {
			secret, err := generateSecret()
			if err != nil {
				return fmt.Errorf("failed to generate secret: %w", err)
			}
			cfg.JWTSecret = secret
			fmt.Println("New secret generated.")
		}
	}

	fmt.Println()

	// Save configuration
	if err := config.SaveServer(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println("Configuration saved!")
	fmt.Printf("Config file: %s\n", configPath())
	fmt.Println()
	fmt.Println("Start the server with:")
	fmt.Println("  summit-server serve")

	return nil
}

func prompt(reader *bufio.Reader, label, current, defaultVal string) string {
	displayDefault := current
	if displayDefault == "" {
		displayDefault = defaultVal
	}

	if displayDefault != "" {
		fmt.Printf("%s [%s]: ", label, displayDefault)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		if current != "" {
			return current
		}
		return defaultVal
	}
	return input
}

func promptSecret(reader *bufio.Reader, label, current string) string {
	if current != "" {
		fmt.Printf("%s [****hidden****]: ", label)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return current
	}
	return input
}

func promptYesNo(reader *bufio.Reader, label string, defaultVal bool) bool {
	defaultStr := "y/N"
	if defaultVal {
		defaultStr = "Y/n"
	}

	fmt.Printf("%s [%s]: ", label, defaultStr)

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))

	if input == "" {
		return defaultVal
	}

	return input == "y" || input == "yes"
}
