package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nikolag/summit/internal/config"
	"github.com/nikolag/summit/internal/logger"
	"github.com/nikolag/summit/internal/seed"
	"github.com/nikolag/summit/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the summit server",
	Long:  "Start the server with API and web UI.",
	RunE:  runServe,
}

var (
	serveListenAddr  string
	serveMetricsPort int
)

func init() {
	serveCmd.Flags().StringVar(&serveListenAddr, "listen", "", "Listen address (default from config or :8080)")
	serveCmd.Flags().IntVar(&serveMetricsPort, "metrics-port", 0, "Port for Prometheus metrics (disabled if 0)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if serveListenAddr != "" {
		cfg.ListenAddr = serveListenAddr
	}

	// Environment variable for metrics port
	if v := os.Getenv("SUMMIT_METRICS_PORT"); v != "" && serveMetricsPort == 0 {
		if port, err := strconv.Atoi(v); err == nil {
			serveMetricsPort = port
		}
	}

	// Validate required config
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT secret not configured. Run 'summit-server secret show' or set SUMMIT_JWT_SECRET")
	}

	log := logger.L()

	srv, err := server.New(cfg, serveMetricsPort, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := seed.Run(context.Background(), srv.Storage(), log); err != nil {
		srv.Close()
		return fmt.Errorf("failed to seed database: %w", err)
	}

	if serveMetricsPort > 0 {
		log.Infow("prometheus metrics enabled", "port", serveMetricsPort)
	}

	return srv.Run()
}

func configPath() string {
	dir, _ := config.Dir()
	return dir + "/server.json"
}
