package main

import (
	"os"

	summit "github.com/nikolag/summit"
	"github.com/nikolag/summit/internal/server"
)

func init() {
	// Set embedded web assets for the server
	server.SetEmbeddedFiles(summit.WebAssets)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
