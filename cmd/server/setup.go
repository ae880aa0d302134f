package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikolag/summit/internal/logger"
	"github.com/nikolag/summit/internal/setup"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Prepare the deployment host",
	Long: "Create the certs directory, download the CA certificate and " +
		"install the module dependencies. Steps run in order and do not " +
		"short-circuit; the exit code reflects the install step.",
	RunE: runSetup,
}

var (
	setupCertURL    string
	setupCertsDir   string
	setupInstallCmd string
)

func init() {
	setupCmd.Flags().StringVar(&setupCertURL, "cert-url", setup.DefaultCertURL, "Certificate download URL")
	setupCmd.Flags().StringVar(&setupCertsDir, "certs-dir", setup.DefaultCertsDir, "Certificate directory")
	setupCmd.Flags().StringVar(&setupInstallCmd, "install-cmd", strings.Join(setup.DefaultInstallCmd, " "), "Dependency install command")

	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	r := setup.NewRunner(logger.L())
	r.CertURL = setupCertURL
	r.CertsDir = setupCertsDir
	if fields := strings.Fields(setupInstallCmd); len(fields) > 0 {
		r.InstallCmd = fields
	}

	return r.Run(cmd.Context())
}
