// Package setup prepares a deployment host: it provisions the local CA
// certificate and pre-installs the module dependencies.
package setup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Fixed defaults. The setup command exposes flags to override them, but
// a plain invocation matches the historical deployment script.
const (
	DefaultCertURL  = "https://curl.se/ca/cacert.pem"
	DefaultCertsDir = "certs"
	CertFileName    = "ca-certificate.crt"
)

// DefaultInstallCmd resolves dependencies from the module manifest.
var DefaultInstallCmd = []string{"go", "mod", "download"}

// Runner executes the setup steps sequentially. Steps do not
// short-circuit: a failed certificate download is logged and the
// install step still runs, mirroring plain shell execution.
type Runner struct {
	CertURL    string
	CertsDir   string
	InstallCmd []string

	Client *http.Client
	Log    *zap.SugaredLogger

	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner returns a Runner with the fixed defaults.
func NewRunner(log *zap.SugaredLogger) *Runner {
	return &Runner{
		CertURL:    DefaultCertURL,
		CertsDir:   DefaultCertsDir,
		InstallCmd: append([]string(nil), DefaultInstallCmd...),
		Client:     &http.Client{Timeout: 60 * time.Second},
		Log:        log,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

// CertPath is where the downloaded certificate lands.
func (r *Runner) CertPath() string {
	return filepath.Join(r.CertsDir, CertFileName)
}

// EnsureCertsDir creates the certificate directory. Calling it against
// an existing directory is not an error.
func (r *Runner) EnsureCertsDir() error {
	return os.MkdirAll(r.CertsDir, 0o755)
}

// FetchCACert downloads the certificate and writes it over any existing
// file. The body is not validated.
func (r *Runner) FetchCACert(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.CertURL, nil)
	if err != nil {
		return err
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download certificate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("certificate download returned %s", resp.Status)
	}

	out, err := os.Create(r.CertPath())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.CertPath(), err)
	}
	return nil
}

// InstallDependencies invokes the package installer against the module
// manifest, inheriting the runner's output streams.
func (r *Runner) InstallDependencies(ctx context.Context) error {
	if len(r.InstallCmd) == 0 {
		return fmt.Errorf("no install command configured")
	}

	cmd := exec.CommandContext(ctx, r.InstallCmd[0], r.InstallCmd[1:]...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("install command failed: %w", err)
	}
	return nil
}

// Run executes all steps in order. Earlier failures are logged but do
// not stop later steps; the returned error is the last step's outcome,
// so the process exit code reflects the install result.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.EnsureCertsDir(); err != nil {
		r.Log.Errorw("failed to create certs directory", "dir", r.CertsDir, "error", err)
	}

	if err := r.FetchCACert(ctx); err != nil {
		r.Log.Errorw("certificate download failed, continuing with install",
			"url", r.CertURL, "error", err)
	} else {
		r.Log.Infow("certificate downloaded", "path", r.CertPath())
	}

	r.Log.Infow("installing dependencies", "command", r.InstallCmd)
	return r.InstallDependencies(ctx)
}
