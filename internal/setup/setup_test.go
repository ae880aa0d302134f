package setup

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRunner(t *testing.T, certURL string) *Runner {
	t.Helper()

	r := NewRunner(zap.NewNop().Sugar())
	r.CertURL = certURL
	r.CertsDir = filepath.Join(t.TempDir(), "certs")
	r.InstallCmd = []string{"true"}
	r.Client = &http.Client{Timeout: 5 * time.Second}
	r.Stdout = io.Discard
	r.Stderr = io.Discard
	return r
}

func certServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunCreatesCertsAndDownloads(t *testing.T) {
	srv := certServer(t, "-----BEGIN CERTIFICATE-----\nabc\n-----END CERTIFICATE-----\n")
	r := newTestRunner(t, srv.URL)

	require.NoError(t, r.Run(context.Background()))

	info, err := os.Stat(r.CertPath())
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestEnsureCertsDirIdempotent(t *testing.T) {
	r := newTestRunner(t, "http://unused.invalid")

	require.NoError(t, r.EnsureCertsDir())
	require.NoError(t, r.EnsureCertsDir())

	info, err := os.Stat(r.CertsDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFetchOverwritesExistingCert(t *testing.T) {
	srv := certServer(t, "fresh certificate body")
	r := newTestRunner(t, srv.URL)

	require.NoError(t, r.EnsureCertsDir())
	require.NoError(t, os.WriteFile(r.CertPath(), []byte("stale"), 0o644))

	require.NoError(t, r.FetchCACert(context.Background()))

	got, err := os.ReadFile(r.CertPath())
	require.NoError(t, err)
	assert.Equal(t, "fresh certificate body", string(got))
}

func TestInstallRunsAfterFailedDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	r := newTestRunner(t, srv.URL)

	// Download fails but Run still reaches the install step, which
	// succeeds, so Run reports success.
	require.NoError(t, r.Run(context.Background()))

	_, err := os.Stat(r.CertPath())
	assert.True(t, os.IsNotExist(err))
}

func TestRunReturnsInstallFailure(t *testing.T) {
	srv := certServer(t, "cert")
	r := newTestRunner(t, srv.URL)
	r.InstallCmd = []string{"false"}

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "install command failed")

	// The certificate step still completed.
	_, statErr := os.Stat(r.CertPath())
	assert.NoError(t, statErr)
}
