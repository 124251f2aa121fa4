//go:build e2e

package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/doom/nest/internal/harness"
)

func TestPullWithValidConfig(t *testing.T) {
	runScenarioFile(t, "pull-with-valid-config")
}

func TestPullWithMissingConfig(t *testing.T) {
	runScenarioFile(t, "pull-with-missing-config")
}

func TestPullWithUnreadableConfig(t *testing.T) {
	skipIfRoot(t)
	runScenarioFile(t, "pull-with-unreadable-config")
}

func TestPullWithInvalidConfig(t *testing.T) {
	runScenarioFile(t, "pull-with-invalid-config")
}

// TestPullAfterServerStopped drives the harness directly: a config
// generated against a live server keeps pointing at its address, so a
// pull after the server is gone has to fail.
func TestPullAfterServerStopped(t *testing.T) {
	nest, _, server := resolveBinaries(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	srv, err := harness.StartServer(ctx, harness.ServerOptions{
		Binary:       server,
		ReadyTimeout: 30 * time.Second,
		StopGrace:    5 * time.Second,
	})
	require.NoError(t, err)

	cfg, err := harness.WriteConfig(t.TempDir(), harness.ConfigForServer(srv))
	require.NoError(t, err)
	defer func() { require.NoError(t, cfg.Remove()) }()

	require.NoError(t, srv.Stop())

	cli := harness.NewCLI(nest,
		harness.WithConfig(cfg.Path()),
		harness.WithChroot(t.TempDir()),
		harness.WithTimeout(time.Minute),
	)
	result, err := cli.Pull(ctx)
	require.NoError(t, err)
	require.NotEqual(t, 0, result.ExitCode, "pull against a stopped server should fail, got: %s", result.Status())
}
