package harness

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/doom/nest/internal/npf"
	"github.com/doom/nest/pkg/logging"
)

const serverAddr = "127.0.0.1"

// Fallbacks for options left zero. The runner normally wires these from
// the loaded configuration.
const (
	defaultBasePort     = 18000
	defaultReadyTimeout = 30 * time.Second
	defaultStopGrace    = 10 * time.Second
)

// ServerOptions configures a repository server fixture.
type ServerOptions struct {
	// Binary is the nest-server executable. Resolved through
	// FindBinary when empty.
	Binary string

	// BasePort is where port probing starts.
	BasePort int

	// ReadyTimeout bounds WaitReady.
	ReadyTimeout time.Duration

	// StopGrace is how long Stop waits between SIGTERM and SIGKILL.
	StopGrace time.Duration

	// Repository overrides the served repository metadata.
	Repository *npf.RepositoryConfig

	// Packages are published into the workspace before the server
	// starts.
	Packages []*npf.Package

	// Env is appended to the inherited environment.
	Env []string

	// KeepWorkspace leaves the workspace behind after Stop, for
	// debugging.
	KeepWorkspace bool
}

// Server is a running repository server rooted in a throwaway workspace.
type Server struct {
	opts      ServerOptions
	port      int
	workspace string
	cmd       *exec.Cmd
	capture   *logCapture

	waitDone chan struct{}
	waitErr  error

	stopOnce sync.Once
	stopErr  error
}

// StartServer publishes the given packages into a fresh workspace and
// launches nest-server on an allocated loopback port. The server is
// running but not necessarily accepting connections when StartServer
// returns; call WaitReady before pointing a client at it.
func StartServer(ctx context.Context, opts ServerOptions) (*Server, error) {
	if opts.Binary == "" {
		bin, err := FindBinary("nest-server", "", EnvNestServerBin)
		if err != nil {
			return nil, &SetupError{Err: err}
		}
		opts.Binary = bin
	}
	if opts.BasePort == 0 {
		opts.BasePort = defaultBasePort
	}
	if opts.ReadyTimeout == 0 {
		opts.ReadyTimeout = defaultReadyTimeout
	}
	if opts.StopGrace == 0 {
		opts.StopGrace = defaultStopGrace
	}

	workspace, err := os.MkdirTemp("", "nest-server-*")
	if err != nil {
		return nil, setupErrorf("creating server workspace: %w", err)
	}
	cleanup := func() { os.RemoveAll(workspace) }

	repo := opts.Repository
	if repo == nil {
		defaultRepo := npf.DefaultRepositoryConfig()
		repo = &defaultRepo
	}
	if err := repo.WriteTo(workspace); err != nil {
		cleanup()
		return nil, setupErrorf("writing repository config: %w", err)
	}

	packageDir := filepath.Join(workspace, "packages")
	for _, dir := range []string{packageDir, filepath.Join(workspace, "cache")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			cleanup()
			return nil, setupErrorf("creating %s: %w", dir, err)
		}
	}
	if err := npf.Publish(packageDir, opts.Packages...); err != nil {
		cleanup()
		return nil, setupErrorf("publishing packages: %w", err)
	}

	port, err := AllocatePort(opts.BasePort)
	if err != nil {
		cleanup()
		return nil, setupErrorf("allocating server port: %w", err)
	}

	capture := newLogCapture()
	cmd := exec.CommandContext(ctx, opts.Binary)
	cmd.Dir = workspace
	cmd.Stdout = capture.stdout
	cmd.Stderr = capture.stderr
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.Env = append(cmd.Env,
		fmt.Sprintf("NEST_SERVER_ADDR=%s", serverAddr),
		fmt.Sprintf("NEST_SERVER_PORT=%d", port),
	)

	logging.Info("server", "Starting nest-server on %s:%d (workspace %s, %d packages)",
		serverAddr, port, workspace, len(opts.Packages))

	if err := cmd.Start(); err != nil {
		capture.close()
		cleanup()
		return nil, setupErrorf("starting nest-server: %w", err)
	}

	s := &Server{
		opts:      opts,
		port:      port,
		workspace: workspace,
		cmd:       cmd,
		capture:   capture,
		waitDone:  make(chan struct{}),
	}

	go func() {
		s.waitErr = cmd.Wait()
		s.capture.close()
		close(s.waitDone)
	}()

	return s, nil
}

// Port returns the allocated listen port.
func (s *Server) Port() int {
	return s.port
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", serverAddr, s.port)
}

// URL returns the mirror URL clients should be configured with.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s", s.Addr())
}

// Workspace returns the server's working directory.
func (s *Server) Workspace() string {
	return s.workspace
}

// Exited reports whether the server process has terminated.
func (s *Server) Exited() bool {
	select {
	case <-s.waitDone:
		return true
	default:
		return false
	}
}

// Logs returns a copy of the output captured so far.
func (s *Server) Logs() Logs {
	return s.capture.getLogs()
}

// LogTail returns the last n captured output lines.
func (s *Server) LogTail(n int) []string {
	return s.capture.tail(n)
}

// WaitReady blocks until the server accepts TCP connections, the server
// exits, or the ready timeout elapses. On failure the error carries the
// tail of the server's output.
func (s *Server) WaitReady(ctx context.Context) error {
	logging.Debug("server", "Waiting for nest-server on %s", s.Addr())

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = time.Second
	policy.MaxElapsedTime = s.opts.ReadyTimeout

	operation := func() error {
		if s.Exited() {
			return backoff.Permanent(errors.New("server exited before becoming ready"))
		}
		conn, err := net.DialTimeout("tcp", s.Addr(), time.Second)
		if err != nil {
			return err
		}
		conn.Close()
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		if tail := s.LogTail(15); len(tail) > 0 {
			return setupErrorf("server on %s not ready after %s: %w\nrecent server output:\n\t%s",
				s.Addr(), s.opts.ReadyTimeout, err, strings.Join(tail, "\n\t"))
		}
		return setupErrorf("server on %s not ready after %s: %w", s.Addr(), s.opts.ReadyTimeout, err)
	}

	logging.Info("server", "Server ready on %s", s.Addr())
	return nil
}

// Stop terminates the server and removes its workspace. It is safe to
// call on every exit path; later calls return the first outcome.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.shutdown()
	})
	return s.stopErr
}

func (s *Server) shutdown() error {
	var errs []error

	if !s.Exited() {
		logging.Debug("server", "Sending SIGTERM to nest-server (pid %d)", s.cmd.Process.Pid)
		if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, fmt.Errorf("signaling server: %w", err))
		}

		select {
		case <-s.waitDone:
		case <-time.After(s.opts.StopGrace):
			logging.Warn("server", "Server did not stop within %s, killing", s.opts.StopGrace)
			if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				errs = append(errs, fmt.Errorf("killing server: %w", err))
			}
			<-s.waitDone
		}
	}

	if s.opts.KeepWorkspace {
		logging.Info("server", "Keeping server workspace %s", s.workspace)
	} else if err := os.RemoveAll(s.workspace); err != nil {
		errs = append(errs, fmt.Errorf("removing server workspace: %w", err))
	}

	if len(errs) > 0 {
		return &TeardownError{Errs: errs}
	}
	logging.Debug("server", "Server on %s stopped", s.Addr())
	return nil
}

// StartTestServer starts a server fixture tied to the test lifecycle.
// The server is stopped through t.Cleanup, and its recent output is
// dumped when the test has failed.
func StartTestServer(t testing.TB, opts ServerOptions) *Server {
	t.Helper()

	srv, err := StartServer(context.Background(), opts)
	if err != nil {
		t.Fatalf("starting nest-server: %v", err)
	}
	t.Cleanup(func() {
		if t.Failed() {
			for _, line := range srv.LogTail(40) {
				t.Logf("nest-server: %s", line)
			}
		}
		if err := srv.Stop(); err != nil {
			t.Errorf("stopping nest-server: %v", err)
		}
	})
	return srv
}
