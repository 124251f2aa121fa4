package harness

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/doom/nest/internal/depgraph"
	"github.com/doom/nest/pkg/logging"
)

// Answers fed to interactive confirmation prompts.
const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

const defaultInvokeTimeout = 2 * time.Minute

// CLI drives one nest-family binary as a subprocess. The zero answer is
// AnswerYes, matching how unattended runs confirm transactions.
type CLI struct {
	bin     string
	config  string
	chroot  string
	sudo    bool
	answer  string
	timeout time.Duration
}

// Option customizes a CLI wrapper.
type Option func(*CLI)

// WithConfig sets the --config flag value.
func WithConfig(path string) Option {
	return func(c *CLI) { c.config = path }
}

// WithChroot sets the --chroot flag value.
func WithChroot(dir string) Option {
	return func(c *CLI) { c.chroot = dir }
}

// WithSudo prefixes invocations with "sudo -E". Install and uninstall
// transactions touch the target filesystem and need the privilege.
func WithSudo(enabled bool) Option {
	return func(c *CLI) { c.sudo = enabled }
}

// WithAnswer sets what is fed to confirmation prompts. An empty answer
// leaves stdin closed.
func WithAnswer(answer string) Option {
	return func(c *CLI) { c.answer = answer }
}

// WithTimeout bounds each invocation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *CLI) { c.timeout = d }
}

// NewCLI returns a wrapper for the binary at bin.
func NewCLI(bin string, opts ...Option) *CLI {
	c := &CLI{
		bin:     bin,
		answer:  AnswerYes,
		timeout: defaultInvokeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binary returns the wrapped executable path.
func (c *CLI) Binary() string {
	return c.bin
}

// Chroot returns the configured target root, if any.
func (c *CLI) Chroot() string {
	return c.chroot
}

func (c *CLI) argv(args ...string) []string {
	argv := make([]string, 0, len(args)+7)
	if c.sudo {
		argv = append(argv, "sudo", "-E")
	}
	argv = append(argv, c.bin)
	if c.config != "" {
		argv = append(argv, "--config", c.config)
	}
	if c.chroot != "" {
		argv = append(argv, "--chroot", c.chroot)
	}
	return append(argv, args...)
}

// Run invokes the binary with the given arguments and waits for it to
// finish. A non-zero exit lands in the Result, not in the error: only
// invocations that produced no exit status at all (start failure,
// timeout, canceled context) return an *InvocationError.
func (c *CLI) Run(ctx context.Context, args ...string) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	argv := c.argv(args...)
	cmdLine := strings.Join(argv, " ")

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.answer != "" {
		cmd.Stdin = strings.NewReader(c.answer + "\n")
	}

	logging.Debug("cli", "Running %s", cmdLine)
	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := &Result{
		Cmd:      cmdLine,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The runtime killed the process for us; the exit
			// status is ours, not the binary's.
			return nil, &InvocationError{Cmd: cmdLine, Err: ctxErr}
		}
		result.ExitCode = exitErr.ExitCode()
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			result.Signal = status.Signal().String()
		}
	default:
		return nil, &InvocationError{Cmd: cmdLine, Err: err}
	}

	logging.Debug("cli", "%s finished with %s in %s", cmdLine, result.Status(), duration.Round(time.Millisecond))
	return result, nil
}

// Pull fetches the repository package lists.
func (c *CLI) Pull(ctx context.Context) (*Result, error) {
	return c.Run(ctx, "pull")
}

// Install resolves and installs the given packages.
func (c *CLI) Install(ctx context.Context, packages ...string) (*Result, error) {
	return c.Run(ctx, append([]string{"install"}, packages...)...)
}

// Uninstall removes the given packages.
func (c *CLI) Uninstall(ctx context.Context, packages ...string) (*Result, error) {
	return c.Run(ctx, append([]string{"uninstall"}, packages...)...)
}

// Help prints usage. Help must work even with a broken configuration.
func (c *CLI) Help(ctx context.Context) (*Result, error) {
	return c.Run(ctx, "help")
}

// Nest wraps the privileged nest binary.
type Nest struct {
	CLI
}

// NewNest returns a wrapper for the nest binary at bin.
func NewNest(bin string, opts ...Option) *Nest {
	return &Nest{CLI: *NewCLI(bin, opts...)}
}

// Depgraph reads the dependency graph of the wrapper's target root.
func (n *Nest) Depgraph() (*depgraph.Graph, error) {
	if n.chroot == "" {
		return nil, errors.New("no chroot configured")
	}
	return depgraph.LoadFromRoot(n.chroot)
}

// Finest wraps the unprivileged finest binary.
type Finest struct {
	CLI
}

// NewFinest returns a wrapper for the finest binary at bin.
func NewFinest(bin string, opts ...Option) *Finest {
	return &Finest{CLI: *NewCLI(bin, opts...)}
}
