package harness

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// Result captures one CLI invocation for assertion and reporting.
type Result struct {
	Cmd      string        `json:"cmd"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration"`
	Signal   string        `json:"signal,omitempty"`
}

// Success reports whether the invocation exited zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Status renders a short human-readable outcome.
func (r *Result) Status() string {
	if r.Signal != "" {
		return fmt.Sprintf("killed by %s", r.Signal)
	}
	return fmt.Sprintf("exit %d", r.ExitCode)
}

// Diagnose describes how the invocation deviated from the wanted exit
// code, including the tail of its output. Returns "" when the exit code
// matches.
func (r *Result) Diagnose(wantExit int) string {
	if r.Signal == "" && r.ExitCode == wantExit {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: want exit %d, got %s", r.Cmd, wantExit, r.Status())
	if tail := tailOf(r.Stderr, 10); tail != "" {
		fmt.Fprintf(&b, "\nstderr:\n%s", tail)
	}
	if tail := tailOf(r.Stdout, 10); tail != "" {
		fmt.Fprintf(&b, "\nstdout:\n%s", tail)
	}
	return b.String()
}

func tailOf(output string, n int) string {
	output = strings.TrimRight(output, "\n")
	if output == "" {
		return ""
	}
	lines := strings.Split(output, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// RequireExit fails the test unless the invocation exited with the
// wanted code, reporting the same diagnostic the runner would.
func RequireExit(t testing.TB, want int, r *Result) {
	t.Helper()

	if diag := r.Diagnose(want); diag != "" {
		t.Fatal(diag)
	}
}
