package config

import (
	"time"
)

// Config is the top-level configuration structure for nest-test.
type Config struct {
	Binaries  BinariesConfig  `yaml:"binaries"`
	Server    ServerConfig    `yaml:"server"`
	Invoke    InvokeConfig    `yaml:"invoke"`
	Scenarios ScenariosConfig `yaml:"scenarios"`
}

// BinariesConfig points the harness at the executables under test. Empty
// fields fall back to the NEST_BIN, FINEST_BIN and NEST_SERVER_BIN
// environment variables, then to a PATH lookup.
type BinariesConfig struct {
	Nest       string `yaml:"nest,omitempty"`
	Finest     string `yaml:"finest,omitempty"`
	NestServer string `yaml:"nest_server,omitempty"`
}

// ServerConfig controls the ephemeral repository server fixture.
type ServerConfig struct {
	// BasePort is the first port probed when picking a listen port for a
	// server instance. Each instance gets its own port.
	BasePort int `yaml:"base_port,omitempty"`
	// ReadyTimeout bounds how long a fixture waits for the server to
	// accept TCP connections before giving up.
	ReadyTimeout time.Duration `yaml:"ready_timeout,omitempty"`
	// StopGrace is how long a stopping server gets between SIGTERM and
	// SIGKILL.
	StopGrace time.Duration `yaml:"stop_grace,omitempty"`
	// KeepWorkspaces leaves server workspaces (packages, logs) on disk
	// after teardown, for post-mortem inspection.
	KeepWorkspaces bool `yaml:"keep_workspaces,omitempty"`
}

// InvokeConfig controls how the nest and finest binaries are invoked.
type InvokeConfig struct {
	// Timeout bounds a single CLI invocation.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// Sudo runs the binaries under sudo. Install and uninstall need root
	// on most systems even with a chroot.
	Sudo bool `yaml:"sudo,omitempty"`
}

// ScenariosConfig controls scenario discovery and reporting.
type ScenariosConfig struct {
	// Path is the directory (or single file) scenarios are loaded from.
	Path string `yaml:"path,omitempty"`
	// ReportPath is the directory JSON reports are written to. Empty
	// disables report files.
	ReportPath string `yaml:"report_path,omitempty"`
}
