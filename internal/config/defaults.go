package config

import (
	"time"
)

// Default fixture timing. The ready timeout is deliberately generous: a
// cold server binary may have to create its package cache on first start.
const (
	DefaultBasePort     = 18000
	DefaultReadyTimeout = 30 * time.Second
	DefaultStopGrace    = 10 * time.Second
	DefaultInvokeTime   = 2 * time.Minute
)

// GetDefaultConfig returns the built-in configuration. Every run starts
// from these values; user and project files only override what they set.
func GetDefaultConfig() Config {
	return Config{
		Binaries: BinariesConfig{},
		Server: ServerConfig{
			BasePort:     DefaultBasePort,
			ReadyTimeout: DefaultReadyTimeout,
			StopGrace:    DefaultStopGrace,
		},
		Invoke: InvokeConfig{
			Timeout: DefaultInvokeTime,
		},
		Scenarios: ScenariosConfig{},
	}
}
