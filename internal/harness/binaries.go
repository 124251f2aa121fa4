package harness

import (
	"fmt"
	"os"
	"os/exec"
)

// Environment variables accepted as binary location overrides.
const (
	EnvNestBin       = "NEST_BIN"
	EnvFinestBin     = "FINEST_BIN"
	EnvNestServerBin = "NEST_SERVER_BIN"
)

// Mockable for testing
var execLookPath = exec.LookPath

// FindBinary resolves the path of a tool binary. An explicit path from
// flags or configuration wins, then the environment override, then PATH.
func FindBinary(name, explicit, envVar string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %s (configured path %s: %v)", ErrBinaryNotFound, name, explicit, err)
		}
		return explicit, nil
	}
	if fromEnv := os.Getenv(envVar); fromEnv != "" {
		if _, err := os.Stat(fromEnv); err != nil {
			return "", fmt.Errorf("%w: %s (%s=%s: %v)", ErrBinaryNotFound, name, envVar, fromEnv, err)
		}
		return fromEnv, nil
	}
	path, err := execLookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s (install it on PATH or set %s)", ErrBinaryNotFound, name, envVar)
	}
	return path, nil
}
