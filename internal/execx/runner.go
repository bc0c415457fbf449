// Package execx wraps external tool invocation behind a small interface so
// that fetch and extraction logic can be exercised without the real binaries.
package execx

import (
	"context"
	"os/exec"
)

// Runner runs an external command and reports its combined output.
type Runner interface {
	// Run executes name with args and returns the combined stdout/stderr.
	// The returned output is preserved even when the command fails, so
	// callers can surface tool diagnostics verbatim.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// LookPath reports the absolute path of name if it is installed.
	LookPath(name string) (string, error)
}

// CmdRunner is the os/exec backed Runner used outside of tests.
type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (CmdRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
