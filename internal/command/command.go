// Package command wraps exec so that helper invocations (ddcutil, xrandr)
// can be replaced in tests.
package command

import (
	"context"
	"os/exec"
)

// Executor runs external commands.
type Executor interface {
	// Run executes a command and waits for it to complete. Success is
	// determined by the exit status only.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes a command and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// LookPath reports whether name is an executable on PATH.
	LookPath(name string) (string, error)
}

// RealExecutor runs commands with exec.CommandContext.
type RealExecutor struct{}

//nolint:wrapcheck // exec errors already carry the command name
func (*RealExecutor) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

//nolint:wrapcheck // exec errors already carry the command name
func (*RealExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

//nolint:wrapcheck // exec errors already carry the command name
func (*RealExecutor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
