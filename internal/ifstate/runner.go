package ifstate

import (
	"context"
	"os/exec"
)

// CommandRunner executes external interface commands. Run reports only
// whether the process exited zero; retry policy belongs to callers.
type CommandRunner interface {
	// Output runs the command and returns its combined output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Run runs the command and waits for completion.
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands via os/exec, blocking the caller for the
// command's duration.
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.Run()
}
