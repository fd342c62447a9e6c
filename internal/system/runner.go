// Package system wraps the host interactions davprov depends on: running
// administrative commands, looking up users and groups, and locating the
// davfs2 mount helper or a package manager able to install it.
//
// All entry points go through the Runner and UserDB interfaces so the
// provisioning logic can be exercised in tests without root privileges or
// a real user database.
package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes external commands on the host.
type Runner interface {
	// Run executes name with args and returns an error carrying the
	// command's combined output when it fails.
	Run(ctx context.Context, name string, args ...string) error

	// LookPath reports the full path of an executable, like exec.LookPath.
	LookPath(name string) (string, error)
}

// ExecRunner is the Runner used in production, backed by os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w\noutput: %s",
			name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
