package runner

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/anderm/zzz-obsolete.webrtc/internal/config"
	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
	"github.com/anderm/zzz-obsolete.webrtc/internal/gyp"
	"github.com/anderm/zzz-obsolete.webrtc/internal/logger"
)

// Generator runs GYP for an assembled invocation and returns its exit
// status. An error means GYP could not be run at all.
type Generator interface {
	Generate(ctx context.Context, inv gyp.Invocation, env *environ.Env) (int, error)
}

// Command starts GYP as a child process: Interpreter Script Args... gypArgs...
// With no Interpreter, Script is executed directly.
type Command struct {
	Interpreter string
	Script      string
	Args        []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// CommandFromSettings builds a Command wired to the process stdio.
func CommandFromSettings(s config.Generator) *Command {
	return &Command{
		Interpreter: s.Interpreter,
		Script:      s.Script,
		Args:        s.Args,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

// Argv returns the full command line for inv.
func (c *Command) Argv(inv gyp.Invocation) []string {
	var argv []string
	if c.Interpreter != "" {
		argv = append(argv, c.Interpreter)
	}
	argv = append(argv, c.Script)
	argv = append(argv, c.Args...)
	return append(argv, inv.Args...)
}

// Generate runs the child in inv.Dir with exactly env as its environment.
func (c *Command) Generate(ctx context.Context, inv gyp.Invocation, env *environ.Env) (int, error) {
	argv := c.Argv(inv)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = inv.Dir
	cmd.Env = env.Environ()
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	logger.Debug("[DEBUG] Running command in %s: %s\n", inv.Dir, strings.Join(argv, " "))
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return 1, errors.Wrapf(err, "run %s", argv[0])
}
