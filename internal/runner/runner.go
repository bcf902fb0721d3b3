package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/oraops/oradbctl/internal/logger"
)

// Command describes a single operating-system process invocation.
type Command struct {
	// Path is the binary to run, absolute or resolved through PATH.
	Path string
	// Args are the arguments passed to the binary, excluding the binary name.
	Args []string
	// Env holds KEY=VALUE pairs appended to the inherited environment.
	Env []string
	// Stdin, when non-empty, is fed to the process on standard input.
	Stdin string
}

// Argv returns the full command line as a single slice.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Path)
	argv = append(argv, c.Args...)
	return argv
}

// String renders the command line with password values masked.
func (c Command) String() string {
	return strings.Join(redactArgs(c.Argv()), " ")
}

// Result captures the outcome of a completed process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// PrimaryOutput returns stderr if present, otherwise stdout.
func (r Result) PrimaryOutput() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// Runner executes operating-system commands. A non-zero exit status is
// reported through Result.ExitCode, not through the error return. The error
// is reserved for processes that could not run at all.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Exec is the production Runner backed by os/exec.
type Exec struct {
	log *logger.Logger
}

// NewExec creates a Runner that spawns real processes.
func NewExec(log *logger.Logger) *Exec {
	return &Exec{log: log}
}

// Run spawns the process and waits for it. Captured output is trimmed of
// surrounding whitespace.
func (e *Exec) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	e.log.WithFields(map[string]any{"argv": c.String()}).Debug("running command")

	err := cmd.Run()
	res := Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// redactArgs masks the value following any flag that names a password.
func redactArgs(argv []string) []string {
	out := make([]string, len(argv))
	copy(out, argv)
	for i := 0; i < len(out)-1; i++ {
		if strings.Contains(strings.ToLower(out[i]), "password") {
			out[i+1] = "********"
		}
	}
	return out
}
