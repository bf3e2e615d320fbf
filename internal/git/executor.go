// Package git runs git for the conflict detection engine.
//
// Every invocation is synchronous and non-interactive. A non-zero exit status
// is returned as data in Result, never as an error: callers decide which
// failures are fatal.
package git

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// Result is the captured outcome of one external command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// OK reports whether the command exited with status zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Output returns stdout with surrounding whitespace removed.
func (r Result) Output() string {
	return strings.TrimSpace(r.Stdout)
}

// Executor abstracts command execution for testability.
// This allows tests to script git responses without executing them.
type Executor interface {
	// Run executes a command to completion. The error is non-nil only when
	// the command could not be started at all.
	Run(dir string, name string, args ...string) (Result, error)
}

// nonInteractiveEnv keeps git from waiting on a terminal or an editor.
var nonInteractiveEnv = []string{
	"GIT_TERMINAL_PROMPT=0",
	"GIT_EDITOR=true",
	"GIT_MERGE_AUTOEDIT=no",
	"GIT_PAGER=cat",
}

// CLIExecutor executes commands using os/exec.
type CLIExecutor struct{}

// NewCLIExecutor creates a new CLI command executor.
func NewCLIExecutor() *CLIExecutor {
	return &CLIExecutor{}
}

// Run executes a command and captures both output streams.
func (e *CLIExecutor) Run(dir string, name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), nonInteractiveEnv...)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	res.ExitCode = -1
	return res, err
}

var _ Executor = (*CLIExecutor)(nil)
