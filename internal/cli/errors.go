// Package cli executes Databricks CLI commands and normalizes their output.
//
// The CLI is treated as a fixed external contract: argument spellings, exit
// codes, and output shapes are reproduced exactly. Everything the package
// returns is either a Payload (parsed output) or a *CLIError.
package cli

import (
	"errors"
	"fmt"
)

// Sentinel exit codes for failures that never produced a real exit status.
const (
	// ExitTimeout marks invocations that exceeded the configured timeout,
	// and validation failures detected before any process was launched.
	ExitTimeout = -1
	// ExitUnexpected marks launch and decode failures.
	ExitUnexpected = -2
)

// ErrEmptyOutput marks a soft failure: the CLI exited 0 but produced no
// structured output. Some commands (workspace import, jobs update, libraries
// install) succeed silently; call sites that expect that check for this
// sentinel with errors.Is rather than matching message text.
var ErrEmptyOutput = errors.New("cli: empty structured output")

// CLIError is the single structured failure type for CLI operations.
type CLIError struct {
	// Message is the human-readable failure description.
	Message string

	// Command is the full argument vector that produced the failure.
	// Nil for validation failures that never built a command.
	Command []string

	// ExitCode is the child's real exit status for CLI-reported failures,
	// ExitTimeout or ExitUnexpected for failures synthesized here, and 0
	// for soft failures where the CLI exited cleanly but its output
	// encoded an error.
	ExitCode int

	// Stderr is the raw standard-error text, possibly empty.
	Stderr string

	cause error
}

func (e *CLIError) Error() string {
	return fmt.Sprintf("CLI error: %s (exit code %d)", e.Message, e.ExitCode)
}

func (e *CLIError) Unwrap() error { return e.cause }
