package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

// logOutputLimit bounds stdout/stderr fragments written to the debug log.
const logOutputLimit = 1000

// Invocation describes one CLI command. Invocations are built fresh per call
// and never reused after submission.
type Invocation struct {
	// Args are the CLI arguments after the configured base command.
	Args []string

	// Input, when non-empty, is piped to the child's stdin and the stream
	// is closed before output is read.
	Input string

	// Raw disables JSON parsing: stdout is returned verbatim as
	// {"output": <trimmed stdout>, "success": true}. Used for commands
	// whose output is not machine-readable.
	Raw bool

	// Timeout overrides the executor's configured bound for this one
	// invocation when positive. Long-running commands (notebook runs)
	// use this instead of mutating shared state.
	Timeout time.Duration
}

// RunOutput carries a completed child process's captured streams and status.
type RunOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner launches a single child process and waits for it. A non-zero exit
// status is not an error at this level: it is reported through ExitCode.
// Errors are reserved for processes that could not run to completion
// (launch failures, context expiry).
//
// The default implementation shells out via os/exec; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, argv []string, stdin string) (RunOutput, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, argv []string, stdin string) (RunOutput, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := RunOutput{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		// Context expiry kills the child and surfaces as a generic exec
		// error; check the context first so timeouts classify correctly.
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, err
	}
	return out, nil
}

// Config configures an Executor.
type Config struct {
	// BaseCommand is prepended to every invocation's arguments, e.g.
	// ["databricks"] or ["databricks", "--profile", "staging"].
	BaseCommand []string

	// Timeout bounds each invocation. Must be positive.
	Timeout time.Duration

	// Logger receives diagnostic records. Nil disables logging.
	Logger *slog.Logger

	// Runner is the subprocess seam. Nil selects the os/exec runner.
	Runner Runner
}

// Executor turns typed requests into single external CLI invocations. It is
// stateless apart from its read-only configuration and safe for concurrent
// use: each call owns exactly one child process.
type Executor struct {
	base    []string
	timeout time.Duration
	logger  *slog.Logger
	runner  Runner
}

// New creates an Executor from cfg.
func New(cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	runner := cfg.Runner
	if runner == nil {
		runner = execRunner{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Executor{
		base:    cfg.BaseCommand,
		timeout: timeout,
		logger:  logger,
		runner:  runner,
	}
}

// Timeout returns the configured per-invocation bound.
func (e *Executor) Timeout() time.Duration { return e.timeout }

// Execute runs one CLI invocation and produces exactly one outcome: a parsed
// Payload or a *CLIError. Output is fully drained before either is returned;
// callers never see partial state.
func (e *Executor) Execute(ctx context.Context, inv Invocation) (Payload, error) {
	argv := make([]string, 0, len(e.base)+len(inv.Args))
	argv = append(argv, e.base...)
	argv = append(argv, inv.Args...)
	if len(argv) == 0 {
		return Payload{}, &CLIError{
			Message:  "Missing required arguments: command",
			ExitCode: ExitTimeout,
		}
	}

	safe := SanitizeForLogging(argv)
	e.logger.Debug("executing command", slog.String("command", safe))

	timeout := e.timeout
	if inv.Timeout > 0 {
		timeout = inv.Timeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := e.runner.Run(runCtx, argv, inv.Input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			secs := int(timeout / time.Second)
			e.logger.Error("command timed out",
				slog.Int("timeout_seconds", secs),
				slog.String("command", safe))
			return Payload{}, &CLIError{
				Message:  fmt.Sprintf("Command timed out after %d seconds", secs),
				Command:  argv,
				ExitCode: ExitTimeout,
			}
		}
		e.logger.Error("command failed to run",
			slog.String("command", safe),
			slog.Any("error", err))
		return Payload{}, &CLIError{
			Message:  "Unexpected error: " + err.Error(),
			Command:  argv,
			ExitCode: ExitUnexpected,
			Stderr:   err.Error(),
		}
	}

	stdout := decode(out.Stdout)
	stderr := decode(out.Stderr)

	if stdout != "" {
		e.logger.Debug("command stdout", slog.String("output", TruncateOutput(stdout, logOutputLimit)))
	}
	if stderr != "" {
		e.logger.Debug("command stderr", slog.String("output", TruncateOutput(stderr, logOutputLimit)))
	}

	if out.ExitCode != 0 {
		return Payload{}, &CLIError{
			Message:  ExtractCommandError(stdout, stderr, out.ExitCode),
			Command:  argv,
			ExitCode: out.ExitCode,
			Stderr:   stderr,
		}
	}

	if inv.Raw {
		return ObjectPayload(map[string]any{
			"output":  strings.TrimSpace(stdout),
			"success": true,
		}), nil
	}

	payload := ParseOutput(stdout, NoDataMessage)
	if msg, ok := payload.ErrorMessage(); ok {
		var cause error
		if strings.TrimSpace(stdout) == "" {
			cause = ErrEmptyOutput
		}
		raw, _ := payload.Object["raw_output"].(string)
		return Payload{}, &CLIError{
			Message:  "CLI returned error: " + msg,
			Command:  argv,
			ExitCode: 0,
			Stderr:   raw,
			cause:    cause,
		}
	}
	return payload, nil
}

// decode converts captured bytes to text, replacing invalid sequences
// instead of failing.
func decode(b []byte) string {
	s := string(b)
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}
