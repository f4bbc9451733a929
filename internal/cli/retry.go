package cli

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// RetryOptions configures ExecuteWithRetry.
type RetryOptions struct {
	// MaxRetries is the number of additional attempts after the first.
	// Total attempts = MaxRetries + 1.
	MaxRetries int

	// Delay is the pause between attempts.
	Delay time.Duration
}

// DefaultRetryOptions returns the standard retry policy: three attempts,
// one second apart.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{MaxRetries: 2, Delay: time.Second}
}

// Retryable reports whether a failure is worth another attempt. Exit codes
// 1 and 2 with a "not found" message mean the resource does not exist and
// retrying cannot help; everything else, timeouts included, is treated as
// transient.
func Retryable(err *CLIError) bool {
	if err.ExitCode == 1 || err.ExitCode == 2 {
		if strings.Contains(strings.ToLower(err.Message), "not found") {
			return false
		}
	}
	return true
}

// ExecuteWithRetry runs an invocation with bounded retry. Attempts are
// strictly sequential; intermediate failures are logged and discarded, and
// the final failure is returned unchanged.
func (e *Executor) ExecuteWithRetry(ctx context.Context, inv Invocation, opts RetryOptions) (Payload, error) {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		payload, err := e.Execute(ctx, inv)
		if err == nil {
			if attempt > 0 {
				e.logger.Info("command succeeded after retry", slog.Int("attempt", attempt))
			}
			return payload, nil
		}
		lastErr = err

		var cliErr *CLIError
		if errors.As(err, &cliErr) && !Retryable(cliErr) {
			return Payload{}, err
		}

		if attempt < opts.MaxRetries {
			e.logger.Warn("command failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", opts.MaxRetries+1),
				slog.Duration("delay", opts.Delay),
				slog.String("error", err.Error()))
			select {
			case <-time.After(opts.Delay):
			case <-ctx.Done():
				return Payload{}, lastErr
			}
		} else {
			e.logger.Error("command failed after all attempts",
				slog.Int("attempts", opts.MaxRetries+1),
				slog.String("error", err.Error()))
		}
	}

	return Payload{}, lastErr
}
