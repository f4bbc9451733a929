package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner scripts child process outcomes and records what the executor
// asked for.
type fakeRunner struct {
	outputs []fakeResult
	calls   []fakeCall
}

type fakeResult struct {
	out RunOutput
	err error
}

type fakeCall struct {
	argv     []string
	stdin    string
	deadline time.Time
}

func (f *fakeRunner) Run(ctx context.Context, argv []string, stdin string) (RunOutput, error) {
	deadline, _ := ctx.Deadline()
	f.calls = append(f.calls, fakeCall{argv: argv, stdin: stdin, deadline: deadline})

	i := len(f.calls) - 1
	if i >= len(f.outputs) {
		i = len(f.outputs) - 1
	}
	r := f.outputs[i]
	return r.out, r.err
}

func stdoutResult(stdout string) fakeResult {
	return fakeResult{out: RunOutput{Stdout: []byte(stdout)}}
}

func newTestExecutor(runner Runner, timeout time.Duration) *Executor {
	return New(Config{
		BaseCommand: []string{"databricks"},
		Timeout:     timeout,
		Runner:      runner,
	})
}

func TestExecuteEmptyArgv(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{stdoutResult(`{}`)}}
	exec := New(Config{Runner: runner})

	_, err := exec.Execute(context.Background(), Invocation{})

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, ExitTimeout, cliErr.ExitCode)
	assert.Empty(t, runner.calls)
}

func TestExecuteParsesObjectOutput(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{stdoutResult(`{"cluster_id": "c1"}`)}}
	exec := newTestExecutor(runner, 5*time.Second)

	payload, err := exec.Execute(context.Background(), Invocation{Args: []string{"clusters", "get", "c1"}})
	require.NoError(t, err)
	assert.Equal(t, "c1", payload.Object["cluster_id"])

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"databricks", "clusters", "get", "c1"}, runner.calls[0].argv)
}

func TestExecuteParsesListOutput(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{stdoutResult(`[{"job_id": 1}]`)}}
	exec := newTestExecutor(runner, 5*time.Second)

	payload, err := exec.Execute(context.Background(), Invocation{Args: []string{"jobs", "list"}})
	require.NoError(t, err)
	assert.True(t, payload.IsList())
	assert.Len(t, payload.List, 1)
}

func TestExecuteTimeout(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{{err: context.DeadlineExceeded}}}
	exec := newTestExecutor(runner, 5*time.Second)

	_, err := exec.Execute(context.Background(), Invocation{Args: []string{"clusters", "list"}})
	require.Error(t, err)

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, ExitTimeout, cliErr.ExitCode)
	assert.Equal(t, "Command timed out after 5 seconds", cliErr.Message)
	assert.Equal(t, []string{"databricks", "clusters", "list"}, cliErr.Command)
}

func TestExecuteLaunchFailure(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{{err: errors.New("executable not found")}}}
	exec := newTestExecutor(runner, 5*time.Second)

	_, err := exec.Execute(context.Background(), Invocation{Args: []string{"clusters", "list"}})

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, ExitUnexpected, cliErr.ExitCode)
	assert.Equal(t, "Unexpected error: executable not found", cliErr.Message)
}

func TestExecuteNonZeroExit(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{{
		out: RunOutput{Stderr: []byte("Cluster abc not found"), ExitCode: 1},
	}}}
	exec := newTestExecutor(runner, 5*time.Second)

	_, err := exec.Execute(context.Background(), Invocation{Args: []string{"clusters", "get", "abc"}})

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, 1, cliErr.ExitCode)
	assert.Equal(t, "Error: Cluster abc not found", cliErr.Message)
	assert.Equal(t, "Cluster abc not found", cliErr.Stderr)
}

func TestExecuteRawOutput(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{stdoutResult("  plain text output \n")}}
	exec := newTestExecutor(runner, 5*time.Second)

	payload, err := exec.Execute(context.Background(), Invocation{
		Args: []string{"libraries", "install"},
		Raw:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "plain text output", payload.Object["output"])
	assert.Equal(t, true, payload.Object["success"])
}

func TestExecuteEmptyOutputIsSoftFailure(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{stdoutResult("")}}
	exec := newTestExecutor(runner, 5*time.Second)

	_, err := exec.Execute(context.Background(), Invocation{Args: []string{"workspace", "mkdirs", "/x"}})
	require.Error(t, err)

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, 0, cliErr.ExitCode)
	assert.Equal(t, "CLI returned error: No data returned", cliErr.Message)
	assert.True(t, errors.Is(err, ErrEmptyOutput))
}

func TestExecuteMalformedOutput(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{stdoutResult("{broken json")}}
	exec := newTestExecutor(runner, 5*time.Second)

	_, err := exec.Execute(context.Background(), Invocation{Args: []string{"clusters", "list"}})
	require.Error(t, err)

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, 0, cliErr.ExitCode)
	assert.Contains(t, cliErr.Message, "Failed to parse JSON output")
	assert.Equal(t, "{broken json", cliErr.Stderr)
	assert.False(t, errors.Is(err, ErrEmptyOutput))
}

func TestExecuteStdinForwarded(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{stdoutResult(`{}`)}}
	exec := newTestExecutor(runner, 5*time.Second)

	_, err := exec.Execute(context.Background(), Invocation{
		Args:  []string{"fs", "put"},
		Input: "file contents",
	})
	require.NoError(t, err)
	assert.Equal(t, "file contents", runner.calls[0].stdin)
}

func TestExecuteProfileInBaseCommand(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{stdoutResult(`{}`)}}
	exec := New(Config{
		BaseCommand: []string{"databricks", "--profile", "staging"},
		Timeout:     time.Second,
		Runner:      runner,
	})

	_, err := exec.Execute(context.Background(), Invocation{Args: []string{"jobs", "list"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"databricks", "--profile", "staging", "jobs", "list"}, runner.calls[0].argv)
}

func TestExecutePerInvocationTimeoutOverride(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{stdoutResult(`{}`)}}
	exec := newTestExecutor(runner, 30*time.Second)

	_, err := exec.Execute(context.Background(), Invocation{
		Args:    []string{"workspace", "run-notebook"},
		Timeout: 10 * time.Minute,
	})
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	remaining := time.Until(runner.calls[0].deadline)
	assert.Greater(t, remaining, 5*time.Minute)
}

func TestExecuteInvalidUTF8Replaced(t *testing.T) {
	runner := &fakeRunner{outputs: []fakeResult{{
		out: RunOutput{Stdout: append([]byte(`{"name": "ab`), 0xff, 'c', '"', '}')},
	}}}
	exec := newTestExecutor(runner, 5*time.Second)

	payload, err := exec.Execute(context.Background(), Invocation{Args: []string{"x"}})
	require.NoError(t, err)
	name, _ := payload.Object["name"].(string)
	assert.Contains(t, name, "�")
}

func TestNewDefaults(t *testing.T) {
	exec := New(Config{BaseCommand: []string{"databricks"}})
	assert.Equal(t, 300*time.Second, exec.Timeout())
}
