package databricks

import (
	"context"
	"log/slog"
	"time"

	"github.com/dbxmcp/dbxmcp/internal/cli"
)

// fakeRunner scripts CLI responses in call order and records every argument
// vector. When more calls arrive than responses, the last response repeats.
type fakeRunner struct {
	responses []response
	calls     [][]string
	deadlines []time.Time
}

type response struct {
	stdout string
	stderr string
	exit   int
}

func (f *fakeRunner) Run(ctx context.Context, argv []string, stdin string) (cli.RunOutput, error) {
	f.calls = append(f.calls, argv)
	deadline, _ := ctx.Deadline()
	f.deadlines = append(f.deadlines, deadline)

	i := len(f.calls) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	r := f.responses[i]
	return cli.RunOutput{
		Stdout:   []byte(r.stdout),
		Stderr:   []byte(r.stderr),
		ExitCode: r.exit,
	}, nil
}

func ok(stdout string) response { return response{stdout: stdout} }

func newFakeExec(runner *fakeRunner) *cli.Executor {
	return cli.New(cli.Config{
		BaseCommand: []string{"databricks"},
		Timeout:     5 * time.Second,
		Runner:      runner,
	})
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
