package databricks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dbxmcp/dbxmcp/internal/cli"
)

// Jobs manages Databricks jobs and job runs.
type Jobs struct {
	exec     *cli.Executor
	clusters *Clusters
	logger   *slog.Logger
}

// NewJobs creates a Jobs service. clusters is used to resolve existing
// clusters by name when creating jobs; it may be nil if that feature is
// not needed.
func NewJobs(exec *cli.Executor, clusters *Clusters, logger *slog.Logger) *Jobs {
	return &Jobs{exec: exec, clusters: clusters, logger: logger}
}

// List returns jobs, by default filtered to the calling user's jobs.
// createdBy selects another user's jobs; "all" or includeAllUsers disables
// filtering.
func (j *Jobs) List(ctx context.Context, limit int, createdBy string, includeAllUsers bool) (cli.Payload, error) {
	if limit <= 0 {
		limit = 25
	}
	j.logger.Info("listing jobs", slog.Int("limit", limit))

	result, err := j.exec.ExecuteWithRetry(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"jobs", "list", "--limit", strconv.Itoa(limit)}),
	}, cli.DefaultRetryOptions())
	if err != nil {
		return cli.Payload{}, err
	}

	if includeAllUsers || createdBy == "all" {
		return result, nil
	}
	return j.filterByUser(ctx, result, createdBy), nil
}

// filterByUser restricts a jobs listing to one creator. Filtering is
// best-effort: on any lookup failure or unexpected shape the unfiltered
// listing is returned.
func (j *Jobs) filterByUser(ctx context.Context, jobsData cli.Payload, targetUser string) cli.Payload {
	if targetUser == "" {
		user, err := j.currentUser(ctx)
		if err != nil {
			j.logger.Warn("could not resolve current user, returning all jobs", slog.String("error", err.Error()))
			return jobsData
		}
		targetUser = user
	}

	keep := func(entry any) bool {
		job, ok := entry.(map[string]any)
		if !ok {
			return false
		}
		creator, _ := job["creator_user_name"].(string)
		return strings.EqualFold(creator, targetUser)
	}

	switch {
	case jobsData.IsList():
		var filtered []any
		for _, job := range jobsData.List {
			if keep(job) {
				filtered = append(filtered, job)
			}
		}
		j.logger.Info("filtered jobs by user",
			slog.Int("total", len(jobsData.List)),
			slog.Int("kept", len(filtered)),
			slog.String("user", targetUser))
		if filtered == nil {
			filtered = []any{}
		}
		return cli.ListPayload(filtered)

	case jobsData.Object != nil:
		wrapped, ok := jobsData.Object["jobs"].([]any)
		if !ok {
			j.logger.Warn("unexpected jobs listing shape, returning unfiltered")
			return jobsData
		}
		var filtered []any
		for _, job := range wrapped {
			if keep(job) {
				filtered = append(filtered, job)
			}
		}
		j.logger.Info("filtered jobs by user",
			slog.Int("total", len(wrapped)),
			slog.Int("kept", len(filtered)),
			slog.String("user", targetUser))
		if filtered == nil {
			filtered = []any{}
		}
		return cli.ObjectPayload(map[string]any{"jobs": filtered})

	default:
		return jobsData
	}
}

// currentUser resolves the authenticated user's name.
func (j *Jobs) currentUser(ctx context.Context) (string, error) {
	result, err := j.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"current-user", "me"}),
	})
	if err != nil {
		return "", err
	}
	if result.Object != nil {
		if name, ok := result.Object["userName"].(string); ok {
			return name, nil
		}
	}
	return "unknown", nil
}

// Get returns one job's settings and metadata.
func (j *Jobs) Get(ctx context.Context, jobID string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"job_id": jobID}, []string{"job_id"}); err != nil {
		return cli.Payload{}, err
	}
	j.logger.Info("getting job", slog.String("job_id", jobID))
	return j.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"jobs", "get", jobID}),
	})
}

// Create registers a new job. When existingClusterID or existingClusterName
// is given, every task's new_cluster block is replaced with the resolved
// existing cluster.
func (j *Jobs) Create(ctx context.Context, config map[string]any, existingClusterName, existingClusterID string) (cli.Payload, error) {
	name, _ := config["name"].(string)
	j.logger.Info("creating job", slog.String("name", name))

	if existingClusterID == "" && existingClusterName != "" && j.clusters != nil {
		found, err := j.clusters.FindByName(ctx, existingClusterName, "RUNNING")
		if err == nil && found["found"] == true {
			existingClusterID, _ = found["cluster_id"].(string)
			j.logger.Info("resolved cluster by name",
				slog.String("cluster_name", existingClusterName),
				slog.String("cluster_id", existingClusterID))
		} else {
			j.logger.Warn("cluster not found, keeping new_cluster configuration",
				slog.String("cluster_name", existingClusterName))
		}
	}

	if existingClusterID != "" {
		if tasks, ok := config["tasks"].([]any); ok {
			for _, entry := range tasks {
				task, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				delete(task, "new_cluster")
				task["existing_cluster_id"] = existingClusterID
			}
		}
	}

	if err := cli.ValidateRequiredArgs(config, []string{"name"}); err != nil {
		return cli.Payload{}, err
	}

	doc, err := json.Marshal(config)
	if err != nil {
		return cli.Payload{}, &cli.CLIError{
			Message:  "Unexpected error: " + err.Error(),
			ExitCode: cli.ExitUnexpected,
		}
	}

	return j.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"jobs", "create", "--json", string(doc)}),
	})
}

// Update replaces part of a job's settings. The CLI requires job_id inside
// the JSON document (not positionally) and succeeds silently.
func (j *Jobs) Update(ctx context.Context, jobID string, config map[string]any) (map[string]any, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"job_id": jobID}, []string{"job_id"}); err != nil {
		return nil, err
	}
	j.logger.Info("updating job", slog.String("job_id", jobID))

	doc, err := json.Marshal(map[string]any{
		"job_id":       jobID,
		"new_settings": config,
	})
	if err != nil {
		return nil, &cli.CLIError{
			Message:  "Unexpected error: " + err.Error(),
			ExitCode: cli.ExitUnexpected,
		}
	}

	if _, err := j.exec.Execute(ctx, cli.Invocation{
		Args: []string{"jobs", "update", "--json", string(doc)},
		Raw:  true,
	}); err != nil {
		return nil, err
	}

	return map[string]any{
		"success": true,
		"message": fmt.Sprintf("Job %s updated successfully", jobID),
	}, nil
}

// Reset replaces all of a job's settings.
func (j *Jobs) Reset(ctx context.Context, jobID string, config map[string]any) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"job_id": jobID}, []string{"job_id"}); err != nil {
		return cli.Payload{}, err
	}
	j.logger.Info("resetting job", slog.String("job_id", jobID))

	doc, err := json.Marshal(config)
	if err != nil {
		return cli.Payload{}, &cli.CLIError{
			Message:  "Unexpected error: " + err.Error(),
			ExitCode: cli.ExitUnexpected,
		}
	}

	return j.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"jobs", "reset", jobID, "--json", string(doc)}),
	})
}

// Delete removes a job.
func (j *Jobs) Delete(ctx context.Context, jobID string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"job_id": jobID}, []string{"job_id"}); err != nil {
		return cli.Payload{}, err
	}
	j.logger.Info("deleting job", slog.String("job_id", jobID))
	return j.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"jobs", "delete", jobID}),
	})
}

// RunNow triggers a job run. The CLI wants the whole request as JSON when
// --json is used, job_id included. idempotencyToken, when non-empty,
// protects against duplicate runs.
func (j *Jobs) RunNow(ctx context.Context, jobID string, parameters map[string]any, idempotencyToken string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"job_id": jobID}, []string{"job_id"}); err != nil {
		return cli.Payload{}, err
	}
	j.logger.Info("running job", slog.String("job_id", jobID))

	numericID, err := strconv.ParseInt(jobID, 10, 64)
	if err != nil {
		return cli.Payload{}, &cli.CLIError{
			Message:  fmt.Sprintf("Unexpected error: job_id %q is not numeric", jobID),
			ExitCode: cli.ExitUnexpected,
		}
	}

	payload := map[string]any{"job_id": numericID}
	for k, v := range parameters {
		payload[k] = v
	}
	if idempotencyToken != "" {
		payload["idempotency_token"] = idempotencyToken
	}

	doc, err := json.Marshal(payload)
	if err != nil {
		return cli.Payload{}, &cli.CLIError{
			Message:  "Unexpected error: " + err.Error(),
			ExitCode: cli.ExitUnexpected,
		}
	}

	return j.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"jobs", "run-now", "--json", string(doc)}),
	})
}

// CancelRun cancels an active job run.
func (j *Jobs) CancelRun(ctx context.Context, runID string) (cli.Payload, error) {
	return j.runOp(ctx, "cancel-run", runID)
}

// GetRun returns metadata for one job run.
func (j *Jobs) GetRun(ctx context.Context, runID string) (cli.Payload, error) {
	return j.runOp(ctx, "get-run", runID)
}

// GetRunOutput returns a run's output: task results, error traces, and
// notebook return values. The primary tool for debugging failed runs.
func (j *Jobs) GetRunOutput(ctx context.Context, runID string) (cli.Payload, error) {
	return j.runOp(ctx, "get-run-output", runID)
}

func (j *Jobs) runOp(ctx context.Context, verb, runID string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"run_id": runID}, []string{"run_id"}); err != nil {
		return cli.Payload{}, err
	}
	j.logger.Info("job run operation",
		slog.String("operation", verb),
		slog.String("run_id", runID))
	return j.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"jobs", verb, runID}),
	})
}

// ListRuns lists job runs, optionally restricted to one job.
func (j *Jobs) ListRuns(ctx context.Context, jobID string, limit int) (cli.Payload, error) {
	if limit <= 0 {
		limit = 25
	}
	j.logger.Info("listing job runs", slog.String("job_id", jobID), slog.Int("limit", limit))

	args := []string{"jobs", "list-runs", "--limit", strconv.Itoa(limit)}
	args = withJSONOutput(args)
	if jobID != "" {
		args = append(args, "--job-id", jobID)
	}
	return j.exec.ExecuteWithRetry(ctx, cli.Invocation{Args: args}, cli.DefaultRetryOptions())
}

// Valid views for ExportRun.
const (
	ExportViewsCode       = "CODE"
	ExportViewsDashboards = "DASHBOARDS"
	ExportViewsAll        = "ALL"
)

// ExportRun exports a job run's task definitions, notebook code and
// dashboards for offline inspection.
func (j *Jobs) ExportRun(ctx context.Context, runID, viewsToExport string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"run_id": runID}, []string{"run_id"}); err != nil {
		return cli.Payload{}, err
	}

	if viewsToExport == "" {
		viewsToExport = ExportViewsAll
	}
	views := strings.ToUpper(viewsToExport)
	switch views {
	case ExportViewsCode, ExportViewsDashboards, ExportViewsAll:
	default:
		return cli.Payload{}, &cli.CLIError{
			Message:  fmt.Sprintf("Missing required arguments: views_to_export must be one of CODE, DASHBOARDS, ALL (got %q)", viewsToExport),
			ExitCode: cli.ExitTimeout,
		}
	}

	j.logger.Info("exporting job run", slog.String("run_id", runID), slog.String("views", views))
	return j.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"jobs", "export-run", runID, "--views-to-export", views}),
	})
}
