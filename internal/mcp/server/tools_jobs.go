// Copyright 2026 the dbxmcp authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dbxmcp/dbxmcp/internal/cli"
)

// registerJobTools registers job management and run debugging tools.
func (s *Server) registerJobTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_jobs",
		Description: "List Databricks jobs in the workspace (defaults to current user's jobs)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of jobs to return (default: 25)",
				},
				"created_by": map[string]interface{}{
					"type":        "string",
					"description": "Filter jobs by creator email",
				},
				"include_all_users": map[string]interface{}{
					"type":        "boolean",
					"description": "Include jobs from all users (default: false)",
					"default":     false,
				},
			},
		},
	}, s.handleListJobs)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_job",
		Description: "Get detailed information about a specific job",
		InputSchema: jobIDSchema("ID of the job to get"),
	}, s.handleGetJob)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_job",
		Description: "Create a new Databricks job with configuration. Can use existing cluster or create new one.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"job_config": map[string]interface{}{
					"type":        "object",
					"description": "Job configuration (name, tasks, schedule, etc.)",
				},
				"existing_cluster_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of an existing cluster to run tasks on (resolved to its ID)",
				},
				"existing_cluster_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of an existing cluster to run tasks on",
				},
			},
			Required: []string{"job_config"},
		},
	}, s.handleCreateJob)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "update_job",
		Description: "Update an existing job's configuration. Use this to modify job settings like schedule, pause/unpause jobs, update tasks, etc. The job_id should NOT be included in the job_config - provide it as a separate parameter.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"job_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the job to update",
				},
				"job_config": map[string]interface{}{
					"type":        "object",
					"description": "New job settings to apply",
				},
			},
			Required: []string{"job_id", "job_config"},
		},
	}, s.handleUpdateJob)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_job",
		Description: "Permanently delete a job",
		InputSchema: jobIDSchema("ID of the job to delete"),
	}, s.handleDeleteJob)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "run_job",
		Description: "Trigger a job run with optional parameters",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"job_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the job to run",
				},
				"parameters": map[string]interface{}{
					"type":        "object",
					"description": "Run parameters (notebook_params, python_params, etc.)",
				},
				"idempotency_token": map[string]interface{}{
					"type":        "string",
					"description": "Token to guarantee at-most-once run submission",
				},
			},
			Required: []string{"job_id"},
		},
	}, s.handleRunJob)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "cancel_job_run",
		Description: "Cancel a running job execution",
		InputSchema: runIDSchema("ID of the run to cancel"),
	}, s.handleCancelJobRun)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_job_run",
		Description: "Get details and status of a job run, including task structure for multi-task jobs. Use this first to identify individual task run IDs for debugging failed tasks.",
		InputSchema: runIDSchema("ID of the run to get"),
	}, s.handleGetJobRun)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_job_run_output",
		Description: "Get output, logs, and error details from a job run for debugging. For multi-task jobs, use individual task run IDs (found in get_job_run response) rather than the job run ID.",
		InputSchema: runIDSchema("ID of the run to get output for"),
	}, s.handleGetJobRunOutput)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "export_job_run",
		Description: "Export comprehensive job run information including code, configuration, and metadata. For multi-task jobs that failed, first use get_job_run to identify failed tasks, then use this tool with task run IDs for detailed debugging.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the run to export",
				},
				"views_to_export": map[string]interface{}{
					"type":        "string",
					"description": "Views to export: CODE, DASHBOARDS, or ALL (default: ALL)",
				},
			},
			Required: []string{"run_id"},
		},
	}, s.handleExportJobRun)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_job_runs",
		Description: "List job run history with optional filtering",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"job_id": map[string]interface{}{
					"type":        "string",
					"description": "Restrict runs to one job",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs to return (default: 25)",
				},
			},
		},
	}, s.handleListJobRuns)
}

func jobIDSchema(description string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"job_id": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		Required: []string{"job_id"},
	}
}

func runIDSchema(description string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"run_id": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		Required: []string{"run_id"},
	}
}

func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_jobs", false)
	if denied != nil {
		return denied, nil
	}

	limit := request.GetInt("limit", 25)
	createdBy := request.GetString("created_by", "")
	includeAllUsers := request.GetBool("include_all_users", false)

	result, err := s.jobs.List(ctx, limit, createdBy, includeAllUsers)
	if err != nil {
		return s.toolError("list_jobs", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleGetJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("get_job", false)
	if denied != nil {
		return denied, nil
	}

	jobID, err := request.RequireString("job_id")
	if err != nil {
		return errorResponse("Missing or invalid 'job_id' argument"), nil
	}

	result, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return s.toolError("get_job", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleCreateJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("create_job", true)
	if denied != nil {
		return denied, nil
	}

	jobConfig, ok := request.GetArguments()["job_config"].(map[string]any)
	if !ok || len(jobConfig) == 0 {
		return errorResponse("Missing or invalid 'job_config' argument"), nil
	}
	existingClusterName := request.GetString("existing_cluster_name", "")
	existingClusterID := request.GetString("existing_cluster_id", "")

	result, err := s.jobs.Create(ctx, jobConfig, existingClusterName, existingClusterID)
	if err != nil {
		return s.toolError("create_job", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleUpdateJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("update_job", true)
	if denied != nil {
		return denied, nil
	}

	jobID, err := request.RequireString("job_id")
	if err != nil {
		return errorResponse("Missing or invalid 'job_id' argument"), nil
	}
	jobConfig, ok := request.GetArguments()["job_config"].(map[string]any)
	if !ok || len(jobConfig) == 0 {
		return errorResponse("Missing or invalid 'job_config' argument"), nil
	}

	result, err := s.jobs.Update(ctx, jobID, jobConfig)
	if err != nil {
		return s.toolError("update_job", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleDeleteJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("delete_job", true)
	if denied != nil {
		return denied, nil
	}

	jobID, err := request.RequireString("job_id")
	if err != nil {
		return errorResponse("Missing or invalid 'job_id' argument"), nil
	}

	result, err := s.jobs.Delete(ctx, jobID)
	if err != nil {
		return s.toolError("delete_job", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleRunJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("run_job", true)
	if denied != nil {
		return denied, nil
	}

	jobID, err := request.RequireString("job_id")
	if err != nil {
		return errorResponse("Missing or invalid 'job_id' argument"), nil
	}
	parameters, _ := request.GetArguments()["parameters"].(map[string]any)
	idempotencyToken := request.GetString("idempotency_token", "")

	result, err := s.jobs.RunNow(ctx, jobID, parameters, idempotencyToken)
	if err != nil {
		return s.toolError("run_job", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleCancelJobRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runOp(ctx, request, "cancel_job_run", true, s.jobs.CancelRun)
}

func (s *Server) handleGetJobRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runOp(ctx, request, "get_job_run", false, s.jobs.GetRun)
}

func (s *Server) handleGetJobRunOutput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runOp(ctx, request, "get_job_run_output", false, s.jobs.GetRunOutput)
}

func (s *Server) runOp(ctx context.Context, request mcp.CallToolRequest, tool string, mutating bool, op func(context.Context, string) (cli.Payload, error)) (*mcp.CallToolResult, error) {
	_, denied := s.begin(tool, mutating)
	if denied != nil {
		return denied, nil
	}

	runID, err := request.RequireString("run_id")
	if err != nil {
		return errorResponse("Missing or invalid 'run_id' argument"), nil
	}

	result, err := op(ctx, runID)
	if err != nil {
		return s.toolError(tool, request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleExportJobRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("export_job_run", false)
	if denied != nil {
		return denied, nil
	}

	runID, err := request.RequireString("run_id")
	if err != nil {
		return errorResponse("Missing or invalid 'run_id' argument"), nil
	}
	views := request.GetString("views_to_export", "ALL")

	result, err := s.jobs.ExportRun(ctx, runID, views)
	if err != nil {
		return s.toolError("export_job_run", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleListJobRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_job_runs", false)
	if denied != nil {
		return denied, nil
	}

	jobID := request.GetString("job_id", "")
	limit := request.GetInt("limit", 25)

	result, err := s.jobs.ListRuns(ctx, jobID, limit)
	if err != nil {
		return s.toolError("list_job_runs", request, err), nil
	}
	return jsonResponse(result), nil
}
