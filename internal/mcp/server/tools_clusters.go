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
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/dbxmcp/dbxmcp/internal/cli"
)

type clusterOp func(context.Context, string) (cli.Payload, error)

type libraryFn func(context.Context, string, []any) (map[string]any, error)

// registerClusterTools registers cluster lifecycle and library tools.
func (s *Server) registerClusterTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_clusters",
		Description: "List all clusters in the Databricks workspace",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListClusters)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_cluster",
		Description: "Get details of a specific cluster by ID",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"cluster_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the cluster to get details for",
				},
			},
			Required: []string{"cluster_id"},
		},
	}, s.handleGetCluster)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_cluster",
		Description: "Create a new cluster",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"cluster_name": map[string]interface{}{
					"type":        "string",
					"description": "Name for the new cluster",
				},
				"spark_version": map[string]interface{}{
					"type":        "string",
					"description": "Spark version (e.g., '13.3.x-scala2.12')",
				},
				"node_type_id": map[string]interface{}{
					"type":        "string",
					"description": "Node type ID (e.g., 'i3.xlarge')",
				},
				"num_workers": map[string]interface{}{
					"type":        "integer",
					"description": "Number of worker nodes (default: 1)",
				},
				"driver_node_type_id": map[string]interface{}{
					"type":        "string",
					"description": "Driver node type (defaults to node_type_id)",
				},
				"autoscale_min_workers": map[string]interface{}{
					"type":        "integer",
					"description": "Minimum workers for autoscaling (requires autoscale_max_workers)",
				},
				"autoscale_max_workers": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum workers for autoscaling (requires autoscale_min_workers)",
				},
				"cluster_config_json": map[string]interface{}{
					"type":        "string",
					"description": "Complete cluster configuration as a JSON string; merged over the other fields",
				},
			},
			Required: []string{"cluster_name", "spark_version", "node_type_id"},
		},
	}, s.handleCreateCluster)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "start_cluster",
		Description: "Start a stopped cluster",
		InputSchema: clusterIDSchema("ID of the cluster to start"),
	}, s.handleStartCluster)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "terminate_cluster",
		Description: "Terminate a running cluster (configuration is retained)",
		InputSchema: clusterIDSchema("ID of the cluster to terminate"),
	}, s.handleTerminateCluster)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_cluster",
		Description: "Permanently delete a cluster",
		InputSchema: clusterIDSchema("ID of the cluster to delete permanently"),
	}, s.handleDeleteCluster)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_cluster",
		Description: "Restart a running cluster",
		InputSchema: clusterIDSchema("ID of the cluster to restart"),
	}, s.handleRestartCluster)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "find_cluster_by_name",
		Description: "Find a cluster by name with optional state filtering",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"cluster_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the cluster to find",
				},
				"state": map[string]interface{}{
					"type":        "string",
					"description": "Filter by state: RUNNING, TERMINATED, PENDING, or ALL (default: RUNNING)",
				},
			},
			Required: []string{"cluster_name"},
		},
	}, s.handleFindClusterByName)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "install_libraries",
		Description: "Install libraries on a Databricks cluster (Maven, PyPI, or workspace wheel files)",
		InputSchema: librariesSchema("Libraries to install"),
	}, s.handleInstallLibraries)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "uninstall_libraries",
		Description: "Uninstall libraries from a Databricks cluster (requires cluster restart)",
		InputSchema: librariesSchema("Libraries to uninstall"),
	}, s.handleUninstallLibraries)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_cluster_libraries",
		Description: "List all libraries installed on a Databricks cluster with their status",
		InputSchema: clusterIDSchema("ID of the cluster to list libraries for"),
	}, s.handleListClusterLibraries)
}

func clusterIDSchema(description string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"cluster_id": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		Required: []string{"cluster_id"},
	}
}

func librariesSchema(description string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"cluster_id": map[string]interface{}{
				"type":        "string",
				"description": "ID of the target cluster",
			},
			"libraries": map[string]interface{}{
				"type":        "array",
				"description": description + ", e.g. [{\"pypi\": {\"package\": \"requests\"}}]",
				"items":       map[string]interface{}{"type": "object"},
			},
		},
		Required: []string{"cluster_id", "libraries"},
	}
}

func (s *Server) handleListClusters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_clusters", false)
	if denied != nil {
		return denied, nil
	}

	result, err := s.clusters.List(ctx)
	if err != nil {
		return s.toolError("list_clusters", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleGetCluster(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("get_cluster", false)
	if denied != nil {
		return denied, nil
	}

	clusterID, err := request.RequireString("cluster_id")
	if err != nil {
		return errorResponse("Missing or invalid 'cluster_id' argument"), nil
	}

	result, err := s.clusters.Get(ctx, clusterID)
	if err != nil {
		return s.toolError("get_cluster", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleCreateCluster(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("create_cluster", true)
	if denied != nil {
		return denied, nil
	}

	clusterName, err := request.RequireString("cluster_name")
	if err != nil {
		return errorResponse("Missing or invalid 'cluster_name' argument"), nil
	}
	sparkVersion, err := request.RequireString("spark_version")
	if err != nil {
		return errorResponse("Missing or invalid 'spark_version' argument"), nil
	}
	nodeTypeID, err := request.RequireString("node_type_id")
	if err != nil {
		return errorResponse("Missing or invalid 'node_type_id' argument"), nil
	}

	clusterConfig := map[string]any{
		"cluster_name":  clusterName,
		"spark_version": sparkVersion,
		"node_type_id":  nodeTypeID,
	}

	args := request.GetArguments()
	if driver := cast.ToString(args["driver_node_type_id"]); driver != "" {
		clusterConfig["driver_node_type_id"] = driver
	}
	if workers, ok := args["num_workers"]; ok && workers != nil {
		clusterConfig["num_workers"] = cast.ToInt(workers)
	}
	minW, hasMin := args["autoscale_min_workers"]
	maxW, hasMax := args["autoscale_max_workers"]
	if hasMin && hasMax && minW != nil && maxW != nil {
		clusterConfig["autoscale"] = map[string]any{
			"min_workers": cast.ToInt(minW),
			"max_workers": cast.ToInt(maxW),
		}
	}
	if raw := request.GetString("cluster_config_json", ""); raw != "" {
		var extra map[string]any
		if err := json.Unmarshal([]byte(raw), &extra); err != nil {
			return errorResponse(fmt.Sprintf("Invalid JSON in cluster_config_json: %v", err)), nil
		}
		for k, v := range extra {
			clusterConfig[k] = v
		}
	}

	result, err := s.clusters.Create(ctx, clusterConfig)
	if err != nil {
		return s.toolError("create_cluster", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleStartCluster(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.clusterLifecycle(ctx, request, "start_cluster", s.clusters.Start)
}

func (s *Server) handleTerminateCluster(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.clusterLifecycle(ctx, request, "terminate_cluster", s.clusters.Terminate)
}

func (s *Server) handleDeleteCluster(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.clusterLifecycle(ctx, request, "delete_cluster", s.clusters.PermanentDelete)
}

func (s *Server) handleRestartCluster(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.clusterLifecycle(ctx, request, "restart_cluster", s.clusters.Restart)
}

func (s *Server) clusterLifecycle(ctx context.Context, request mcp.CallToolRequest, tool string, op clusterOp) (*mcp.CallToolResult, error) {
	_, denied := s.begin(tool, true)
	if denied != nil {
		return denied, nil
	}

	clusterID, err := request.RequireString("cluster_id")
	if err != nil {
		return errorResponse("Missing or invalid 'cluster_id' argument"), nil
	}

	result, err := op(ctx, clusterID)
	if err != nil {
		return s.toolError(tool, request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleFindClusterByName(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("find_cluster_by_name", false)
	if denied != nil {
		return denied, nil
	}

	clusterName, err := request.RequireString("cluster_name")
	if err != nil {
		return errorResponse("Missing or invalid 'cluster_name' argument"), nil
	}
	state := request.GetString("state", "")

	result, err := s.clusters.FindByName(ctx, clusterName, state)
	if err != nil {
		return s.toolError("find_cluster_by_name", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleInstallLibraries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.libraryOp(ctx, request, "install_libraries", s.clusters.InstallLibraries)
}

func (s *Server) handleUninstallLibraries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.libraryOp(ctx, request, "uninstall_libraries", s.clusters.UninstallLibraries)
}

func (s *Server) libraryOp(ctx context.Context, request mcp.CallToolRequest, tool string, op libraryFn) (*mcp.CallToolResult, error) {
	_, denied := s.begin(tool, true)
	if denied != nil {
		return denied, nil
	}

	clusterID, err := request.RequireString("cluster_id")
	if err != nil {
		return errorResponse("Missing or invalid 'cluster_id' argument"), nil
	}
	libraries, ok := request.GetArguments()["libraries"].([]any)
	if !ok || len(libraries) == 0 {
		return errorResponse("Missing or invalid 'libraries' argument"), nil
	}

	result, err := op(ctx, clusterID, libraries)
	if err != nil {
		return s.toolError(tool, request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleListClusterLibraries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_cluster_libraries", false)
	if denied != nil {
		return denied, nil
	}

	clusterID, err := request.RequireString("cluster_id")
	if err != nil {
		return errorResponse("Missing or invalid 'cluster_id' argument"), nil
	}

	result, err := s.clusters.LibraryStatus(ctx, clusterID)
	if err != nil {
		return s.toolError("list_cluster_libraries", request, err), nil
	}
	return jsonResponse(result), nil
}
