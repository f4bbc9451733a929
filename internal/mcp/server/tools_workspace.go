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
	"github.com/spf13/cast"
)

// registerWorkspaceTools registers notebook and workspace directory tools.
func (s *Server) registerWorkspaceTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_workspace",
		Description: "List items in workspace directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Workspace path to list (default: /)",
				},
				"recursive": map[string]interface{}{
					"type":        "boolean",
					"description": "List recursively (default: false)",
					"default":     false,
				},
			},
		},
	}, s.handleListWorkspace)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_workspace_item",
		Description: "Get details of a specific workspace item",
		InputSchema: workspacePathSchema("Workspace path of the item"),
	}, s.handleGetWorkspaceItem)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_notebook",
		Description: "Create a notebook in the workspace with given content",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Workspace path for the new notebook",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Notebook source content",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Notebook language: PYTHON, SCALA, SQL, R (default: PYTHON)",
				},
			},
			Required: []string{"path", "content"},
		},
	}, s.handleCreateNotebook)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "upload_notebook",
		Description: "Upload a local notebook file to workspace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"local_path": map[string]interface{}{
					"type":        "string",
					"description": "Local path of the notebook file",
				},
				"workspace_path": map[string]interface{}{
					"type":        "string",
					"description": "Target workspace path",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Notebook language: PYTHON, SCALA, SQL, R (default: PYTHON)",
				},
			},
			Required: []string{"local_path", "workspace_path"},
		},
	}, s.handleUploadNotebook)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "export_notebook",
		Description: "Export a workspace notebook to a local file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace_path": map[string]interface{}{
					"type":        "string",
					"description": "Workspace path of the notebook to export",
				},
				"local_path": map[string]interface{}{
					"type":        "string",
					"description": "Local path to write the exported notebook to",
				},
				"format": map[string]interface{}{
					"type":        "string",
					"description": "Export format: SOURCE, HTML, JUPYTER, DBC (default: SOURCE)",
				},
			},
			Required: []string{"workspace_path", "local_path"},
		},
	}, s.handleExportNotebook)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "run_notebook",
		Description: "Run a notebook on a cluster and wait for completion",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"notebook_path": map[string]interface{}{
					"type":        "string",
					"description": "Workspace path of the notebook to run",
				},
				"cluster_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the cluster to run on",
				},
				"timeout_seconds": map[string]interface{}{
					"type":        "integer",
					"description": "Run timeout in seconds (default: 3600)",
				},
				"parameters": map[string]interface{}{
					"type":        "object",
					"description": "Base parameters passed to the notebook",
				},
			},
			Required: []string{"notebook_path", "cluster_id"},
		},
	}, s.handleRunNotebook)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_workspace_item",
		Description: "Delete a workspace item (notebook, folder, etc.)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Workspace path to delete",
				},
				"recursive": map[string]interface{}{
					"type":        "boolean",
					"description": "Delete recursively (required for non-empty directories, default: false)",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}, s.handleDeleteWorkspaceItem)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_workspace_directory",
		Description: "Create a directory in the workspace",
		InputSchema: workspacePathSchema("Workspace path of the directory to create"),
	}, s.handleCreateWorkspaceDirectory)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_user_workspace_path",
		Description: "Get current user's workspace path for notebook uploads",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleGetUserWorkspacePath)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "setup_user_workspace",
		Description: "Create user workspace directory structure for MCP operations",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"subdirs": map[string]interface{}{
					"type":        "array",
					"description": "Subdirectories to create (default: notebooks, scripts, temp)",
					"items":       map[string]interface{}{"type": "string"},
				},
			},
		},
	}, s.handleSetupUserWorkspace)
}

func workspacePathSchema(description string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		Required: []string{"path"},
	}
}

func (s *Server) handleListWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_workspace", false)
	if denied != nil {
		return denied, nil
	}

	path := request.GetString("path", "/")
	recursive := request.GetBool("recursive", false)

	result, err := s.workspace.List(ctx, path, recursive)
	if err != nil {
		return s.toolError("list_workspace", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleGetWorkspaceItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("get_workspace_item", false)
	if denied != nil {
		return denied, nil
	}

	path, err := request.RequireString("path")
	if err != nil {
		return errorResponse("Missing or invalid 'path' argument"), nil
	}

	result, err := s.workspace.GetStatus(ctx, path)
	if err != nil {
		return s.toolError("get_workspace_item", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleCreateNotebook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("create_notebook", true)
	if denied != nil {
		return denied, nil
	}

	path, err := request.RequireString("path")
	if err != nil {
		return errorResponse("Missing or invalid 'path' argument"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return errorResponse("Missing or invalid 'content' argument"), nil
	}
	language := request.GetString("language", "PYTHON")

	result, err := s.workspace.CreateNotebook(ctx, path, content, language, "SOURCE")
	if err != nil {
		return s.toolError("create_notebook", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleUploadNotebook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("upload_notebook", true)
	if denied != nil {
		return denied, nil
	}

	localPath, err := request.RequireString("local_path")
	if err != nil {
		return errorResponse("Missing or invalid 'local_path' argument"), nil
	}
	workspacePath, err := request.RequireString("workspace_path")
	if err != nil {
		return errorResponse("Missing or invalid 'workspace_path' argument"), nil
	}
	language := request.GetString("language", "PYTHON")

	result, err := s.workspace.ImportNotebook(ctx, localPath, workspacePath, language)
	if err != nil {
		return s.toolError("upload_notebook", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleExportNotebook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("export_notebook", false)
	if denied != nil {
		return denied, nil
	}

	workspacePath, err := request.RequireString("workspace_path")
	if err != nil {
		return errorResponse("Missing or invalid 'workspace_path' argument"), nil
	}
	localPath, err := request.RequireString("local_path")
	if err != nil {
		return errorResponse("Missing or invalid 'local_path' argument"), nil
	}
	format := request.GetString("format", "SOURCE")

	result, err := s.workspace.ExportNotebook(ctx, workspacePath, localPath, format)
	if err != nil {
		return s.toolError("export_notebook", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleRunNotebook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("run_notebook", true)
	if denied != nil {
		return denied, nil
	}

	notebookPath, err := request.RequireString("notebook_path")
	if err != nil {
		return errorResponse("Missing or invalid 'notebook_path' argument"), nil
	}
	clusterID, err := request.RequireString("cluster_id")
	if err != nil {
		return errorResponse("Missing or invalid 'cluster_id' argument"), nil
	}
	timeoutSeconds := request.GetInt("timeout_seconds", 3600)

	var parameters map[string]string
	if raw, ok := request.GetArguments()["parameters"].(map[string]any); ok {
		parameters = cast.ToStringMapString(raw)
	}

	result, err := s.workspace.RunNotebook(ctx, notebookPath, clusterID, timeoutSeconds, parameters)
	if err != nil {
		return s.toolError("run_notebook", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleDeleteWorkspaceItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("delete_workspace_item", true)
	if denied != nil {
		return denied, nil
	}

	path, err := request.RequireString("path")
	if err != nil {
		return errorResponse("Missing or invalid 'path' argument"), nil
	}
	recursive := request.GetBool("recursive", false)

	result, err := s.workspace.Delete(ctx, path, recursive)
	if err != nil {
		return s.toolError("delete_workspace_item", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleCreateWorkspaceDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("create_workspace_directory", true)
	if denied != nil {
		return denied, nil
	}

	path, err := request.RequireString("path")
	if err != nil {
		return errorResponse("Missing or invalid 'path' argument"), nil
	}

	result, err := s.workspace.Mkdirs(ctx, path)
	if err != nil {
		return s.toolError("create_workspace_directory", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleGetUserWorkspacePath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("get_user_workspace_path", false)
	if denied != nil {
		return denied, nil
	}

	path, err := s.workspace.UserWorkspacePath(ctx)
	if err != nil {
		return s.toolError("get_user_workspace_path", request, err), nil
	}
	return jsonResponse(map[string]any{"user_workspace_path": path}), nil
}

func (s *Server) handleSetupUserWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("setup_user_workspace", true)
	if denied != nil {
		return denied, nil
	}

	subdirs := []string{"notebooks", "scripts", "temp"}
	if raw, ok := request.GetArguments()["subdirs"].([]any); ok && len(raw) > 0 {
		subdirs = cast.ToStringSlice(raw)
	}

	result, err := s.workspace.SetupUserWorkspace(ctx, subdirs)
	if err != nil {
		return s.toolError("setup_user_workspace", request, err), nil
	}
	return jsonResponse(result), nil
}
