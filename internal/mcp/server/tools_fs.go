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

// registerFSTools registers DBFS file management tools.
func (s *Server) registerFSTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_files",
		Description: "List files and directories in a DBFS path",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dbfs_path": map[string]interface{}{
					"type":        "string",
					"description": "DBFS path to list (default: /)",
				},
			},
		},
	}, s.handleListFiles)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "upload_file",
		Description: "Upload a local file to DBFS",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"local_path": map[string]interface{}{
					"type":        "string",
					"description": "Local path of the file to upload",
				},
				"dbfs_path": map[string]interface{}{
					"type":        "string",
					"description": "Target DBFS path",
				},
				"overwrite": map[string]interface{}{
					"type":        "boolean",
					"description": "Overwrite an existing file (default: false)",
					"default":     false,
				},
			},
			Required: []string{"local_path", "dbfs_path"},
		},
	}, s.handleUploadFile)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "download_file",
		Description: "Download a file from DBFS to local filesystem",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dbfs_path": map[string]interface{}{
					"type":        "string",
					"description": "DBFS path of the file to download",
				},
				"local_path": map[string]interface{}{
					"type":        "string",
					"description": "Local path to save the file to",
				},
				"overwrite": map[string]interface{}{
					"type":        "boolean",
					"description": "Overwrite an existing local file (default: false)",
					"default":     false,
				},
			},
			Required: []string{"dbfs_path", "local_path"},
		},
	}, s.handleDownloadFile)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_file",
		Description: "Delete a file or directory from DBFS",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dbfs_path": map[string]interface{}{
					"type":        "string",
					"description": "DBFS path to delete",
				},
				"recursive": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether to delete recursively (for directories, default: false)",
					"default":     false,
				},
			},
			Required: []string{"dbfs_path"},
		},
	}, s.handleDeleteFile)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_dbfs_directory",
		Description: "Create a directory in DBFS (parents included)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dbfs_path": map[string]interface{}{
					"type":        "string",
					"description": "DBFS path of the directory to create",
				},
			},
			Required: []string{"dbfs_path"},
		},
	}, s.handleCreateDBFSDirectory)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move_file",
		Description: "Move a file or directory within DBFS",
		InputSchema: transferSchema(),
	}, s.handleMoveFile)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "copy_file",
		Description: "Copy a file within DBFS",
		InputSchema: transferSchema(),
	}, s.handleCopyFile)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_file_info",
		Description: "Get information about a file or directory in DBFS",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dbfs_path": map[string]interface{}{
					"type":        "string",
					"description": "DBFS path to inspect",
				},
			},
			Required: []string{"dbfs_path"},
		},
	}, s.handleGetFileInfo)
}

func transferSchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"source_path": map[string]interface{}{
				"type":        "string",
				"description": "Source DBFS path",
			},
			"destination_path": map[string]interface{}{
				"type":        "string",
				"description": "Destination DBFS path",
			},
			"overwrite": map[string]interface{}{
				"type":        "boolean",
				"description": "Overwrite an existing destination (default: false)",
				"default":     false,
			},
		},
		Required: []string{"source_path", "destination_path"},
	}
}

func (s *Server) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("list_files", false)
	if denied != nil {
		return denied, nil
	}

	dbfsPath := request.GetString("dbfs_path", "/")

	result, err := s.fs.List(ctx, dbfsPath)
	if err != nil {
		return s.toolError("list_files", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleUploadFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("upload_file", true)
	if denied != nil {
		return denied, nil
	}

	localPath, err := request.RequireString("local_path")
	if err != nil {
		return errorResponse("Missing or invalid 'local_path' argument"), nil
	}
	dbfsPath, err := request.RequireString("dbfs_path")
	if err != nil {
		return errorResponse("Missing or invalid 'dbfs_path' argument"), nil
	}
	overwrite := request.GetBool("overwrite", false)

	result, err := s.fs.Upload(ctx, localPath, dbfsPath, overwrite)
	if err != nil {
		return s.toolError("upload_file", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleDownloadFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("download_file", false)
	if denied != nil {
		return denied, nil
	}

	dbfsPath, err := request.RequireString("dbfs_path")
	if err != nil {
		return errorResponse("Missing or invalid 'dbfs_path' argument"), nil
	}
	localPath, err := request.RequireString("local_path")
	if err != nil {
		return errorResponse("Missing or invalid 'local_path' argument"), nil
	}
	overwrite := request.GetBool("overwrite", false)

	result, err := s.fs.Download(ctx, dbfsPath, localPath, overwrite)
	if err != nil {
		return s.toolError("download_file", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleDeleteFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("delete_file", true)
	if denied != nil {
		return denied, nil
	}

	dbfsPath, err := request.RequireString("dbfs_path")
	if err != nil {
		return errorResponse("Missing or invalid 'dbfs_path' argument"), nil
	}
	recursive := request.GetBool("recursive", false)

	result, err := s.fs.Delete(ctx, dbfsPath, recursive)
	if err != nil {
		return s.toolError("delete_file", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleCreateDBFSDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("create_dbfs_directory", true)
	if denied != nil {
		return denied, nil
	}

	dbfsPath, err := request.RequireString("dbfs_path")
	if err != nil {
		return errorResponse("Missing or invalid 'dbfs_path' argument"), nil
	}

	result, err := s.fs.Mkdirs(ctx, dbfsPath)
	if err != nil {
		return s.toolError("create_dbfs_directory", request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleMoveFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.transferOp(ctx, request, "move_file", s.fs.Move)
}

func (s *Server) handleCopyFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.transferOp(ctx, request, "copy_file", s.fs.Copy)
}

func (s *Server) transferOp(ctx context.Context, request mcp.CallToolRequest, tool string, op func(context.Context, string, string, bool) (cli.Payload, error)) (*mcp.CallToolResult, error) {
	_, denied := s.begin(tool, true)
	if denied != nil {
		return denied, nil
	}

	sourcePath, err := request.RequireString("source_path")
	if err != nil {
		return errorResponse("Missing or invalid 'source_path' argument"), nil
	}
	destPath, err := request.RequireString("destination_path")
	if err != nil {
		return errorResponse("Missing or invalid 'destination_path' argument"), nil
	}
	overwrite := request.GetBool("overwrite", false)

	result, err := op(ctx, sourcePath, destPath, overwrite)
	if err != nil {
		return s.toolError(tool, request, err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleGetFileInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, denied := s.begin("get_file_info", false)
	if denied != nil {
		return denied, nil
	}

	dbfsPath, err := request.RequireString("dbfs_path")
	if err != nil {
		return errorResponse("Missing or invalid 'dbfs_path' argument"), nil
	}

	result, err := s.fs.FileInfo(ctx, dbfsPath)
	if err != nil {
		return s.toolError("get_file_info", request, err), nil
	}
	return jsonResponse(result), nil
}
