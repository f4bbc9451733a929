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

// Package server implements an MCP server that exposes Databricks CLI
// operations as tools.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dbxmcp/dbxmcp/internal/cli"
	"github.com/dbxmcp/dbxmcp/internal/config"
	"github.com/dbxmcp/dbxmcp/internal/databricks"
	"github.com/dbxmcp/dbxmcp/internal/log"
)

// Server wraps the MCP server and the Databricks domain services.
type Server struct {
	mcpServer   *server.MCPServer
	name        string
	version     string
	rateLimiter *RateLimiter
	logger      *slog.Logger

	clusters  *databricks.Clusters
	jobs      *databricks.Jobs
	workspace *databricks.Workspace
	fs        *databricks.FS
	sql       *databricks.SQL
	models    *databricks.Models
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Config carries the CLI command, profile, and timeout settings.
	// Nil selects defaults.
	Config *config.Config

	// Version is the dbxmcp version string.
	Version string

	// Logger receives diagnostic records. Nil selects a stderr text
	// logger built from the environment.
	Logger *slog.Logger

	// Runner overrides the subprocess launcher. Nil selects os/exec.
	// Tests use this to substitute a fake.
	Runner cli.Runner
}

// NewServer creates a new MCP server instance with all tools registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	conf := cfg.Config
	if conf == nil {
		conf = config.Default()
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.FromEnv())
	}

	exec := cli.New(cli.Config{
		BaseCommand: conf.BaseCommand(),
		Timeout:     conf.Timeout,
		Logger:      log.WithComponent(logger, "executor"),
		Runner:      cfg.Runner,
	})

	svcLogger := log.WithComponent(logger, "databricks")
	clusters := databricks.NewClusters(exec, svcLogger)

	s := &Server{
		mcpServer:   server.NewMCPServer(conf.ServerName, cfg.Version),
		name:        conf.ServerName,
		version:     cfg.Version,
		rateLimiter: NewRateLimiter(20, 100),
		logger:      log.WithComponent(logger, "mcp"),
		clusters:    clusters,
		jobs:        databricks.NewJobs(exec, clusters, svcLogger),
		workspace:   databricks.NewWorkspace(exec, svcLogger),
		fs:          databricks.NewFS(exec, svcLogger),
		sql:         databricks.NewSQL(exec, svcLogger),
		models:      databricks.NewModels(exec, svcLogger),
	}

	s.registerClusterTools()
	s.registerWorkspaceTools()
	s.registerJobTools()
	s.registerFSTools()
	s.registerSQLTools()
	s.registerModelTools()

	return s, nil
}

// Run starts the MCP server using stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting Databricks MCP server",
		slog.String("name", s.name),
		slog.String("version", s.version))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// begin performs the per-call bookkeeping shared by every tool handler:
// the global call rate check, the mutation rate check for mutating tools,
// and a request-scoped logger. A non-nil result means the call was denied.
func (s *Server) begin(tool string, mutating bool) (*slog.Logger, *mcp.CallToolResult) {
	if !s.rateLimiter.AllowCall() {
		return nil, errorResponse("Rate limit exceeded. Please try again later.")
	}
	if mutating && !s.rateLimiter.AllowMutation() {
		return nil, errorResponse("Rate limit exceeded for mutating operations. Please try again later.")
	}

	logger := log.WithRequestID(s.logger, uuid.NewString())
	logger.Info("handling tool call", slog.String(log.ToolKey, tool))
	return logger, nil
}

// toolError wraps a failed tool call in the structured error shape clients
// expect: {error, tool, arguments}. Failures are reported in-band; the
// transport never sees them as protocol errors.
func (s *Server) toolError(tool string, request mcp.CallToolRequest, err error) *mcp.CallToolResult {
	s.logger.Error("tool call failed",
		slog.String(log.ToolKey, tool),
		slog.String("error", err.Error()))

	body := map[string]any{
		"error":     err.Error(),
		"tool":      tool,
		"arguments": request.GetArguments(),
	}
	doc, merr := json.MarshalIndent(body, "", "  ")
	if merr != nil {
		return errorResponse(err.Error())
	}
	return errorResponse(string(doc))
}

// jsonResponse serializes a result value as indented JSON text content.
func jsonResponse(v any) *mcp.CallToolResult {
	doc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to encode result: %v", err))
	}
	return textResponse(string(doc))
}

func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
