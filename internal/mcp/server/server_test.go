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
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbxmcp/dbxmcp/internal/cli"
	"github.com/dbxmcp/dbxmcp/internal/config"
)

type stubRunner struct {
	stdout string
	calls  int
}

func (s *stubRunner) Run(ctx context.Context, argv []string, stdin string) (cli.RunOutput, error) {
	s.calls++
	return cli.RunOutput{Stdout: []byte(s.stdout)}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNewServerDefaults(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger: testLogger(),
		Runner: &stubRunner{stdout: "{}"},
	})
	require.NoError(t, err)

	assert.Equal(t, "databricks-mcp", srv.name)
	assert.Equal(t, "dev", srv.version)
	assert.NotNil(t, srv.rateLimiter)
	assert.NotNil(t, srv.clusters)
	assert.NotNil(t, srv.jobs)
	assert.NotNil(t, srv.workspace)
	assert.NotNil(t, srv.fs)
	assert.NotNil(t, srv.sql)
	assert.NotNil(t, srv.models)
}

func TestNewServerExplicitConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ServerName = "dbx-test"
	cfg.Timeout = 30 * time.Second

	srv, err := NewServer(ServerConfig{
		Config:  cfg,
		Version: "1.2.3",
		Logger:  testLogger(),
		Runner:  &stubRunner{stdout: "{}"},
	})
	require.NoError(t, err)

	assert.Equal(t, "dbx-test", srv.name)
	assert.Equal(t, "1.2.3", srv.version)
}

func TestNewServerInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Timeout = 0

	srv, err := NewServer(ServerConfig{Config: cfg, Logger: testLogger()})
	require.Error(t, err)
	assert.Nil(t, srv)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestBeginAllowsCallAndReturnsLogger(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger: testLogger(),
		Runner: &stubRunner{stdout: "{}"},
	})
	require.NoError(t, err)

	logger, denied := srv.begin("list_clusters", false)
	assert.Nil(t, denied)
	assert.NotNil(t, logger)
}

func TestBeginDeniesWhenCallBudgetExhausted(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger: testLogger(),
		Runner: &stubRunner{stdout: "{}"},
	})
	require.NoError(t, err)
	srv.rateLimiter = NewRateLimiter(0, 0)

	logger, denied := srv.begin("list_clusters", false)
	assert.Nil(t, logger)
	require.NotNil(t, denied)
	assert.True(t, denied.IsError)
	assert.Contains(t, resultText(t, denied), "Rate limit exceeded")
}

func TestBeginDeniesMutationsSeparately(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger: testLogger(),
		Runner: &stubRunner{stdout: "{}"},
	})
	require.NoError(t, err)
	srv.rateLimiter = NewRateLimiter(0, 100)

	// Read path stays open while mutations are denied.
	logger, denied := srv.begin("list_clusters", false)
	assert.NotNil(t, logger)
	assert.Nil(t, denied)

	logger, denied = srv.begin("create_cluster", true)
	assert.Nil(t, logger)
	require.NotNil(t, denied)
	assert.Contains(t, resultText(t, denied), "mutating")
}

func TestToolErrorShape(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger: testLogger(),
		Runner: &stubRunner{stdout: "{}"},
	})
	require.NoError(t, err)

	request := mcp.CallToolRequest{}
	request.Params.Name = "get_cluster"
	request.Params.Arguments = map[string]any{"cluster_id": "c1"}

	result := srv.toolError("get_cluster", request, &cli.CLIError{
		Message:  "Cluster not found",
		ExitCode: 1,
	})
	require.True(t, result.IsError)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &body))
	assert.Equal(t, "CLI error: Cluster not found (exit code 1)", body["error"])
	assert.Equal(t, "get_cluster", body["tool"])
	args := body["arguments"].(map[string]any)
	assert.Equal(t, "c1", args["cluster_id"])
}

func TestJSONResponse(t *testing.T) {
	result := jsonResponse(map[string]any{"cluster_id": "c1"})
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, `"cluster_id": "c1"`)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &body))
	assert.Equal(t, "c1", body["cluster_id"])
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}
