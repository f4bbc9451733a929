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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "databricks", cfg.CLICommand)
	assert.Equal(t, 300*time.Second, cfg.Timeout)
	assert.Equal(t, "databricks-mcp", cfg.ServerName)
	assert.Empty(t, cfg.Profile)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABRICKS_CLI_COMMAND", "/opt/databricks/bin/databricks")
	t.Setenv("DATABRICKS_PROFILE", "staging")
	t.Setenv("DBX_MCP_TIMEOUT", "120")
	t.Setenv("DBX_MCP_SERVER_NAME", "dbx-staging")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/opt/databricks/bin/databricks", cfg.CLICommand)
	assert.Equal(t, "staging", cfg.Profile)
	assert.Equal(t, 120*time.Second, cfg.Timeout)
	assert.Equal(t, "dbx-staging", cfg.ServerName)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cli_command: dbx
profile: prod
timeout: 60
log_level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dbx", cfg.CLICommand)
	assert.Equal(t, "prod", cfg.Profile)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset file fields keep defaults.
	assert.Equal(t, "databricks-mcp", cfg.ServerName)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profile: from-file\n"), 0o644))

	t.Setenv("DATABRICKS_PROFILE", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Profile)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadIgnoresBadTimeoutEnv(t *testing.T) {
	t.Setenv("DBX_MCP_TIMEOUT", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "empty command", mutate: func(c *Config) { c.CLICommand = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseCommand(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"databricks"}, cfg.BaseCommand())

	cfg.Profile = "staging"
	assert.Equal(t, []string{"databricks", "--profile", "staging"}, cfg.BaseCommand())
}
