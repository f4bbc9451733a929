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

// Package config loads server configuration from environment variables and
// an optional YAML file. Environment variables take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Defaults for unset fields.
const (
	DefaultCLICommand = "databricks"
	DefaultTimeout    = 300 * time.Second
	DefaultServerName = "databricks-mcp"
)

// Config holds the settings consumed by the executor and the MCP server.
type Config struct {
	// CLICommand is the Databricks CLI binary to invoke.
	// Environment: DATABRICKS_CLI_COMMAND
	CLICommand string `yaml:"cli_command,omitempty"`

	// Profile selects a named Databricks CLI profile. Empty means the
	// CLI's default profile.
	// Environment: DATABRICKS_PROFILE
	Profile string `yaml:"profile,omitempty"`

	// Timeout bounds each CLI invocation.
	// Environment: DBX_MCP_TIMEOUT (seconds)
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// ServerName is the MCP server name announced to clients.
	// Environment: DBX_MCP_SERVER_NAME
	ServerName string `yaml:"server_name,omitempty"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	// Environment: LOG_LEVEL
	LogLevel string `yaml:"log_level,omitempty"`

	// LogFormat selects the log output format (json, text).
	// Environment: LOG_FORMAT
	LogFormat string `yaml:"log_format,omitempty"`
}

// UnmarshalYAML decodes a config file section. The timeout field is given
// in seconds, matching DBX_MCP_TIMEOUT. Absent fields leave the current
// values untouched.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		CLICommand string `yaml:"cli_command"`
		Profile    string `yaml:"profile"`
		Timeout    int    `yaml:"timeout"`
		ServerName string `yaml:"server_name"`
		LogLevel   string `yaml:"log_level"`
		LogFormat  string `yaml:"log_format"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.CLICommand != "" {
		c.CLICommand = raw.CLICommand
	}
	if raw.Profile != "" {
		c.Profile = raw.Profile
	}
	if raw.Timeout > 0 {
		c.Timeout = time.Duration(raw.Timeout) * time.Second
	}
	if raw.ServerName != "" {
		c.ServerName = raw.ServerName
	}
	if raw.LogLevel != "" {
		c.LogLevel = raw.LogLevel
	}
	if raw.LogFormat != "" {
		c.LogFormat = raw.LogFormat
	}
	return nil
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		CLICommand: DefaultCLICommand,
		Timeout:    DefaultTimeout,
		ServerName: DefaultServerName,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Load builds the configuration from the optional YAML file at path (empty
// path skips the file) and the environment. Precedence: env > file > default.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
		cfg.applyDefaults()
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills fields a config file left zero-valued.
func (c *Config) applyDefaults() {
	if c.CLICommand == "" {
		c.CLICommand = DefaultCLICommand
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ServerName == "" {
		c.ServerName = DefaultServerName
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABRICKS_CLI_COMMAND"); v != "" {
		c.CLICommand = v
	}
	if v := os.Getenv("DATABRICKS_PROFILE"); v != "" {
		c.Profile = v
	}
	if v := os.Getenv("DBX_MCP_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("DBX_MCP_SERVER_NAME"); v != "" {
		c.ServerName = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
}

// Validate checks the configuration for values the executor cannot work with.
func (c *Config) Validate() error {
	if c.CLICommand == "" {
		return fmt.Errorf("%w: cli_command must not be empty", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidConfig, c.Timeout)
	}
	return nil
}

// BaseCommand returns the command prefix every CLI invocation starts with:
// the binary name, plus a profile selector when a profile is configured.
func (c *Config) BaseCommand() []string {
	if c.Profile != "" {
		return []string{c.CLICommand, "--profile", c.Profile}
	}
	return []string{c.CLICommand}
}
