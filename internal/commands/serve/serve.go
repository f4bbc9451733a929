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

package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbxmcp/dbxmcp/internal/commands/shared"
	"github.com/dbxmcp/dbxmcp/internal/config"
	"github.com/dbxmcp/dbxmcp/internal/log"
	"github.com/dbxmcp/dbxmcp/internal/mcp/server"
)

// NewCommand creates the serve command.
func NewCommand() *cobra.Command {
	var (
		configPath string
		logLevel   string
		logFormat  string
		profile    string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Databricks MCP server",
		Long: `Start the Databricks MCP (Model Context Protocol) server.

The server exposes Databricks CLI operations (clusters, jobs, workspace,
DBFS, SQL warehouses, model registry) as tools that AI coding assistants
can call. It runs in stdio mode: the MCP protocol flows over stdin/stdout
and all logging goes to stderr.

MCP client configuration example:
  {
    "mcpServers": {
      "databricks": {
        "command": "dbxmcp",
        "args": ["serve"]
      }
    }
  }

Authentication is delegated to the Databricks CLI: configure a profile
with 'databricks configure' or set DATABRICKS_PROFILE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, logLevel, logFormat, profile, timeout)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Logging verbosity (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "Log output format (text, json)")
	cmd.Flags().StringVar(&profile, "profile", "", "Databricks CLI profile to use")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-command timeout (e.g. 300s)")

	return cmd
}

func runServe(configPath, logLevel, logFormat, profile string, timeout time.Duration) error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags win over file and environment.
	if profile != "" {
		conf.Profile = profile
	}
	if timeout > 0 {
		conf.Timeout = timeout
	}
	if logLevel != "" {
		conf.LogLevel = logLevel
	}
	if logFormat != "" {
		conf.LogFormat = logFormat
	}

	logCfg := log.FromEnv()
	if conf.LogLevel != "" {
		logCfg.Level = conf.LogLevel
	}
	if conf.LogFormat != "" {
		logCfg.Format = log.Format(conf.LogFormat)
	}
	logger := log.New(logCfg)

	versionStr, _, _ := shared.GetVersion()

	srv, err := server.NewServer(server.ServerConfig{
		Config:  conf,
		Version: versionStr,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
