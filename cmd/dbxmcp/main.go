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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbxmcp/dbxmcp/internal/commands/serve"
	"github.com/dbxmcp/dbxmcp/internal/commands/shared"
	versioncmd "github.com/dbxmcp/dbxmcp/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	shared.SetVersion(version, commit, buildDate)

	rootCmd := &cobra.Command{
		Use:   "dbxmcp",
		Short: "MCP server for the Databricks CLI",
		Long: `dbxmcp exposes Databricks workspace operations as MCP tools by
wrapping the official Databricks CLI. Clusters, jobs, notebooks, DBFS,
SQL warehouses, and model registries become callable tools for AI
assistants, with authentication delegated to the CLI's own profiles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serve.NewCommand())
	rootCmd.AddCommand(versioncmd.NewCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
