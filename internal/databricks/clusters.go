package databricks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dbxmcp/dbxmcp/internal/cli"
)

// Clusters manages Databricks cluster lifecycle and cluster libraries.
type Clusters struct {
	exec   *cli.Executor
	logger *slog.Logger
}

// NewClusters creates a Clusters service over exec.
func NewClusters(exec *cli.Executor, logger *slog.Logger) *Clusters {
	return &Clusters{exec: exec, logger: logger}
}

// List returns all clusters in the workspace.
func (c *Clusters) List(ctx context.Context) (cli.Payload, error) {
	c.logger.Info("listing clusters")
	return c.exec.ExecuteWithRetry(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"clusters", "list"}),
	}, cli.DefaultRetryOptions())
}

// Get returns details for one cluster.
func (c *Clusters) Get(ctx context.Context, clusterID string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"cluster_id": clusterID}, []string{"cluster_id"}); err != nil {
		return cli.Payload{}, err
	}
	c.logger.Info("getting cluster", slog.String("cluster_id", clusterID))
	return c.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"clusters", "get", clusterID}),
	})
}

// Create provisions a new cluster. Simple configurations use individual
// flags; configurations with autoscaling or more than five fields are sent
// as a JSON document, which is the only form the CLI accepts for them.
func (c *Clusters) Create(ctx context.Context, config map[string]any) (cli.Payload, error) {
	required := []string{"cluster_name", "spark_version", "node_type_id"}
	if err := cli.ValidateRequiredArgs(config, required); err != nil {
		return cli.Payload{}, err
	}

	name, _ := config["cluster_name"].(string)
	sparkVersion := fmt.Sprint(config["spark_version"])
	c.logger.Info("creating cluster", slog.String("cluster_name", name))

	_, autoscale := config["autoscale"]
	if autoscale || len(config) > 5 {
		doc, err := json.Marshal(config)
		if err != nil {
			return cli.Payload{}, &cli.CLIError{
				Message:  "Unexpected error: " + err.Error(),
				ExitCode: cli.ExitUnexpected,
			}
		}
		return c.exec.Execute(ctx, cli.Invocation{
			Args: withJSONOutput([]string{
				"clusters", "create", sparkVersion,
				"--json", string(doc),
			}),
		})
	}

	args := []string{
		"clusters", "create", sparkVersion,
		"--cluster-name", name,
		"--node-type-id", fmt.Sprint(config["node_type_id"]),
	}

	if workers, ok := config["num_workers"]; ok {
		args = append(args, "--num-workers", fmt.Sprint(workers))
	} else {
		args = append(args, "--num-workers", "1")
	}
	if mins, ok := config["autotermination_minutes"]; ok {
		args = append(args, "--autotermination-minutes", fmt.Sprint(mins))
	}
	if driver, ok := config["driver_node_type_id"]; ok {
		args = append(args, "--driver-node-type-id", fmt.Sprint(driver))
	}
	if enabled, _ := config["enable_elastic_disk"].(bool); enabled {
		args = append(args, "--enable-elastic-disk")
	}
	if enabled, _ := config["enable_local_disk_encryption"].(bool); enabled {
		args = append(args, "--enable-local-disk-encryption")
	}

	return c.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// Start starts a terminated cluster.
func (c *Clusters) Start(ctx context.Context, clusterID string) (cli.Payload, error) {
	return c.lifecycle(ctx, "start", clusterID)
}

// Terminate stops a running cluster. The cluster configuration is retained
// and the cluster can be started again.
func (c *Clusters) Terminate(ctx context.Context, clusterID string) (cli.Payload, error) {
	return c.lifecycle(ctx, "delete", clusterID)
}

// PermanentDelete removes a cluster permanently.
func (c *Clusters) PermanentDelete(ctx context.Context, clusterID string) (cli.Payload, error) {
	return c.lifecycle(ctx, "permanent-delete", clusterID)
}

// Restart restarts a cluster.
func (c *Clusters) Restart(ctx context.Context, clusterID string) (cli.Payload, error) {
	return c.lifecycle(ctx, "restart", clusterID)
}

func (c *Clusters) lifecycle(ctx context.Context, verb, clusterID string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"cluster_id": clusterID}, []string{"cluster_id"}); err != nil {
		return cli.Payload{}, err
	}
	c.logger.Info("cluster lifecycle operation",
		slog.String("operation", verb),
		slog.String("cluster_id", clusterID))
	return c.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"clusters", verb, clusterID}),
	})
}

// FindByName scans the cluster list for a cluster with the given name,
// optionally restricted to one state ("ALL" disables the filter). When
// several clusters match, RUNNING ones win.
func (c *Clusters) FindByName(ctx context.Context, name, stateFilter string) (map[string]any, error) {
	if stateFilter == "" {
		stateFilter = "RUNNING"
	}
	c.logger.Info("finding cluster by name",
		slog.String("cluster_name", name),
		slog.String("state", stateFilter))

	listed, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	clusters := items(listed, "clusters")

	var matching []map[string]any
	var statesForName []any
	for _, entry := range clusters {
		cluster, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if cluster["cluster_name"] != name {
			continue
		}
		statesForName = append(statesForName, cluster["state"])
		state, _ := cluster["state"].(string)
		if stateFilter == "ALL" || state == stateFilter {
			matching = append(matching, cluster)
		}
	}

	if len(matching) == 0 {
		return map[string]any{
			"found":            false,
			"message":          fmt.Sprintf("No cluster named %q found with state %q", name, stateFilter),
			"available_states": statesForName,
		}, nil
	}

	best := matching[0]
	if len(matching) > 1 {
		for _, cluster := range matching {
			if cluster["state"] == "RUNNING" {
				best = cluster
				break
			}
		}
	}

	numWorkers := best["num_workers"]
	if numWorkers == nil {
		numWorkers = float64(0)
	}
	return map[string]any{
		"found":         true,
		"cluster_id":    best["cluster_id"],
		"cluster_name":  best["cluster_name"],
		"state":         best["state"],
		"node_type_id":  best["node_type_id"],
		"spark_version": best["spark_version"],
		"num_workers":   numWorkers,
		"total_matches": len(matching),
	}, nil
}

// InstallLibraries installs libraries on a cluster. The CLI call is
// asynchronous and silent on success.
func (c *Clusters) InstallLibraries(ctx context.Context, clusterID string, libraries []any) (map[string]any, error) {
	return c.libraryOp(ctx, "install", clusterID, libraries,
		"Library installation initiated (asynchronous operation)")
}

// UninstallLibraries removes libraries from a cluster. Takes effect on the
// next cluster restart.
func (c *Clusters) UninstallLibraries(ctx context.Context, clusterID string, libraries []any) (map[string]any, error) {
	return c.libraryOp(ctx, "uninstall", clusterID, libraries,
		"Library uninstallation initiated (requires cluster restart)")
}

func (c *Clusters) libraryOp(ctx context.Context, verb, clusterID string, libraries []any, message string) (map[string]any, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"cluster_id": clusterID}, []string{"cluster_id"}); err != nil {
		return nil, err
	}
	if len(libraries) == 0 {
		return nil, &cli.CLIError{
			Message:  "Missing required arguments: libraries",
			ExitCode: cli.ExitTimeout,
		}
	}

	body, err := json.Marshal(map[string]any{
		"cluster_id": clusterID,
		"libraries":  libraries,
	})
	if err != nil {
		return nil, &cli.CLIError{
			Message:  "Unexpected error: " + err.Error(),
			ExitCode: cli.ExitUnexpected,
		}
	}

	c.logger.Info("cluster library operation",
		slog.String("operation", verb),
		slog.String("cluster_id", clusterID),
		slog.Int("libraries", len(libraries)))

	if _, err := c.exec.Execute(ctx, cli.Invocation{
		Args: []string{"libraries", verb, "--json", string(body)},
		Raw:  true,
	}); err != nil {
		return nil, err
	}

	return map[string]any{
		"success":         true,
		"cluster_id":      clusterID,
		"libraries_count": len(libraries),
		"message":         message,
		"libraries":       libraries,
	}, nil
}

// LibraryStatus lists the libraries installed on a cluster together with a
// per-state summary. The CLI returns either a bare list or a wrapped
// library_statuses object depending on version; both are handled.
func (c *Clusters) LibraryStatus(ctx context.Context, clusterID string) (map[string]any, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"cluster_id": clusterID}, []string{"cluster_id"}); err != nil {
		return nil, err
	}
	c.logger.Info("listing cluster libraries", slog.String("cluster_id", clusterID))

	result, err := c.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"libraries", "cluster-status", clusterID}),
	})
	if err != nil {
		return nil, err
	}

	statuses := items(result, "library_statuses")

	summary := map[string]any{
		"cluster_id":        clusterID,
		"total_libraries":   len(statuses),
		"installed":         0,
		"pending":           0,
		"failed":            0,
		"uninstall_pending": 0,
	}
	bump := func(key string) { summary[key] = summary[key].(int) + 1 }

	for _, entry := range statuses {
		libStatus, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		status, _ := libStatus["status"].(string)
		switch {
		case containsFold(status, "installed"):
			bump("installed")
		case containsFold(status, "uninstall"):
			bump("uninstall_pending")
		case containsFold(status, "pending"):
			bump("pending")
		case containsFold(status, "failed"):
			bump("failed")
		}
	}

	if statuses == nil {
		statuses = []any{}
	}
	return map[string]any{
		"library_statuses": statuses,
		"summary":          summary,
	}, nil
}
