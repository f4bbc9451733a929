package databricks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClustersList(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok(`{"clusters": [{"cluster_id": "c1"}]}`)}}
	svc := NewClusters(newFakeExec(runner), discard())

	result, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"databricks", "clusters", "list", "--output", "json"}, runner.calls[0])
	assert.NotNil(t, result.Object["clusters"])
}

func TestClustersGet(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok(`{"cluster_id": "c1", "state": "RUNNING"}`)}}
	svc := NewClusters(newFakeExec(runner), discard())

	result, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"databricks", "clusters", "get", "c1", "--output", "json"}, runner.calls[0])
	assert.Equal(t, "RUNNING", result.Object["state"])
}

func TestClustersGetMissingID(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok(`{}`)}}
	svc := NewClusters(newFakeExec(runner), discard())

	// An empty string counts as present; only nil or absent keys fail
	// validation. The CLI gets to reject the empty ID itself.
	_, err := svc.Get(context.Background(), "")
	require.NoError(t, err)
}

func TestClustersCreateSimpleFlags(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok(`{"cluster_id": "new"}`)}}
	svc := NewClusters(newFakeExec(runner), discard())

	_, err := svc.Create(context.Background(), map[string]any{
		"cluster_name":  "dev",
		"spark_version": "13.3.x-scala2.12",
		"node_type_id":  "i3.xlarge",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"databricks", "clusters", "create", "13.3.x-scala2.12",
		"--cluster-name", "dev",
		"--node-type-id", "i3.xlarge",
		"--num-workers", "1",
		"--output", "json",
	}, runner.calls[0])
}

func TestClustersCreateAutoscaleUsesJSON(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok(`{"cluster_id": "new"}`)}}
	svc := NewClusters(newFakeExec(runner), discard())

	config := map[string]any{
		"cluster_name":  "big",
		"spark_version": "13.3.x-scala2.12",
		"node_type_id":  "i3.xlarge",
		"autoscale":     map[string]any{"min_workers": 2, "max_workers": 8},
	}
	_, err := svc.Create(context.Background(), config)
	require.NoError(t, err)

	argv := runner.calls[0]
	require.Len(t, argv, 8)
	assert.Equal(t, "--json", argv[4])

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(argv[5]), &sent))
	assert.Equal(t, "big", sent["cluster_name"])
	assert.NotNil(t, sent["autoscale"])
}

func TestClustersCreateMissingFields(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok(`{}`)}}
	svc := NewClusters(newFakeExec(runner), discard())

	_, err := svc.Create(context.Background(), map[string]any{"cluster_name": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spark_version")
	assert.Contains(t, err.Error(), "node_type_id")
	assert.Empty(t, runner.calls)
}

func TestClustersLifecycleVerbs(t *testing.T) {
	tests := []struct {
		name string
		op   func(*Clusters, context.Context, string) error
		verb string
	}{
		{
			name: "start",
			op: func(c *Clusters, ctx context.Context, id string) error {
				_, err := c.Start(ctx, id)
				return err
			},
			verb: "start",
		},
		{
			name: "terminate maps to delete",
			op: func(c *Clusters, ctx context.Context, id string) error {
				_, err := c.Terminate(ctx, id)
				return err
			},
			verb: "delete",
		},
		{
			name: "permanent delete",
			op: func(c *Clusters, ctx context.Context, id string) error {
				_, err := c.PermanentDelete(ctx, id)
				return err
			},
			verb: "permanent-delete",
		},
		{
			name: "restart",
			op: func(c *Clusters, ctx context.Context, id string) error {
				_, err := c.Restart(ctx, id)
				return err
			},
			verb: "restart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{responses: []response{ok(`{}`)}}
			svc := NewClusters(newFakeExec(runner), discard())

			require.NoError(t, tt.op(svc, context.Background(), "c1"))
			assert.Equal(t, []string{"databricks", "clusters", tt.verb, "c1", "--output", "json"}, runner.calls[0])
		})
	}
}

func TestClustersFindByName(t *testing.T) {
	listing := `{"clusters": [
		{"cluster_name": "dev", "cluster_id": "c1", "state": "TERMINATED", "node_type_id": "i3.xlarge", "spark_version": "13.3", "num_workers": 2},
		{"cluster_name": "dev", "cluster_id": "c2", "state": "RUNNING", "node_type_id": "i3.xlarge", "spark_version": "13.3", "num_workers": 4},
		{"cluster_name": "other", "cluster_id": "c3", "state": "RUNNING"}
	]}`

	t.Run("prefers running cluster", func(t *testing.T) {
		runner := &fakeRunner{responses: []response{ok(listing)}}
		svc := NewClusters(newFakeExec(runner), discard())

		result, err := svc.FindByName(context.Background(), "dev", "ALL")
		require.NoError(t, err)
		assert.Equal(t, true, result["found"])
		assert.Equal(t, "c2", result["cluster_id"])
		assert.Equal(t, 2, result["total_matches"])
	})

	t.Run("state filter excludes non-matching", func(t *testing.T) {
		runner := &fakeRunner{responses: []response{ok(listing)}}
		svc := NewClusters(newFakeExec(runner), discard())

		result, err := svc.FindByName(context.Background(), "dev", "TERMINATED")
		require.NoError(t, err)
		assert.Equal(t, true, result["found"])
		assert.Equal(t, "c1", result["cluster_id"])
	})

	t.Run("no match reports available states", func(t *testing.T) {
		runner := &fakeRunner{responses: []response{ok(listing)}}
		svc := NewClusters(newFakeExec(runner), discard())

		result, err := svc.FindByName(context.Background(), "dev", "PENDING")
		require.NoError(t, err)
		assert.Equal(t, false, result["found"])
		assert.Len(t, result["available_states"], 2)
	})

	t.Run("bare list shape", func(t *testing.T) {
		runner := &fakeRunner{responses: []response{ok(`[{"cluster_name": "dev", "cluster_id": "c9", "state": "RUNNING"}]`)}}
		svc := NewClusters(newFakeExec(runner), discard())

		result, err := svc.FindByName(context.Background(), "dev", "")
		require.NoError(t, err)
		assert.Equal(t, true, result["found"])
		assert.Equal(t, "c9", result["cluster_id"])
	})
}

func TestClustersInstallLibraries(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok("")}}
	svc := NewClusters(newFakeExec(runner), discard())

	libraries := []any{map[string]any{"pypi": map[string]any{"package": "requests"}}}
	result, err := svc.InstallLibraries(context.Background(), "c1", libraries)
	require.NoError(t, err)

	argv := runner.calls[0]
	assert.Equal(t, "libraries", argv[1])
	assert.Equal(t, "install", argv[2])
	assert.Equal(t, "--json", argv[3])

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(argv[4]), &body))
	assert.Equal(t, "c1", body["cluster_id"])

	assert.Equal(t, true, result["success"])
	assert.Equal(t, 1, result["libraries_count"])
	assert.Contains(t, result["message"], "asynchronous")
}

func TestClustersInstallLibrariesEmptyList(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok("")}}
	svc := NewClusters(newFakeExec(runner), discard())

	_, err := svc.InstallLibraries(context.Background(), "c1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "libraries")
	assert.Empty(t, runner.calls)
}

func TestClustersLibraryStatus(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok(`{"library_statuses": [
		{"status": "INSTALLED"},
		{"status": "PENDING"},
		{"status": "INSTALLED"},
		{"status": "FAILED"},
		{"status": "UNINSTALL_ON_RESTART"}
	]}`)}}
	svc := NewClusters(newFakeExec(runner), discard())

	result, err := svc.LibraryStatus(context.Background(), "c1")
	require.NoError(t, err)

	summary := result["summary"].(map[string]any)
	assert.Equal(t, 5, summary["total_libraries"])
	assert.Equal(t, 2, summary["installed"])
	assert.Equal(t, 1, summary["pending"])
	assert.Equal(t, 1, summary["failed"])
	assert.Equal(t, 1, summary["uninstall_pending"])
}
