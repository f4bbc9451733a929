package databricks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dbxmcp/dbxmcp/internal/cli"
)

// Models manages registered models in Unity Catalog and the legacy
// workspace model registry. Unity Catalog models use three-part names
// (catalog.schema.model); registry models use bare names.
type Models struct {
	exec   *cli.Executor
	logger *slog.Logger
}

// NewModels creates a Models service over exec.
func NewModels(exec *cli.Executor, logger *slog.Logger) *Models {
	return &Models{exec: exec, logger: logger}
}

// List lists Unity Catalog models, optionally scoped to a catalog and
// schema.
func (m *Models) List(ctx context.Context, catalog, schema string, maxResults int) (cli.Payload, error) {
	m.logger.Info("listing models")

	args := []string{"unity-catalog", "models", "list"}
	if catalog != "" {
		args = append(args, "--catalog-name", catalog)
	}
	if schema != "" {
		args = append(args, "--schema-name", schema)
	}
	if maxResults > 0 {
		args = append(args, "--max-results", strconv.Itoa(maxResults))
	}
	return m.exec.ExecuteWithRetry(ctx, cli.Invocation{
		Args: withJSONOutput(args),
	}, cli.DefaultRetryOptions())
}

// Get returns details for one Unity Catalog model.
func (m *Models) Get(ctx context.Context, modelName string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"model_name": modelName}, []string{"model_name"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("getting model", slog.String("model", modelName))
	return m.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"unity-catalog", "models", "get", modelName}),
	})
}

// Create registers a new Unity Catalog model under catalog.schema.
func (m *Models) Create(ctx context.Context, modelName, catalog, schema, comment string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"model_name": modelName,
		"catalog":    catalog,
		"schema":     schema,
	}, []string{"model_name", "catalog", "schema"}); err != nil {
		return cli.Payload{}, err
	}

	full := fmt.Sprintf("%s.%s.%s", catalog, schema, modelName)
	m.logger.Info("creating model", slog.String("model", full))

	args := []string{"unity-catalog", "models", "create", full}
	if comment != "" {
		args = append(args, "--comment", comment)
	}
	return m.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// Delete removes a Unity Catalog model.
func (m *Models) Delete(ctx context.Context, modelName string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"model_name": modelName}, []string{"model_name"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("deleting model", slog.String("model", modelName))
	return m.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"unity-catalog", "models", "delete", modelName}),
	})
}

// ListVersions lists the versions of a Unity Catalog model.
func (m *Models) ListVersions(ctx context.Context, modelName string, maxResults int) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"model_name": modelName}, []string{"model_name"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("listing model versions", slog.String("model", modelName))

	args := []string{"unity-catalog", "model-versions", "list", modelName}
	if maxResults > 0 {
		args = append(args, "--max-results", strconv.Itoa(maxResults))
	}
	return m.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// GetVersion returns one model version.
func (m *Models) GetVersion(ctx context.Context, modelName string, version int) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"model_name": modelName,
		"version":    version,
	}, []string{"model_name", "version"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("getting model version",
		slog.String("model", modelName),
		slog.Int("version", version))
	return m.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{
			"unity-catalog", "model-versions", "get", modelName, strconv.Itoa(version),
		}),
	})
}

// CreateVersion registers a new version of a model from artifacts at
// source.
func (m *Models) CreateVersion(ctx context.Context, modelName, source, runID, comment string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"model_name": modelName,
		"source":     source,
	}, []string{"model_name", "source"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("creating model version", slog.String("model", modelName))

	args := []string{"unity-catalog", "model-versions", "create", modelName, "--source", source}
	if runID != "" {
		args = append(args, "--run-id", runID)
	}
	if comment != "" {
		args = append(args, "--comment", comment)
	}
	return m.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// DeleteVersion removes one model version.
func (m *Models) DeleteVersion(ctx context.Context, modelName string, version int) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"model_name": modelName,
		"version":    version,
	}, []string{"model_name", "version"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("deleting model version",
		slog.String("model", modelName),
		slog.Int("version", version))
	return m.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{
			"unity-catalog", "model-versions", "delete", modelName, strconv.Itoa(version),
		}),
	})
}

// SetAlias points an alias such as "champion" at a model version.
func (m *Models) SetAlias(ctx context.Context, modelName, alias string, version int) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"model_name": modelName,
		"alias":      alias,
		"version":    version,
	}, []string{"model_name", "alias", "version"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("setting model alias",
		slog.String("model", modelName),
		slog.String("alias", alias),
		slog.Int("version", version))
	return m.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{
			"unity-catalog", "model-versions", "set-alias", modelName, alias, strconv.Itoa(version),
		}),
	})
}

// DeleteAlias removes an alias from a model.
func (m *Models) DeleteAlias(ctx context.Context, modelName, alias string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"model_name": modelName,
		"alias":      alias,
	}, []string{"model_name", "alias"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("deleting model alias",
		slog.String("model", modelName),
		slog.String("alias", alias))
	return m.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{
			"unity-catalog", "model-versions", "delete-alias", modelName, alias,
		}),
	})
}

// ListRegistryModels lists models in the workspace model registry.
func (m *Models) ListRegistryModels(ctx context.Context, maxResults int) (cli.Payload, error) {
	m.logger.Info("listing registry models")

	args := []string{"model-registry", "list-models"}
	if maxResults > 0 {
		args = append(args, "--max-results", strconv.Itoa(maxResults))
	}
	return m.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// GetRegistryModel returns details for one registry model.
func (m *Models) GetRegistryModel(ctx context.Context, modelName string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"model_name": modelName}, []string{"model_name"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("getting registry model", slog.String("model", modelName))
	return m.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"model-registry", "get-model", modelName}),
	})
}

// CreateRegistryModel registers a new model in the workspace registry.
func (m *Models) CreateRegistryModel(ctx context.Context, modelName, description string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"model_name": modelName}, []string{"model_name"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("creating registry model", slog.String("model", modelName))

	args := []string{"model-registry", "create-model", modelName}
	if description != "" {
		args = append(args, "--description", description)
	}
	return m.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// LatestVersions returns the newest registry model versions, optionally
// restricted to the given stages.
func (m *Models) LatestVersions(ctx context.Context, modelName string, stages []string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"model_name": modelName}, []string{"model_name"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("getting latest model versions", slog.String("model", modelName))

	args := []string{"model-registry", "get-latest-versions", modelName}
	if len(stages) > 0 {
		args = append(args, "--stages", strings.Join(stages, ","))
	}
	return m.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// TransitionStage moves a registry model version to a new stage.
func (m *Models) TransitionStage(ctx context.Context, modelName string, version int, stage string, archiveExisting bool) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"model_name": modelName,
		"version":    version,
		"stage":      stage,
	}, []string{"model_name", "version", "stage"}); err != nil {
		return cli.Payload{}, err
	}
	m.logger.Info("transitioning model stage",
		slog.String("model", modelName),
		slog.Int("version", version),
		slog.String("stage", stage))

	args := []string{
		"model-registry", "transition-stage", modelName, strconv.Itoa(version),
		"--stage", stage,
	}
	if archiveExisting {
		args = append(args, "--archive-existing-versions")
	}
	return m.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}
