package databricks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/dbxmcp/dbxmcp/internal/cli"
)

// Workspace manages workspace objects: notebooks, directories, and files.
//
// Several workspace commands (import, delete, mkdirs) succeed silently.
// Those call sites tolerate cli.ErrEmptyOutput and synthesize a structured
// confirmation instead of surfacing the empty output as a failure.
type Workspace struct {
	exec   *cli.Executor
	logger *slog.Logger
}

// NewWorkspace creates a Workspace service over exec.
func NewWorkspace(exec *cli.Executor, logger *slog.Logger) *Workspace {
	return &Workspace{exec: exec, logger: logger}
}

// List returns the objects under a workspace path.
func (w *Workspace) List(ctx context.Context, wsPath string, recursive bool) ([]any, error) {
	if wsPath == "" {
		wsPath = "/"
	}
	w.logger.Info("listing workspace items", slog.String("path", wsPath))

	args := withJSONOutput([]string{"workspace", "list", wsPath})
	if recursive {
		args = append(args, "--recursive")
	}

	result, err := w.exec.ExecuteWithRetry(ctx, cli.Invocation{Args: args}, cli.DefaultRetryOptions())
	if err != nil {
		return nil, err
	}

	if result.IsList() {
		return result.List, nil
	}
	if objects := items(result, "objects"); objects != nil {
		return objects, nil
	}
	return []any{}, nil
}

// GetStatus returns metadata for one workspace object.
func (w *Workspace) GetStatus(ctx context.Context, wsPath string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"path": wsPath}, []string{"path"}); err != nil {
		return cli.Payload{}, err
	}
	w.logger.Info("getting workspace item", slog.String("path", wsPath))
	return w.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"workspace", "get-status", wsPath}),
	})
}

// CreateNotebook writes content to a temporary file and imports it as a
// notebook at wsPath, overwriting any existing object.
func (w *Workspace) CreateNotebook(ctx context.Context, wsPath, content, language, format string) (map[string]any, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"path":    wsPath,
		"content": content,
	}, []string{"path", "content"}); err != nil {
		return nil, err
	}
	if language == "" {
		language = "PYTHON"
	}
	if format == "" {
		format = "SOURCE"
	}
	w.logger.Info("creating notebook", slog.String("path", wsPath))

	tmp, err := os.CreateTemp("", "dbxmcp-notebook-*.src")
	if err != nil {
		return nil, &cli.CLIError{
			Message:  "Unexpected error: " + err.Error(),
			ExitCode: cli.ExitUnexpected,
		}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return nil, &cli.CLIError{
			Message:  "Unexpected error: " + err.Error(),
			ExitCode: cli.ExitUnexpected,
		}
	}
	if err := tmp.Close(); err != nil {
		return nil, &cli.CLIError{
			Message:  "Unexpected error: " + err.Error(),
			ExitCode: cli.ExitUnexpected,
		}
	}

	if err := w.silentImport(ctx, tmp.Name(), wsPath, language, format); err != nil {
		return nil, err
	}

	return map[string]any{
		"path":     wsPath,
		"language": language,
		"format":   format,
		"status":   "created",
	}, nil
}

// ImportNotebook uploads a local notebook file into the workspace.
func (w *Workspace) ImportNotebook(ctx context.Context, localPath, wsPath, language string) (map[string]any, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"local_path":     localPath,
		"workspace_path": wsPath,
	}, []string{"local_path", "workspace_path"}); err != nil {
		return nil, err
	}
	if _, err := os.Stat(localPath); err != nil {
		return nil, &cli.CLIError{
			Message:  fmt.Sprintf("Local file does not exist: %s", localPath),
			ExitCode: cli.ExitTimeout,
		}
	}
	if language == "" {
		language = "PYTHON"
	}
	w.logger.Info("importing notebook",
		slog.String("local_path", localPath),
		slog.String("workspace_path", wsPath))

	if err := w.silentImport(ctx, localPath, wsPath, language, "SOURCE"); err != nil {
		return nil, err
	}

	return map[string]any{
		"local_path":     localPath,
		"workspace_path": wsPath,
		"language":       language,
		"status":         "uploaded",
	}, nil
}

// silentImport runs workspace import, which prints nothing on success.
func (w *Workspace) silentImport(ctx context.Context, localPath, wsPath, language, format string) error {
	_, err := w.exec.Execute(ctx, cli.Invocation{
		Args: []string{
			"workspace", "import", wsPath,
			"--file", localPath,
			"--language", strings.ToUpper(language),
			"--format", strings.ToUpper(format),
			"--overwrite",
		},
	})
	if err != nil && !errors.Is(err, cli.ErrEmptyOutput) {
		return err
	}
	return nil
}

// ExportNotebook exports a workspace notebook to a local file. Valid
// formats: SOURCE, HTML, JUPYTER, DBC; anything else falls back to SOURCE.
func (w *Workspace) ExportNotebook(ctx context.Context, wsPath, localPath, format string) (map[string]any, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"workspace_path": wsPath,
		"local_path":     localPath,
	}, []string{"workspace_path", "local_path"}); err != nil {
		return nil, err
	}

	format = strings.ToUpper(format)
	switch format {
	case "SOURCE", "HTML", "JUPYTER", "DBC":
	default:
		format = "SOURCE"
	}
	w.logger.Info("exporting notebook",
		slog.String("workspace_path", wsPath),
		slog.String("local_path", localPath),
		slog.String("format", format))

	_, err := w.exec.Execute(ctx, cli.Invocation{
		Args: []string{"workspace", "export", wsPath, localPath, "--format", format},
	})
	if err != nil && !errors.Is(err, cli.ErrEmptyOutput) {
		return nil, err
	}

	return map[string]any{
		"workspace_path": wsPath,
		"local_path":     localPath,
		"format":         format,
		"status":         "exported",
	}, nil
}

// Delete removes a workspace object; recursive is required for non-empty
// directories.
func (w *Workspace) Delete(ctx context.Context, wsPath string, recursive bool) (map[string]any, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"path": wsPath}, []string{"path"}); err != nil {
		return nil, err
	}
	w.logger.Info("deleting workspace item", slog.String("path", wsPath), slog.Bool("recursive", recursive))

	args := []string{"workspace", "delete", wsPath}
	if recursive {
		args = append(args, "--recursive")
	}

	_, err := w.exec.Execute(ctx, cli.Invocation{Args: args})
	if err != nil && !errors.Is(err, cli.ErrEmptyOutput) {
		return nil, err
	}

	return map[string]any{
		"path":      wsPath,
		"status":    "deleted",
		"recursive": recursive,
	}, nil
}

// Mkdirs creates a workspace directory, parents included. Creating an
// existing directory is not an error.
func (w *Workspace) Mkdirs(ctx context.Context, wsPath string) (map[string]any, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"path": wsPath}, []string{"path"}); err != nil {
		return nil, err
	}
	w.logger.Info("creating workspace directory", slog.String("path", wsPath))

	_, err := w.exec.Execute(ctx, cli.Invocation{
		Args: []string{"workspace", "mkdirs", wsPath},
	})
	if err != nil && !errors.Is(err, cli.ErrEmptyOutput) {
		return nil, err
	}

	return map[string]any{
		"path":   wsPath,
		"status": "created",
		"type":   "directory",
	}, nil
}

// CurrentUser returns the authenticated user's identity.
func (w *Workspace) CurrentUser(ctx context.Context) (cli.Payload, error) {
	w.logger.Info("getting current user")
	return w.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"current-user", "me"}),
	})
}

// UserWorkspacePath returns the current user's home directory in the
// workspace.
func (w *Workspace) UserWorkspacePath(ctx context.Context) (string, error) {
	user, err := w.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	userName := "unknown_user"
	if user.Object != nil {
		if name, ok := user.Object["userName"].(string); ok && name != "" {
			userName = name
		}
	}
	return "/Workspace/Users/" + userName, nil
}

// SetupUserWorkspace creates the user's home directory plus the requested
// subdirectories. Directories that already exist are skipped, not errors.
func (w *Workspace) SetupUserWorkspace(ctx context.Context, subdirs []string) (map[string]any, error) {
	userPath, err := w.UserWorkspacePath(ctx)
	if err != nil {
		return nil, err
	}

	var created []string
	if _, err := w.Mkdirs(ctx, userPath); err != nil {
		w.logger.Info("user directory may already exist",
			slog.String("path", userPath),
			slog.String("error", err.Error()))
	} else {
		created = append(created, userPath)
	}

	for _, subdir := range subdirs {
		full := userPath + "/" + subdir
		if _, err := w.Mkdirs(ctx, full); err != nil {
			w.logger.Info("directory may already exist",
				slog.String("path", full),
				slog.String("error", err.Error()))
			continue
		}
		created = append(created, full)
	}

	if created == nil {
		created = []string{}
	}
	return map[string]any{
		"user_path":           userPath,
		"created_directories": created,
		"status":              "initialized",
	}, nil
}

// GetItemInfo looks up one workspace object by listing its parent.
func (w *Workspace) GetItemInfo(ctx context.Context, wsPath string) (map[string]any, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"path": wsPath}, []string{"path"}); err != nil {
		return nil, err
	}

	parent := path.Dir(wsPath)
	if parent == "" || parent == "." {
		parent = "/"
	}
	listing, err := w.List(ctx, parent, false)
	if err != nil {
		return nil, err
	}

	name := path.Base(wsPath)
	for _, entry := range listing {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if objPath, _ := obj["path"].(string); strings.HasSuffix(objPath, name) {
			return obj, nil
		}
	}

	return nil, &cli.CLIError{
		Message:  fmt.Sprintf("Workspace item not found: %s", wsPath),
		ExitCode: 1,
	}
}

// RunNotebook submits a notebook run on a cluster and waits for it to
// finish. The invocation timeout is stretched past the notebook's own
// budget so the CLI can report completion.
func (w *Workspace) RunNotebook(ctx context.Context, notebookPath, clusterID string, timeoutSeconds int, parameters map[string]string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"notebook_path": notebookPath,
		"cluster_id":    clusterID,
	}, []string{"notebook_path", "cluster_id"}); err != nil {
		return cli.Payload{}, err
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 3600
	}
	w.logger.Info("running notebook",
		slog.String("notebook_path", notebookPath),
		slog.String("cluster_id", clusterID))

	args := []string{
		"workspace", "run-notebook", notebookPath,
		"--cluster-id", clusterID,
		"--timeout", strconv.Itoa(timeoutSeconds),
	}
	if len(parameters) > 0 {
		doc, err := json.Marshal(parameters)
		if err != nil {
			return cli.Payload{}, &cli.CLIError{
				Message:  "Unexpected error: " + err.Error(),
				ExitCode: cli.ExitUnexpected,
			}
		}
		args = append(args, "--base-parameters", string(doc))
	}
	args = append(args, outputJSON...)

	invTimeout := time.Duration(timeoutSeconds+60) * time.Second
	if invTimeout < w.exec.Timeout() {
		invTimeout = w.exec.Timeout()
	}

	return w.exec.Execute(ctx, cli.Invocation{
		Args:    args,
		Timeout: invTimeout,
	})
}
