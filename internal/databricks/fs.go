package databricks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/dbxmcp/dbxmcp/internal/cli"
)

// FS manages files in DBFS. Remote arguments to the CLI carry the "dbfs:"
// scheme prefix; callers pass plain slash paths.
type FS struct {
	exec   *cli.Executor
	logger *slog.Logger
}

// NewFS creates an FS service over exec.
func NewFS(exec *cli.Executor, logger *slog.Logger) *FS {
	return &FS{exec: exec, logger: logger}
}

func dbfsURI(p string) string {
	return "dbfs:" + ensureSlash(p)
}

// List returns the entries under a DBFS path. The CLI emits a bare list,
// which is wrapped as {path, files} for a stable shape.
func (f *FS) List(ctx context.Context, dbfsPath string) (map[string]any, error) {
	if dbfsPath == "" {
		dbfsPath = "/"
	}
	dbfsPath = ensureSlash(dbfsPath)
	f.logger.Info("listing dbfs path", slog.String("path", dbfsPath))

	result, err := f.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"fs", "ls", dbfsPath}),
	})
	if err != nil {
		return nil, err
	}

	if result.IsList() {
		return map[string]any{
			"path":  dbfsPath,
			"files": result.List,
		}, nil
	}
	return result.Object, nil
}

// Upload copies a local file into DBFS.
func (f *FS) Upload(ctx context.Context, localPath, dbfsPath string, overwrite bool) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"local_path": localPath,
		"dbfs_path":  dbfsPath,
	}, []string{"local_path", "dbfs_path"}); err != nil {
		return cli.Payload{}, err
	}
	if _, err := os.Stat(localPath); err != nil {
		return cli.Payload{}, &cli.CLIError{
			Message:  fmt.Sprintf("Local file does not exist: %s", localPath),
			ExitCode: cli.ExitTimeout,
		}
	}
	f.logger.Info("uploading file",
		slog.String("local_path", localPath),
		slog.String("dbfs_path", dbfsPath))

	args := []string{"fs", "cp", localPath, dbfsURI(dbfsPath)}
	if overwrite {
		args = append(args, "--overwrite")
	}
	return f.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// Download copies a DBFS file to the local filesystem, creating parent
// directories as needed.
func (f *FS) Download(ctx context.Context, dbfsPath, localPath string, overwrite bool) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"dbfs_path":  dbfsPath,
		"local_path": localPath,
	}, []string{"dbfs_path", "local_path"}); err != nil {
		return cli.Payload{}, err
	}
	if dir := path.Dir(localPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cli.Payload{}, &cli.CLIError{
				Message:  "Unexpected error: " + err.Error(),
				ExitCode: cli.ExitUnexpected,
			}
		}
	}
	f.logger.Info("downloading file",
		slog.String("dbfs_path", dbfsPath),
		slog.String("local_path", localPath))

	args := []string{"fs", "cp", dbfsURI(dbfsPath), localPath}
	if overwrite {
		args = append(args, "--overwrite")
	}
	return f.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// Delete removes a DBFS file or directory.
func (f *FS) Delete(ctx context.Context, dbfsPath string, recursive bool) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"dbfs_path": dbfsPath}, []string{"dbfs_path"}); err != nil {
		return cli.Payload{}, err
	}
	f.logger.Info("deleting dbfs path",
		slog.String("path", dbfsPath),
		slog.Bool("recursive", recursive))

	args := []string{"fs", "rm", dbfsURI(dbfsPath)}
	if recursive {
		args = append(args, "--recursive")
	}
	return f.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// Mkdirs creates a DBFS directory, parents included.
func (f *FS) Mkdirs(ctx context.Context, dbfsPath string) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"dbfs_path": dbfsPath}, []string{"dbfs_path"}); err != nil {
		return cli.Payload{}, err
	}
	f.logger.Info("creating dbfs directory", slog.String("path", dbfsPath))

	return f.exec.Execute(ctx, cli.Invocation{
		Args: withJSONOutput([]string{"fs", "mkdirs", dbfsURI(dbfsPath)}),
	})
}

// Move moves a file or directory within DBFS.
func (f *FS) Move(ctx context.Context, sourcePath, destPath string, overwrite bool) (cli.Payload, error) {
	return f.transfer(ctx, "mv", sourcePath, destPath, overwrite)
}

// Copy copies a file within DBFS.
func (f *FS) Copy(ctx context.Context, sourcePath, destPath string, overwrite bool) (cli.Payload, error) {
	return f.transfer(ctx, "cp", sourcePath, destPath, overwrite)
}

func (f *FS) transfer(ctx context.Context, verb, sourcePath, destPath string, overwrite bool) (cli.Payload, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{
		"source_path":      sourcePath,
		"destination_path": destPath,
	}, []string{"source_path", "destination_path"}); err != nil {
		return cli.Payload{}, err
	}
	f.logger.Info("dbfs transfer",
		slog.String("operation", verb),
		slog.String("source", sourcePath),
		slog.String("destination", destPath))

	args := []string{"fs", verb, dbfsURI(sourcePath), dbfsURI(destPath)}
	if overwrite {
		args = append(args, "--overwrite")
	}
	return f.exec.Execute(ctx, cli.Invocation{Args: withJSONOutput(args)})
}

// FileInfo looks up one DBFS entry by listing its parent. When the entry is
// absent from the parent listing the path itself is listed, which covers
// directories.
func (f *FS) FileInfo(ctx context.Context, dbfsPath string) (map[string]any, error) {
	if err := cli.ValidateRequiredArgs(map[string]any{"dbfs_path": dbfsPath}, []string{"dbfs_path"}); err != nil {
		return nil, err
	}
	dbfsPath = ensureSlash(dbfsPath)

	parent := path.Dir(dbfsPath)
	if parent == "" || parent == "." {
		parent = "/"
	}
	listing, err := f.List(ctx, parent)
	if err != nil {
		return nil, err
	}

	name := path.Base(dbfsPath)
	if files, ok := listing["files"].([]any); ok {
		for _, entry := range files {
			info, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if entryPath, _ := info["path"].(string); strings.HasSuffix(entryPath, name) {
				return info, nil
			}
		}
	}

	if dirListing, err := f.List(ctx, dbfsPath); err == nil {
		return dirListing, nil
	}
	return nil, &cli.CLIError{
		Message:  fmt.Sprintf("DBFS path not found: %s", dbfsPath),
		ExitCode: 1,
	}
}
