package databricks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSList(t *testing.T) {
	t.Run("bare list wrapped with path", func(t *testing.T) {
		runner := &fakeRunner{responses: []response{ok(`[{"path": "/data/a.csv", "is_dir": false}]`)}}
		svc := NewFS(newFakeExec(runner), discard())

		result, err := svc.List(context.Background(), "data")
		require.NoError(t, err)
		assert.Equal(t, []string{"databricks", "fs", "ls", "/data", "--output", "json"}, runner.calls[0])
		assert.Equal(t, "/data", result["path"])
		assert.Len(t, result["files"], 1)
	})

	t.Run("empty path defaults to root", func(t *testing.T) {
		runner := &fakeRunner{responses: []response{ok(`[]`)}}
		svc := NewFS(newFakeExec(runner), discard())

		result, err := svc.List(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "/", result["path"])
	})
}

func TestFSUpload(t *testing.T) {
	local := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(local, []byte("a,b\n1,2\n"), 0o644))

	runner := &fakeRunner{responses: []response{ok(`{}`)}}
	svc := NewFS(newFakeExec(runner), discard())

	_, err := svc.Upload(context.Background(), local, "/data/data.csv", true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"databricks", "fs", "cp", local, "dbfs:/data/data.csv", "--overwrite", "--output", "json",
	}, runner.calls[0])
}

func TestFSUploadMissingLocalFile(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok(`{}`)}}
	svc := NewFS(newFakeExec(runner), discard())

	_, err := svc.Upload(context.Background(), "/no/such/file", "/data/x", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Local file does not exist")
	assert.Empty(t, runner.calls)
}

func TestFSDownload(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nested", "out.csv")

	runner := &fakeRunner{responses: []response{ok(`{}`)}}
	svc := NewFS(newFakeExec(runner), discard())

	_, err := svc.Download(context.Background(), "data/out.csv", dest, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"databricks", "fs", "cp", "dbfs:/data/out.csv", dest, "--output", "json",
	}, runner.calls[0])

	// Parent directory is created before the CLI runs.
	info, statErr := os.Stat(filepath.Dir(dest))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestFSDelete(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok(`{}`)}}
	svc := NewFS(newFakeExec(runner), discard())

	_, err := svc.Delete(context.Background(), "/tmp/old", true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"databricks", "fs", "rm", "dbfs:/tmp/old", "--recursive", "--output", "json",
	}, runner.calls[0])
}

func TestFSMkdirs(t *testing.T) {
	runner := &fakeRunner{responses: []response{ok(`{}`)}}
	svc := NewFS(newFakeExec(runner), discard())

	_, err := svc.Mkdirs(context.Background(), "data/landing")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"databricks", "fs", "mkdirs", "dbfs:/data/landing", "--output", "json",
	}, runner.calls[0])
}

func TestFSMoveAndCopy(t *testing.T) {
	t.Run("move", func(t *testing.T) {
		runner := &fakeRunner{responses: []response{ok(`{}`)}}
		svc := NewFS(newFakeExec(runner), discard())

		_, err := svc.Move(context.Background(), "/a", "/b", false)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"databricks", "fs", "mv", "dbfs:/a", "dbfs:/b", "--output", "json",
		}, runner.calls[0])
	})

	t.Run("copy with overwrite", func(t *testing.T) {
		runner := &fakeRunner{responses: []response{ok(`{}`)}}
		svc := NewFS(newFakeExec(runner), discard())

		_, err := svc.Copy(context.Background(), "/a", "/b", true)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"databricks", "fs", "cp", "dbfs:/a", "dbfs:/b", "--overwrite", "--output", "json",
		}, runner.calls[0])
	})
}

func TestFSFileInfo(t *testing.T) {
	t.Run("found in parent listing", func(t *testing.T) {
		runner := &fakeRunner{responses: []response{
			ok(`[{"path": "/data/a.csv", "file_size": 42}, {"path": "/data/b.csv"}]`),
		}}
		svc := NewFS(newFakeExec(runner), discard())

		info, err := svc.FileInfo(context.Background(), "/data/a.csv")
		require.NoError(t, err)
		assert.Equal(t, []string{"databricks", "fs", "ls", "/data", "--output", "json"}, runner.calls[0])
		assert.Equal(t, float64(42), info["file_size"])
	})

	t.Run("falls back to listing the path itself", func(t *testing.T) {
		runner := &fakeRunner{responses: []response{
			ok(`[{"path": "/data/other"}]`),
			ok(`[{"path": "/data/subdir/x"}]`),
		}}
		svc := NewFS(newFakeExec(runner), discard())

		info, err := svc.FileInfo(context.Background(), "/data/subdir")
		require.NoError(t, err)
		require.Len(t, runner.calls, 2)
		assert.Equal(t, "/data/subdir", runner.calls[1][3])
		assert.Equal(t, "/data/subdir", info["path"])
	})
}
