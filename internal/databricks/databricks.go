// Package databricks provides typed operations over the Databricks CLI:
// clusters, jobs, workspace objects, DBFS, SQL warehouses, and model
// registries. Each service wraps a shared executor; argument vectors follow
// the vendor CLI's contract exactly.
package databricks

import (
	"strings"

	"github.com/dbxmcp/dbxmcp/internal/cli"
)

// outputJSON is the flag pair appended to commands that return JSON.
var outputJSON = []string{"--output", "json"}

// withJSONOutput appends the JSON output selector to args.
func withJSONOutput(args []string) []string {
	return append(args, outputJSON...)
}

// ensureSlash normalizes a DBFS or workspace path to start with "/".
func ensureSlash(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

// items extracts the element slice from a payload that is either a bare
// list or an object wrapping the list under key. Returns nil when neither
// shape matches.
func items(p cli.Payload, key string) []any {
	if p.IsList() {
		return p.List
	}
	if p.Object != nil {
		if wrapped, ok := p.Object[key].([]any); ok {
			return wrapped
		}
	}
	return nil
}
