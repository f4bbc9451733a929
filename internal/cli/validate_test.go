package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiredArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		required []string
		wantErr  string
	}{
		{
			name:     "all present",
			args:     map[string]any{"cluster_id": "c1", "name": "x"},
			required: []string{"cluster_id", "name"},
		},
		{
			name:     "no requirements",
			args:     map[string]any{},
			required: nil,
		},
		{
			name:     "single missing",
			args:     map[string]any{},
			required: []string{"cluster_id"},
			wantErr:  "Missing required arguments: cluster_id",
		},
		{
			name:     "all missing reported together",
			args:     map[string]any{},
			required: []string{"cluster_name", "spark_version", "node_type_id"},
			wantErr:  "Missing required arguments: cluster_name, spark_version, node_type_id",
		},
		{
			name:     "nil value counts as missing",
			args:     map[string]any{"job_id": nil},
			required: []string{"job_id"},
			wantErr:  "Missing required arguments: job_id",
		},
		{
			name:     "empty string is present",
			args:     map[string]any{"path": ""},
			required: []string{"path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequiredArgs(tt.args, tt.required)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			var cliErr *CLIError
			require.ErrorAs(t, err, &cliErr)
			assert.Equal(t, tt.wantErr, cliErr.Message)
			assert.Equal(t, ExitTimeout, cliErr.ExitCode)
		})
	}
}

func TestCLIErrorFormat(t *testing.T) {
	err := &CLIError{Message: "Cluster not found", ExitCode: 1}
	assert.Equal(t, "CLI error: Cluster not found (exit code 1)", err.Error())
}
