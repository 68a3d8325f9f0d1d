package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	path, _ := writeConfig(t, t.TempDir())

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "config valid (1 zone(s), end_time=2)")
}

func TestValidate_JSON(t *testing.T) {
	path, _ := writeConfig(t, t.TempDir())

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.NotNil(t, resp.Data.Config)
	assert.Equal(t, 23.0, resp.Data.Config.Building.UpperC)
}

func TestValidate_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample:\n  frequncy: 2\n"), 0644))

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [C002]")
	assert.Contains(t, out, "frequncy")
}

func TestValidate_AllIssuesReportedAsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	bad := "run:\n  end_time: -1\nbuilding:\n  zones: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(bad), 0644))

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "C003", resp.Error.Code)
	issues, ok := resp.Error.Details.([]any)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(issues), 2)
}

func TestValidate_RequiresArg(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
}
