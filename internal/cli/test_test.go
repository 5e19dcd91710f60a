package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: threshold-once
description: one crossing fires once
flow:
  - tick: [10, 90, 95]
    expect:
      fired: 1
assertions:
  - type: alert_count
    traps: 1
`

const failingScenario = `name: wrong-count
description: expects an alert that never fires
flow:
  - tick: [10]
assertions:
  - type: alert_count
    traps: 1
`

func TestTestCommand_RepositoryScenarios(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.execute(t, "test", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ threshold-crossing")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "once.yaml"), passingScenario)

	out, _, err := env.execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "threshold-once.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), "trap alert-0001 measurement=90 threshold=80")

	out, _, err = env.execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	// A stale golden file fails the scenario.
	writeFile(t, filepath.Join(dir, "golden", "threshold-once.golden"), "stale\n")
	out, _, err = env.execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "golden file mismatch")
}

func TestTestCommand_FailuresJSON(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "once.yaml"), passingScenario)
	writeFile(t, filepath.Join(dir, "wrong.yml"), failingScenario)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	out, _, err := env.execute(t, "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeTestFailed, resp.Error.Code)
}

func TestTestCommand_Filter(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "once.yaml"), passingScenario)
	writeFile(t, filepath.Join(dir, "wrong.yaml"), failingScenario)

	out, _, err := env.execute(t, "test", dir, "--filter", "on*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, _, err = env.execute(t, "test", dir, "--filter", "zzz*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_MissingDir(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.execute(t, "test", filepath.Join(env.dir, "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
