package cli

import (
	"bytes"
	"path/filepath"
	"testing"
)

// testEnv holds per-test file locations.
type testEnv struct {
	dir     string
	config  string
	db      string
	catalog string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		dir:     dir,
		config:  filepath.Join(dir, "mibagent.toml"),
		db:      filepath.Join(dir, "state.db"),
		catalog: filepath.Join(dir, "mib.yaml"),
	}
}

// execute runs the root command with the environment's paths prepended.
func (e *testEnv) execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db, "--catalog", e.catalog}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}
