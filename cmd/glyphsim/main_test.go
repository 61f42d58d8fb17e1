package main

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/glyphsim/internal/logging"
)

func writeTables(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"decomp.txt":   "A:a(P,Q)\nB:a(P,R)\nC:a(S,T)\n",
		"radicals.txt": "P\n",
		"cases.txt":    "A,B\nZ,A\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { logging.SetLogger(nil) })
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreateCommand(t *testing.T) {
	dir := writeTables(t)
	output := filepath.Join(dir, "ranking.txt")

	stdout, err := execute(t, "create",
		"--decomp", filepath.Join(dir, "decomp.txt"),
		"--radicals", filepath.Join(dir, "radicals.txt"),
		"--output", output,
		"--cutoff", "5",
		"--threads", "2",
		"--progress=false",
		"--store", filepath.Join(dir, "runs.db"),
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ranked 3 characters")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	sort.Strings(lines)
	assert.Equal(t, []string{"A;B", "B;A", "C;"}, lines)
}

func TestEvaluateCommand(t *testing.T) {
	dir := writeTables(t)

	stdout, err := execute(t, "evaluate",
		"--decomp", filepath.Join(dir, "decomp.txt"),
		"--radicals", filepath.Join(dir, "radicals.txt"),
		"--testcases", filepath.Join(dir, "cases.txt"),
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "mean reciprocal rank: 1.000000")
	assert.Contains(t, stdout, "skipped: Z")
	assert.Contains(t, stdout, "under 500: 100.00%")
}

func TestCreateCommand_InvalidConfig(t *testing.T) {
	_, err := execute(t, "create", "--cutoff", "0")
	assert.Error(t, err)
}
