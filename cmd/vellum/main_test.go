package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args, returning captured stdout.
// Commands share global flag state, so callers must not run in parallel.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSetGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	_, err := runCLI(t, "--store", path, "set", "contacts", "larry", `{"name":"Larry","visits":3}`)
	require.NoError(t, err)

	out, err := runCLI(t, "--store", path, "get", "contacts", "larry")
	require.NoError(t, err)

	var view recordView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "larry", view.Key)
	assert.Equal(t, int64(1), view.Version)
	assert.Equal(t, "Larry", view.Data["name"])
}

func TestSetReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	_, err := runCLI(t, "--store", path, "set", "contacts", "larry", `{"name":"Larry"}`)
	require.NoError(t, err)
	out, err := runCLI(t, "--store", path, "set", "contacts", "larry", `{"name":"Moe"}`)
	require.NoError(t, err)

	var view recordView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, int64(2), view.Version)
	assert.Equal(t, "Moe", view.Data["name"])
}

func TestListWithQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	_, err := runCLI(t, "--store", path, "set", "contacts", "larry", `{"visits":12}`)
	require.NoError(t, err)
	_, err = runCLI(t, "--store", path, "set", "contacts", "moe", `{"visits":2}`)
	require.NoError(t, err)

	out, err := runCLI(t, "--store", path, "list", "contacts", "--query", "visits > 10")
	require.NoError(t, err)

	var views []recordView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "larry", views[0].Key)

	// Reset the flag for later runs sharing the global command state.
	listQuery = ""
}

func TestRm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	_, err := runCLI(t, "--store", path, "set", "contacts", "larry", `{}`)
	require.NoError(t, err)

	out, err := runCLI(t, "--store", path, "rm", "contacts", "larry")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted contacts/larry")

	_, err = runCLI(t, "--store", path, "get", "contacts", "larry")
	require.Error(t, err)
}

func TestExportYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	_, err := runCLI(t, "--store", path, "set", "contacts", "larry", `{"name":"Larry"}`)
	require.NoError(t, err)
	_, err = runCLI(t, "--store", path, "set", "companies", "acme", `{"name":"Acme"}`)
	require.NoError(t, err)

	out, err := runCLI(t, "--store", path, "--format", "yaml", "export", "contacts", "companies")
	require.NoError(t, err)
	assert.Contains(t, out, "contacts:")
	assert.Contains(t, out, "companies:")

	outputFormat = "json"
}

func TestInvalidDocumentJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	_, err := runCLI(t, "--store", path, "set", "contacts", "larry", `{broken`)
	require.Error(t, err)
}
