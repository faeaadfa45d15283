package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (stdout string) {
	t.Helper()

	var out, errOut bytes.Buffer
	argv := append([]string{"usbforge"}, args...)
	err := Run(context.Background(), argv, strings.NewReader(""), &out, &errOut)
	require.NoError(t, err, "stderr: %s", errOut.String())

	return out.String()
}

func TestRunDevices(t *testing.T) {
	out := runCLI(t, "devices", "--format", "json")

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.NotEmpty(t, items)
	for _, item := range items {
		assert.Equal(t, true, item["removable"])
	}

	allOut := runCLI(t, "devices", "--all", "--format", "json")
	var all []map[string]any
	require.NoError(t, json.Unmarshal([]byte(allOut), &all))
	assert.Greater(t, len(all), len(items))
}

func TestRunBenchmarkAndHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "usbforge.db")

	out := runCLI(t, "benchmark", "--target", "fake-disk-1", "--format", "json", "--db-path", dbPath)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "quick", results[0]["mode"])

	histOut := runCLI(t, "history", "--format", "json", "--db-path", dbPath)
	var runs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(histOut), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "benchmark", runs[0]["kind"])
	assert.Equal(t, "completed", runs[0]["status"])
}

func TestRunUnknownTarget(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "usbforge.db")

	var out, errOut bytes.Buffer
	err := Run(context.Background(),
		[]string{"usbforge", "benchmark", "--target", "does-not-exist", "--db-path", dbPath},
		strings.NewReader(""), &out, &errOut)
	require.Error(t, err)
}
