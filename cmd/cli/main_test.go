package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const quarterHourCSV = `ts,q[MWh]
2024-01-01T00:00:00Z,1
2024-01-01T00:15:00Z,2
2024-01-01T00:30:00Z,3
2024-01-01T00:45:00Z,4
`

func TestChangeFreqCommand(t *testing.T) {
	in := writeFile(t, "q.csv", quarterHourCSV)

	out, err := run(t, "changefreq", "--tz", "UTC", "--in", in, "--freq", "H", "--kind", "summable")
	require.NoError(t, err)
	assert.Equal(t, "ts,q[MWh]\n2024-01-01T00:00:00Z,10\n", out)

	out, err = run(t, "changefreq", "--tz", "UTC", "--in", in, "--freq", "H")
	require.NoError(t, err)
	assert.Equal(t, "ts,q[MWh]\n2024-01-01T00:00:00Z,2.5\n", out)

	_, err = run(t, "changefreq", "--tz", "UTC", "--in", in, "--freq", "D", "--kind", "summable")
	assert.ErrorContains(t, err, "full")

	_, err = run(t, "changefreq", "--tz", "UTC", "--in", in, "--freq", "H", "--kind", "other")
	assert.Error(t, err)
}

func TestTableCommand(t *testing.T) {
	in := writeFile(t, "line.csv", `ts,q[MWh],p[EUR/MWh],comment
2024-01-01T00:00:00Z,1,50,1
2024-01-01T01:00:00Z,2,40,2
`)
	outPath := filepath.Join(t.TempDir(), "nested", "out.csv")
	_, err := run(t, "table", "--tz", "UTC", "--in", in, "--out", outPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ts,w[MW],q[MWh],p[EUR/MWh],r[EUR]", lines[0])
	assert.Equal(t, "2024-01-01T01:00:00Z,2,2,40,80", lines[2])

	bad := writeFile(t, "bad.csv", `ts,w[MW],q[MWh]
2024-01-01T00:00:00Z,1,2
2024-01-01T01:00:00Z,1,1
`)
	_, err = run(t, "table", "--tz", "UTC", "--in", bad)
	assert.ErrorContains(t, err, "not consistent")
}

func TestPricesCommand(t *testing.T) {
	in := writeFile(t, "lmp.json", `{"status_code": 200, "data": [
		{"interval_start_utc": "2024-01-01T00:00:00Z", "interval_end_utc": "2024-01-01T00:30:00Z", "location": "HUB", "lmp": 10, "energy": 9},
		{"interval_start_utc": "2024-01-01T00:30:00Z", "interval_end_utc": "2024-01-01T01:00:00Z", "location": "HUB", "lmp": 30, "energy": 29},
		{"interval_start_utc": "2024-01-01T00:00:00Z", "interval_end_utc": "2024-01-01T01:00:00Z", "location": "OTHER", "lmp": 99, "energy": 99}
	]}`)

	out, err := run(t, "prices", "--tz", "UTC", "--data", in, "--location", "HUB", "--freq", "H")
	require.NoError(t, err)
	assert.Equal(t, "ts,hub[USD/MWh]\n2024-01-01T00:00:00Z,20\n", out)

	out, err = run(t, "prices", "--tz", "UTC", "--data", in, "--location", "HUB", "--component", "energy", "--freq", "H")
	require.NoError(t, err)
	assert.Contains(t, out, ",19\n")

	_, err = run(t, "prices", "--tz", "UTC", "--dataset", "d")
	assert.Error(t, err)
	_, err = run(t, "prices", "--tz", "UTC", "--data", in, "--component", "price")
	assert.Error(t, err)
}

func TestRootCommand_Config(t *testing.T) {
	cfg := writeFile(t, "config.yaml", "calendar:\n  timezone: UTC\n  freq: 15T\n")
	in := writeFile(t, "q.csv", quarterHourCSV)
	out, err := run(t, "--config", cfg, "changefreq", "--in", in, "--freq", "H", "--kind", "summable")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-01T00:00:00Z,10")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "changefreq", "--in", in, "--freq", "H")
	assert.Error(t, err)

	_, err = run(t, "--tz", "UTC", "--bound", "middle", "changefreq", "--in", in, "--freq", "H")
	assert.Error(t, err)
}
