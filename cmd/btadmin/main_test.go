package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/gcpclients/pkg/bigtable"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigPrecedence(t *testing.T) {
	opts := &globalOptions{
		configFile: writeConfig(t, `
project: from-file
endpoint: file.example.com:443
timeout: 10s
`),
		project: "from-flag",
		timeout: 30 * time.Second,
	}

	cfg, err := opts.config()
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Project)
	assert.Equal(t, "file.example.com:443", cfg.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	// Defaults survive the file.
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay)
}

func TestConfigErrors(t *testing.T) {
	_, err := (&globalOptions{}).config()
	require.Error(t, err, "project is required")

	_, err = (&globalOptions{configFile: writeConfig(t, "unknown_field: 1\n")}).config()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing config file")

	_, err = (&globalOptions{configFile: filepath.Join(t.TempDir(), "missing.yaml")}).config()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestNewAppParsesCommands(t *testing.T) {
	app := newApp()
	app.Terminate(nil)

	// Actions are not run by ParseContext.
	for _, args := range [][]string{
		{"--instance=i", "tables"},
		{"--instance=i", "get", "t", "--view=full"},
		{"--instance=i", "create", "t", "-f", "cf:versions=1", "--split=m"},
		{"--instance=i", "modify", "t", "--add=cf2", "--drop=cf1", "--dry-run"},
		{"--instance=i", "drop-rows", "t", "--prefix=user#"},
		{"--instance=i", "wait", "t", "--wait-timeout=1m", "--check-interval=1s"},
	} {
		_, err := app.ParseContext(args)
		assert.NoError(t, err, args)
	}

	_, err := app.ParseContext([]string{"--instance=i", "unknown"})
	assert.Error(t, err)
}

func TestDropRowsRequest(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cmd      dropRowsCommand
		expected bigtable.DropRowRangeRequest
		wantErr  bool
	}{
		{
			name:     "all",
			cmd:      dropRowsCommand{all: true, timeout: time.Minute},
			expected: bigtable.DropRowRangeRequest{DeleteAllData: true, Timeout: time.Minute},
		},
		{
			name:     "prefix",
			cmd:      dropRowsCommand{prefix: "user#"},
			expected: bigtable.DropRowRangeRequest{RowKeyPrefix: []byte("user#")},
		},
		{name: "both", cmd: dropRowsCommand{all: true, prefix: "a"}, wantErr: true},
		{name: "neither", cmd: dropRowsCommand{}, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req, err := tc.cmd.request()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, req)
		})
	}
}

func TestModifyEdit(t *testing.T) {
	current := bigtable.NewColumnFamilyMap()
	require.NoError(t, current.Add("cf1", nil))
	require.NoError(t, current.Add("cf2", bigtable.MaxVersionsRule(1)))

	cmd := &modifyCommand{
		add:    []string{"cf3:age=1d"},
		update: []string{"cf2:versions=5"},
		drop:   []string{"cf1"},
	}
	next := current.Clone()
	require.NoError(t, cmd.edit(next))

	var actual []string
	for _, mod := range next.Modifications(current) {
		actual = append(actual, bigtable.ModificationString(mod))
	}
	assert.Equal(t, []string{
		"create cf3 age() > 1d",
		"update cf2 versions() > 5",
		"drop cf1",
	}, actual)

	require.Error(t, (&modifyCommand{drop: []string{"missing"}}).edit(current.Clone()))
}

func TestParseGranularity(t *testing.T) {
	g, err := parseGranularity("MILLIS")
	require.NoError(t, err)
	assert.Equal(t, btapb.Table_MILLIS, g)

	g, err = parseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, btapb.Table_TIMESTAMP_GRANULARITY_UNSPECIFIED, g)

	_, err = parseGranularity("micros")
	require.Error(t, err)
}
