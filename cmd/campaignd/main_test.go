package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/callcampaign-mcp/internal/config"
	"github.com/dshills/callcampaign-mcp/internal/storage"
)

const roster = `
campaign:
  name: spring
  area: north
  active: true
clients:
  - name: ZRAIKA
    firstname: Romane
    phone: "+33 1 34 56 78 90"
  - name: ZRAIKA
    firstname: Romane
    phone: "+33 1 34 56 78 91"
  - name: other
    phone: "+44 20 7946 0000"
`

// clearEnv isolates a test from campaignd environment variables
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvConfig, config.EnvDBPath, config.EnvLogLevel, config.EnvMetricsAddr, config.EnvMaxCandidates} {
		t.Setenv(key, "")
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func importRoster(t *testing.T, dbPath string) importOutput {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(roster), 0644))

	out, err := runCommand(t, "--db", dbPath, "--log-level", "error", "import", path)
	require.NoError(t, err)

	var stats importOutput
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	return stats
}

func TestRun_Version(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: dev")
	assert.Contains(t, out, "Build Mode: "+storage.BuildMode)
	assert.Contains(t, out, "SQLite Driver: "+storage.DriverName)
}

func TestRun_Usage(t *testing.T) {
	clearEnv(t)

	_, err := runCommand(t)
	assert.Error(t, err)

	_, err = runCommand(t, "--help")
	assert.NoError(t, err)

	_, err = runCommand(t, "--db", filepath.Join(t.TempDir(), "c.db"), "explode")
	assert.ErrorContains(t, err, "unknown command")

	_, err = runCommand(t, "--log-format", "xml", "serve")
	assert.ErrorContains(t, err, "log.format")
}

func TestRun_ImportAndResolve(t *testing.T) {
	clearEnv(t)
	dbPath := filepath.Join(t.TempDir(), "campaign.db")

	stats := importRoster(t, dbPath)
	assert.True(t, stats.CampaignCreated)
	assert.Equal(t, 3, stats.ClientsImported)
	assert.Zero(t, stats.ClientsFailed)

	tests := []struct {
		name  string
		args  []string
		found bool
		pass  string
		phone string
	}{
		{
			name:  "exact with phone end",
			args:  []string{"--area", "north", "--name", "zraika", "--first-name", "romane", "--phone-end", "91"},
			found: true, pass: "exact", phone: "+33134567891",
		},
		{
			name:  "fuzzy by campaign id",
			args:  []string{"--campaign", strconv.FormatInt(stats.CampaignID, 10), "--name", "ZAIKA", "--first-name", "Romane", "--phone-start", "+33", "--phone-end", "90"},
			found: true, pass: "fuzzy", phone: "+33134567890",
		},
		{
			name:  "phone fragments only",
			args:  []string{"--area", "north", "--phone-start", "+44", "--phone-end", "0000"},
			found: true, pass: "exact", phone: "+442079460000",
		},
		{
			name: "not found",
			args: []string{"--area", "north", "--name", "searchcompletetest"},
			pass: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", dbPath, "--log-level", "error", "resolve"}, tt.args...)

			out, err := runCommand(t, args...)
			require.NoError(t, err)

			var result resolveOutput
			require.NoError(t, json.Unmarshal([]byte(out), &result))
			assert.Equal(t, tt.found, result.Found)
			assert.Equal(t, tt.pass, string(result.Pass))
			if !tt.found {
				assert.Nil(t, result.Client)
				assert.Equal(t, "no client found", result.Message)
				return
			}
			require.NotNil(t, result.Client)
			assert.Equal(t, tt.phone, result.Client.Phone)
		})
	}
}

func TestRun_ResolveErrors(t *testing.T) {
	clearEnv(t)
	dbPath := filepath.Join(t.TempDir(), "campaign.db")
	importRoster(t, dbPath)

	_, err := runCommand(t, "--db", dbPath, "resolve", "--name", "ZRAIKA")
	assert.ErrorContains(t, err, "--campaign or --area")

	_, err = runCommand(t, "--db", dbPath, "resolve", "--area", "south", "--name", "ZRAIKA")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = runCommand(t, "--db", dbPath, "resolve", "--area", "north")
	assert.ErrorContains(t, err, "--name, --first-name, --phone-start or --phone-end is required")
}

func TestRun_ImportErrors(t *testing.T) {
	clearEnv(t)
	dbPath := filepath.Join(t.TempDir(), "campaign.db")

	_, err := runCommand(t, "--db", dbPath, "import")
	assert.Error(t, err)

	_, err = runCommand(t, "--db", dbPath, "import", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfig_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvDBPath, "/from/env.db")
	t.Setenv(config.EnvLogLevel, "warn")

	var stdout, stderr bytes.Buffer
	dbPath := filepath.Join(t.TempDir(), "flag.db")
	err := run([]string{"--db", dbPath, "--log-level", "error", "import", filepath.Join(t.TempDir(), "missing.yaml")}, &stdout, &stderr)
	require.Error(t, err)

	_, statErr := os.Stat(dbPath)
	assert.NoError(t, statErr, "the --db flag wins over the environment")
}
