package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/equityscore/internal/brain"
	"github.com/wonny/equityscore/internal/scoringconfig"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		configFile, jsonOutput = "", false
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseStages(t *testing.T) {
	stages, err := parseStages([]string{"fundamentals", "technical", " S3 "})
	require.NoError(t, err)
	assert.Equal(t, []brain.Stage{brain.StageFundamentals, brain.StageTechnical, brain.StageValuation}, stages)

	stages, err = parseStages(nil)
	require.NoError(t, err)
	assert.Nil(t, stages, "no flag means every stage")

	_, err = parseStages([]string{"forecast"})
	assert.EqualError(t, err, `unknown stage "forecast"`)
}

func TestConfigHash(t *testing.T) {
	path := filepath.Join("..", "..", "..", "config", "scoring", "default.yaml")

	out, err := execute(t, "config", "hash", "--json", "--config", path)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	want, err := scoringconfig.Hash(scoringconfig.Default())
	require.NoError(t, err)
	assert.Equal(t, want, got["hash"])
	assert.Equal(t, "default", got["config_id"])
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("valuation:\n  peg_min: -1\n"), 0o644))

	out, err := execute(t, "config", "validate", bad)
	require.Error(t, err)
	assert.Contains(t, out, "valuation")

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("meta:\n  config_id: custom\n"), 0o644))

	out, err = execute(t, "config", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Config custom")
}

func TestAnalyzeRequiresSymbolsOrAll(t *testing.T) {
	_, err := execute(t, "analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "give symbols or --all")
}
