package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReturnsUsageWhenNoManifestPathGiven(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseAcceptsPositionalManifestPath(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"manifests/chat.hcl"}, &out)
	require.NoError(t, err)
	assert.False(t, exit)
	require.NotNil(t, cfg)
	assert.Equal(t, "manifests/chat.hcl", cfg.ManifestPath)
	assert.Equal(t, "default", cfg.RunID)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestParseAcceptsManifestFlag(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{
		"-manifest", "manifests/chat.hcl",
		"-model-config", "models.yaml",
		"-provider-url", "https://api.example.com",
		"-run-id", "nightly",
		"-log-level", "debug",
		"-log-format", "text",
	}, &out)
	require.NoError(t, err)
	assert.False(t, exit)
	require.NotNil(t, cfg)
	assert.Equal(t, "manifests/chat.hcl", cfg.ManifestPath)
	assert.Equal(t, "models.yaml", cfg.ModelConfigPath)
	assert.Equal(t, "https://api.example.com", cfg.ProviderBaseURL)
	assert.Equal(t, "nightly", cfg.RunID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestParseRejectsInvalidLogFormat(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-log-format", "xml", "manifests/chat.hcl"}, &out)
	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParseRejectsInvalidLogLevel(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-log-level", "verbose", "manifests/chat.hcl"}, &out)
	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
