package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/varset"
)

const manifestFixture = `
pipeline "chat" {
  step "complete" {
    action   = "complete_chat"
    consumes = ["prompt", "profile"]
    produces = ["completion"]
  }
}
`

const modelsFixture = `
profiles:
  fast:
    provider: openai
    model: gpt-test
    temperature: 0.1
    max_tokens: 128
`

func writeFixtures(t *testing.T) (manifestPath, modelsPath string) {
	t.Helper()
	dir := t.TempDir()

	manifestPath = filepath.Join(dir, "chat.hcl")
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifestFixture), 0o644))

	modelsPath = filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(modelsPath, []byte(modelsFixture), 0o644))

	return manifestPath, modelsPath
}

func TestRunExecutesManifestPipelineEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello!"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	manifestPath, modelsPath := writeFixtures(t)

	testApp, _ := SetupAppTest(t, Config{
		ManifestPath:    manifestPath,
		ModelConfigPath: modelsPath,
		ProviderBaseURL: srv.URL,
		ProviderAPIKey:  "test-key",
		RunID:           "run-1",
	})

	require.Len(t, testApp.Pipelines(), 1)
	pipe := testApp.Pipelines()[0]

	vars := testApp.Variables()
	err := testApp.SeedInputs(context.Background(), pipe, map[varset.AnyKey]any{
		vars.Prompt:  "say hello",
		vars.Profile: "fast",
	})
	require.NoError(t, err)

	require.NoError(t, testApp.Run(context.Background()))

	loaded, err := testApp.Store().LoadContextForPipeline(context.Background(), "run-1", pipe, pipectx.NewTracked(), true, true)
	require.NoError(t, err)

	completion, err := pipectx.Get(loaded, vars.Completion)
	require.NoError(t, err)
	assert.Equal(t, "hello!", completion)
}

func TestNewConfigFailsOnMissingManifestPath(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.Error(t, err)
}

func TestNewAppLoadsZeroPipelinesFromNonexistentManifestPath(t *testing.T) {
	_, modelsPath := writeFixtures(t)

	cfg, err := NewConfig(Config{
		ManifestPath:    filepath.Join(t.TempDir(), "missing.hcl"),
		ModelConfigPath: modelsPath,
	})
	require.NoError(t, err)

	built, err := NewApp(&SafeBuffer{}, cfg)
	require.NoError(t, err)
	assert.Empty(t, built.Pipelines())
}

func TestNewAppFailsOnUnreadableModelConfig(t *testing.T) {
	manifestPath, _ := writeFixtures(t)

	cfg, err := NewConfig(Config{
		ManifestPath:    manifestPath,
		ModelConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	require.NoError(t, err)

	_, err = NewApp(&SafeBuffer{}, cfg)
	assert.Error(t, err)
}
