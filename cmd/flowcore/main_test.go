package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunFailsOnUnresolvableManifestAction(t *testing.T) {
	t.Parallel()

	manifest := `
pipeline "chat" {
  step "complete" {
    action   = "does_not_exist"
    consumes = ["prompt"]
    produces = ["completion"]
  }
}
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "chat.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(manifest), 0o600))

	out := &bytes.Buffer{}
	runErr := run(out, []string{filePath})

	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "application startup failed")
}

func TestRunShouldExitOnHelpFlag(t *testing.T) {
	t.Parallel()

	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err)
	require.Contains(t, out.String(), "Usage:")
}

func TestRunPropagatesParseError(t *testing.T) {
	t.Parallel()

	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.Error(t, err)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
