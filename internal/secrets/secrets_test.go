// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadReadsFilesAndTrims(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "anthropic-api-key", "  sk-ant-abc123  \n")
	writeFile(t, dir, "openalex-email", "user@example.com\n")
	writeFile(t, dir, ".hidden", "ignored")
	writeFile(t, dir, "empty-key", "   \n")

	store, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Store{
		"anthropic-api-key": "sk-ant-abc123",
		"openalex-email":    "user@example.com",
	}, store)
}

func TestLoadMissingDirectory(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, store)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "anthropic-api-key", "from-file")
	t.Setenv("ARIS_SECRET_ANTHROPIC_API_KEY", "from-env")
	t.Setenv("ARIS_SECRET_OPENALEX_EMAIL", "env@example.com")

	store, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", store["anthropic-api-key"])
	assert.Equal(t, "env@example.com", store["openalex-email"])
}

func TestGetPrefersExplicitFallback(t *testing.T) {
	store := Store{"anthropic-api-key": "stored"}

	assert.Equal(t, "flag-value", store.Get("anthropic-api-key", "flag-value"))
	assert.Equal(t, "stored", store.Get("anthropic-api-key", ""))
	assert.Empty(t, store.Get("missing", ""))
}
