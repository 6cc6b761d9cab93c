package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecrew-ai/codecrew/pkg/types"
)

func setFlag(t *testing.T, target *string, value string) {
	t.Helper()
	old := *target
	*target = value
	t.Cleanup(func() { *target = old })
}

func TestResolveProvider(t *testing.T) {
	cfg := &types.Config{DefaultProvider: types.ProviderGrok}

	p, err := resolveProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderGrok, p)

	setFlag(t, &providerFlag, "claude")
	p, err = resolveProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderClaude, p)
}

func TestResolveProvider_Errors(t *testing.T) {
	_, err := resolveProvider(&types.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no provider configured")

	setFlag(t, &providerFlag, "frobnicator")
	_, err = resolveProvider(&types.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "frobnicator"`)
}

func TestSingleAgentConfig(t *testing.T) {
	setFlag(t, &modelFlag, "grok-3-mini")
	cfg := &types.Config{DefaultProvider: types.ProviderGrok}

	ac, err := singleAgentConfig(cfg, "")
	require.NoError(t, err)
	assert.NotEmpty(t, ac.ID)
	assert.Equal(t, "codecrew", ac.Name)
	assert.Equal(t, types.ProviderGrok, ac.Provider)
	assert.Equal(t, "grok-3-mini", ac.Model)
	assert.Equal(t, defaultSystemPrompt, ac.SystemPrompt)

	ac, err = singleAgentConfig(cfg, "You only review.")
	require.NoError(t, err)
	assert.Equal(t, "You only review.", ac.SystemPrompt)
}

func TestAttachFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("remember the milk"), 0o644))

	out, err := attachFiles("Review this", []string{path})
	require.NoError(t, err)
	assert.Equal(t, "Review this\n\n--- File: "+path+" ---\nremember the milk", out)

	same, err := attachFiles("unchanged", nil)
	require.NoError(t, err)
	assert.Equal(t, "unchanged", same)

	_, err = attachFiles("x", []string{filepath.Join(dir, "missing.txt")})
	assert.Error(t, err)
}

func TestResolveSystemPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("You are terse."), 0o644))

	got, err := resolveSystemPrompt("inline wins when no file", "")
	require.NoError(t, err)
	assert.Equal(t, "inline wins when no file", got)

	got, err = resolveSystemPrompt("ignored", path)
	require.NoError(t, err)
	assert.Equal(t, "You are terse.", got)

	_, err = resolveSystemPrompt("", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
