package kalc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rlch/kalc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_WalksUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "src", "scripts")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	config := "scripts:\n  - \"scripts/*.kal\"\nlibrary:\n  - lib/extra.yaml\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".kalc.yaml"), []byte(config), 0o600))

	cfg, err := kalc.LoadConfig(nested)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{filepath.Join(root, "lib", "extra.yaml")}, cfg.LibraryPaths())
	assert.True(t, cfg.IsScript(filepath.Join(root, "scripts", "main.kal")))
	assert.False(t, cfg.IsScript(filepath.Join(root, "src", "Main.kal")))
}

func TestLoadConfig_DefaultsScripts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kalc.yml"), []byte("log_level: warn\n"), 0o600))

	cfg, err := kalc.LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{kalc.DefaultScriptPattern}, cfg.Scripts)
	assert.True(t, cfg.IsScript(filepath.Join(dir, "deep", "run.kls")))
}

func TestFindConfig_NotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := kalc.FindConfig(dir)
	if err != nil {
		assert.ErrorIs(t, err, kalc.ErrConfigNotFound)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := kalc.DefaultConfig()

	assert.True(t, cfg.IsScript("hello.kls"))
	assert.False(t, cfg.IsScript("Hello.kal"))
	assert.Empty(t, cfg.LibraryPaths())
}
