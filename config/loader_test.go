package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testLoader(t *testing.T) (*Loader, string, string) {
	t.Helper()
	home := t.TempDir()
	project := t.TempDir()
	cwd := filepath.Join(project, "a", "b")
	require.NoError(t, os.MkdirAll(cwd, 0755))
	return &Loader{logger: NewLoader(nil).logger, home: home, cwd: cwd}, home, project
}

func TestLoader_Defaults(t *testing.T) {
	l, _, _ := testLoader(t)

	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_LayerPrecedence(t *testing.T) {
	l, home, project := testLoader(t)

	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
engine:
  seed: 3
nats:
  url: nats://user:4222
`)
	// Found by walking up from cwd.
	writeFile(t, filepath.Join(project, ProjectConfigFile), `
nats:
  url: nats://project:4222
`)

	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, "nats://project:4222", cfg.NATS.URL)
	// The project file leaves the seed unset, so the user value survives.
	assert.Equal(t, uint64(3), cfg.Engine.Seed)

	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	writeFile(t, explicit, "engine:\n  palette: [C, G]\n")
	cfg, err = l.Load(explicit)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "G"}, cfg.Engine.Palette)
	assert.Equal(t, "nats://project:4222", cfg.NATS.URL)
}

func TestLoader_ExplicitMissing(t *testing.T) {
	l, _, _ := testLoader(t)

	_, err := l.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_InvalidResult(t *testing.T) {
	l, _, project := testLoader(t)
	writeFile(t, filepath.Join(project, ProjectConfigFile), "engine:\n  palette: [X]\n")

	_, err := l.Load("")
	assert.Error(t, err)
}

func TestLoader_EnsureUserConfig(t *testing.T) {
	l, home, _ := testLoader(t)

	require.NoError(t, l.EnsureUserConfig())
	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	_, err := os.Stat(path)
	require.NoError(t, err)

	// Existing files are left alone.
	writeFile(t, path, "engine:\n  seed: 9\n")
	require.NoError(t, l.EnsureUserConfig())
	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), loaded.Engine.Seed)
}
