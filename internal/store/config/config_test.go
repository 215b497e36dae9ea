package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxfs/oxen/internal/oxenerr"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := New("repo-123", "datasets")
	cfg.User = AuthConfig{Name: "Ada Lovelace", Email: "ada@example.com"}
	cfg.Remotes = append(cfg.Remotes, Remote{Name: DefaultRemoteName, URL: "https://example.com/ada/datasets"})

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.RepoID, loaded.RepoID)
	assert.Equal(t, cfg.RepoName, loaded.RepoName)
	assert.True(t, loaded.User.IsSet())
	assert.Equal(t, "ada@example.com", loaded.User.Email)
	require.Len(t, loaded.Remotes, 1)
	assert.Equal(t, DefaultRemoteName, loaded.Remotes[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.Error(t, err)
	assert.True(t, oxenerr.Is(err, oxenerr.NotFound))
}

func TestAuthConfigIsSet(t *testing.T) {
	assert.False(t, AuthConfig{}.IsSet())
	assert.False(t, AuthConfig{Name: "only name"}.IsSet())
	assert.True(t, AuthConfig{Name: "a", Email: "b"}.IsSet())
}
