// Package config loads and saves the repository's .oxen/config.toml,
// mirroring the on-disk layout's repo identity, author and default-remote
// settings (§6). Parsing uses github.com/BurntSushi/toml, the same TOML
// library used elsewhere in the example pack for this purpose.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/oxfs/oxen/internal/oxenerr"
)

// Default constants named in §6 of the on-disk layout.
const (
	DefaultBranchName = "main"
	DefaultRemoteName = "origin"
	DefaultNamespace  = "ox"
)

// AuthConfig identifies the author recorded on commits.
type AuthConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// IsSet reports whether both name and email have been configured.
func (a AuthConfig) IsSet() bool { return a.Name != "" && a.Email != "" }

// Remote is a named remote repository location.
type Remote struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Config is the parsed form of .oxen/config.toml.
type Config struct {
	RepoID       string   `toml:"repo_id"`
	RepoName     string   `toml:"repo_name"`
	DefaultRemote string  `toml:"default_remote"`
	User         AuthConfig `toml:"user"`
	Remotes      []Remote   `toml:"remote"`
}

// Load parses the config file at path. NotFound is returned if it does not
// exist; Corruption if it exists but fails to parse.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is derived from the repo's own .oxen directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oxenerr.Wrap(oxenerr.NotFound, "config.Load", "config.toml not found", err)
		}
		return nil, oxenerr.Wrap(oxenerr.IoError, "config.Load", "reading config.toml", err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, oxenerr.Wrap(oxenerr.Corruption, "config.Load", "parsing config.toml", err)
	}
	return &cfg, nil
}

// Save writes cfg to path as TOML, creating or truncating the file.
func Save(path string, cfg *Config) error {
	f, err := os.Create(path) //nolint:gosec // G304: path is derived from the repo's own .oxen directory
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "config.Save", "creating config.toml", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "config.Save", "writing config.toml", err)
	}
	return nil
}

// New returns a fresh Config for a newly initialized repository identified
// by repoID/repoName, with no author configured yet.
func New(repoID, repoName string) *Config {
	return &Config{
		RepoID:        repoID,
		RepoName:      repoName,
		DefaultRemote: DefaultRemoteName,
	}
}
