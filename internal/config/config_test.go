package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	want := DefaultConfig()
	assert.Equal(t, want.Storage, cfg.Storage)
	assert.Equal(t, "main", cfg.Remote.Branch)
	assert.True(t, cfg.Executor.FileOpsEnabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen1.yaml")
	content := `
name: demo
storage:
  driver: sqlite3
  database_path: /tmp/demo.db
remote:
  repo_url: https://github.com/octo/demo
  branch: develop
  fetch_concurrency: 8
executor:
  file_ops_enabled: false
logging:
  level: debug
  categories:
    store: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, "sqlite3", cfg.Storage.Driver)
	assert.Equal(t, "https://github.com/octo/demo", cfg.Remote.RepoURL)
	assert.Equal(t, "develop", cfg.Remote.Branch)
	assert.Equal(t, 8, cfg.Remote.FetchConcurrency)
	assert.False(t, cfg.Executor.FileOpsEnabled)
	assert.Equal(t, map[string]bool{"store": false}, cfg.Logging.Categories)
	// untouched keys keep defaults
	assert.Equal(t, "https://api.github.com", cfg.Remote.APIBaseURL)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen1.toml")
	content := `
name = "tomlproj"

[remote]
repo_url = "https://github.com/octo/toml"
branch = "trunk"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tomlproj", cfg.Name)
	assert.Equal(t, "trunk", cfg.Remote.Branch)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("remote: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("GITHUB_TOKEN is a fallback", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "gh-token")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "gh-token", cfg.Remote.Token)
	})

	t.Run("GEN1_GITHUB_TOKEN wins", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "gh-token")
		t.Setenv("GEN1_GITHUB_TOKEN", "gen1-token")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "gen1-token", cfg.Remote.Token)
	})

	t.Run("nested fields", func(t *testing.T) {
		t.Setenv("GEN1_REPO_URL", "https://github.com/env/repo")
		t.Setenv("GEN1_BRANCH", "release")
		t.Setenv("GEN1_DB", "/var/gen1.db")
		t.Setenv("GEN1_FILE_OPS_ENABLED", "false")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "https://github.com/env/repo", cfg.Remote.RepoURL)
		assert.Equal(t, "release", cfg.Remote.Branch)
		assert.Equal(t, "/var/gen1.db", cfg.Storage.DatabasePath)
		assert.False(t, cfg.Executor.FileOpsEnabled)
	})

	t.Run("bad value is an error", func(t *testing.T) {
		t.Setenv("GEN1_FETCH_CONCURRENCY", "many")

		cfg := DefaultConfig()
		assert.Error(t, cfg.applyEnvOverrides())
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gen1.yaml")
	cfg := DefaultConfig()
	cfg.Remote.RepoURL = "https://github.com/octo/saved"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Remote.RepoURL, loaded.Remote.RepoURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad driver", func(c *Config) { c.Storage.Driver = "postgres" }, true},
		{"empty db path", func(c *Config) { c.Storage.DatabasePath = "" }, true},
		{"zero concurrency", func(c *Config) { c.Remote.FetchConcurrency = 0 }, true},
		{"bad api url", func(c *Config) { c.Remote.APIBaseURL = "::nope" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetRemoteTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.GetRemoteTimeout())

	cfg.Remote.Timeout = "5s"
	assert.Equal(t, 5*time.Second, cfg.GetRemoteTimeout())

	cfg.Remote.Timeout = "soon"
	assert.Equal(t, 30*time.Second, cfg.GetRemoteTimeout())
}
