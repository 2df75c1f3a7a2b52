package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"moralsim/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Engine.TotalScenarios)
	assert.Equal(t, 5, cfg.Engine.SimilarityTopK)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.RevealDelay)
	assert.Equal(t, ProviderNone, cfg.Provider.Kind)
	assert.Equal(t, StoreNone, cfg.Store.Kind)
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "moralsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  total_scenarios: 10
  reveal_delay: 1s
provider:
  kind: gemini
  api_key: from-file
  model: gemini-2.5-pro
store:
  kind: sqlite
  sqlite_path: /tmp/results.db
`), 0o644))

	t.Setenv("TOTAL_SCENARIOS", "12")
	t.Setenv("STORE", "redis")
	t.Setenv("REDIS_TTL", "1h")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Engine.TotalScenarios)
	assert.Equal(t, time.Second, cfg.Engine.RevealDelay)
	assert.Equal(t, ProviderGemini, cfg.Provider.Kind)
	assert.Equal(t, "from-file", cfg.Provider.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Provider.Model)
	assert.Equal(t, StoreRedis, cfg.Store.Kind)
	assert.Equal(t, time.Hour, cfg.Store.RedisTTL)
}

func TestLoadFile_ProviderKeyFromEnv(t *testing.T) {
	t.Setenv("PROVIDER", "openai")
	_, err := LoadFile("")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Provider.APIKey)
}

func TestValidateConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"zero scenarios":   func(c *Config) { c.Engine.TotalScenarios = 0 },
		"too many":         func(c *Config) { c.Engine.TotalScenarios = MaxTotalScenarios + 1 },
		"top-k":            func(c *Config) { c.Engine.SimilarityTopK = 0 },
		"negative delay":   func(c *Config) { c.Engine.RevealDelay = -time.Second },
		"unknown provider": func(c *Config) { c.Provider.Kind = "claude" },
		"postgres url":     func(c *Config) { c.Store.Kind = StorePostgres },
		"unknown store":    func(c *Config) { c.Store.Kind = "mongo" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
	assert.NoError(t, validateConfig(Default()))
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
