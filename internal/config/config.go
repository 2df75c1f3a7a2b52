package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"moralsim/internal/errors"

	"gopkg.in/yaml.v3"
)

const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	StoreNone     = "none"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"

	MaxTotalScenarios = 50
)

// Config represents the complete application configuration
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Data      DataConfig      `yaml:"data"`
	Provider  ProviderConfig  `yaml:"provider"`
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Profiling ProfilingConfig `yaml:"profiling"`
	Log       LogConfig       `yaml:"log"`
}

// EngineConfig holds session engine tuning
type EngineConfig struct {
	TotalScenarios        int           `yaml:"total_scenarios"`
	RotationOffset        int           `yaml:"rotation_offset"`
	SimilarityTopK        int           `yaml:"similarity_top_k"`
	SimilaritySampleLimit int           `yaml:"similarity_sample_limit"`
	RevealDelay           time.Duration `yaml:"reveal_delay"`
	PromptSampleRows      int           `yaml:"prompt_sample_rows"`
	Seed                  int64         `yaml:"seed"` // 0 seeds from the clock
}

// DataConfig holds the historical response dataset location
type DataConfig struct {
	DatasetFile string `yaml:"dataset_file"`
}

// ProviderConfig holds generative provider settings
type ProviderConfig struct {
	Kind        string        `yaml:"kind"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	PromptsDir  string        `yaml:"prompts_dir"`
	Fallback    bool          `yaml:"fallback"`
}

// StoreConfig holds result persistence settings
type StoreConfig struct {
	Kind        string        `yaml:"kind"`
	DatabaseURL string        `yaml:"database_url"`
	SQLitePath  string        `yaml:"sqlite_path"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisTTL    time.Duration `yaml:"redis_ttl"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port       string        `yaml:"port"`
	GinMode    string        `yaml:"gin_mode"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// ProfilingConfig holds the ops listener settings
type ProfilingConfig struct {
	Port    string `yaml:"port"`
	Enabled bool   `yaml:"enabled"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			TotalScenarios:   7,
			RotationOffset:   1,
			SimilarityTopK:   5,
			RevealDelay:      500 * time.Millisecond,
			PromptSampleRows: 5,
		},
		Data: DataConfig{DatasetFile: "data/responses.csv"},
		Provider: ProviderConfig{
			Kind:        ProviderNone,
			Temperature: 0.9,
			MaxTokens:   1200,
			Timeout:     60 * time.Second,
		},
		Store: StoreConfig{
			Kind:       StoreNone,
			SQLitePath: "moralsim.db",
			RedisAddr:  "localhost:6379",
			RedisTTL:   30 * 24 * time.Hour,
		},
		Server:    ServerConfig{Port: "8080", GinMode: "release", SessionTTL: 2 * time.Hour},
		Profiling: ProfilingConfig{Port: "6060", Enabled: false},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads configuration from the optional CONFIG_FILE YAML overlay and
// then environment variables, and validates it
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit overlay path; an empty path skips the overlay
func LoadFile(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if err := applyFile(config, path); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}

	applyEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func applyFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config) {
	c.Engine.TotalScenarios = getEnvIntOrDefault("TOTAL_SCENARIOS", c.Engine.TotalScenarios)
	c.Engine.RotationOffset = getEnvIntOrDefault("ROTATION_OFFSET", c.Engine.RotationOffset)
	c.Engine.SimilarityTopK = getEnvIntOrDefault("SIMILARITY_TOP_K", c.Engine.SimilarityTopK)
	c.Engine.SimilaritySampleLimit = getEnvIntOrDefault("SIMILARITY_SAMPLE_LIMIT", c.Engine.SimilaritySampleLimit)
	c.Engine.RevealDelay = getEnvDurationOrDefault("REVEAL_DELAY", c.Engine.RevealDelay)
	c.Engine.PromptSampleRows = getEnvIntOrDefault("PROMPT_SAMPLE_ROWS", c.Engine.PromptSampleRows)
	c.Engine.Seed = int64(getEnvIntOrDefault("ENGINE_SEED", int(c.Engine.Seed)))

	c.Data.DatasetFile = getEnvOrDefault("DATASET_FILE", c.Data.DatasetFile)

	c.Provider.Kind = getEnvOrDefault("PROVIDER", c.Provider.Kind)
	c.Provider.Model = getEnvOrDefault("LLM_MODEL", c.Provider.Model)
	c.Provider.BaseURL = getEnvOrDefault("LLM_BASE_URL", c.Provider.BaseURL)
	c.Provider.Temperature = getEnvFloatOrDefault("TEMPERATURE", c.Provider.Temperature)
	c.Provider.MaxTokens = getEnvIntOrDefault("MAX_TOKENS", c.Provider.MaxTokens)
	c.Provider.Timeout = getEnvDurationOrDefault("LLM_TIMEOUT", c.Provider.Timeout)
	c.Provider.PromptsDir = getEnvOrDefault("PROMPTS_DIR", c.Provider.PromptsDir)
	c.Provider.Fallback = getEnvBoolOrDefault("PROVIDER_FALLBACK", c.Provider.Fallback)
	switch c.Provider.Kind {
	case ProviderOpenAI:
		c.Provider.APIKey = getEnvOrDefault("OPENAI_API_KEY", c.Provider.APIKey)
	case ProviderGemini:
		c.Provider.APIKey = getEnvOrDefault("GEMINI_API_KEY", getEnvOrDefault("GOOGLE_API_KEY", c.Provider.APIKey))
	}

	c.Store.Kind = getEnvOrDefault("STORE", c.Store.Kind)
	c.Store.DatabaseURL = getEnvOrDefault("DATABASE_URL", c.Store.DatabaseURL)
	c.Store.SQLitePath = getEnvOrDefault("SQLITE_PATH", c.Store.SQLitePath)
	c.Store.RedisAddr = getEnvOrDefault("REDIS_ADDR", c.Store.RedisAddr)
	c.Store.RedisTTL = getEnvDurationOrDefault("REDIS_TTL", c.Store.RedisTTL)

	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Server.GinMode = getEnvOrDefault("GIN_MODE", c.Server.GinMode)
	c.Server.SessionTTL = getEnvDurationOrDefault("SESSION_TTL", c.Server.SessionTTL)

	c.Profiling.Port = getEnvOrDefault("PPROF_PORT", c.Profiling.Port)
	c.Profiling.Enabled = getEnvBoolOrDefault("PPROF_ENABLED", c.Profiling.Enabled)

	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
}

func validateConfig(config *Config) error {
	e := config.Engine
	if e.TotalScenarios < 1 || e.TotalScenarios > MaxTotalScenarios {
		return errors.ConfigInvalid(fmt.Sprintf("total scenarios must be between 1 and %d, got %d", MaxTotalScenarios, e.TotalScenarios))
	}
	if e.SimilarityTopK < 1 {
		return errors.ConfigInvalid("similarity top-k must be at least 1")
	}
	if e.SimilaritySampleLimit < 0 || e.PromptSampleRows < 0 || e.RevealDelay < 0 {
		return errors.ConfigInvalid("sample limits and reveal delay cannot be negative")
	}

	switch config.Provider.Kind {
	case ProviderNone:
	case ProviderOpenAI, ProviderGemini:
		if config.Provider.APIKey == "" {
			return errors.ConfigInvalid(config.Provider.Kind + " provider requires an API key")
		}
	default:
		return errors.ConfigInvalid("unknown provider " + strconv.Quote(config.Provider.Kind))
	}

	switch config.Store.Kind {
	case StoreNone:
	case StorePostgres:
		if config.Store.DatabaseURL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required for the postgres store")
		}
	case StoreSQLite:
		if config.Store.SQLitePath == "" {
			return errors.ConfigInvalid("SQLITE_PATH is required for the sqlite store")
		}
	case StoreRedis:
		if config.Store.RedisAddr == "" {
			return errors.ConfigInvalid("REDIS_ADDR is required for the redis store")
		}
	default:
		return errors.ConfigInvalid("unknown store " + strconv.Quote(config.Store.Kind))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
