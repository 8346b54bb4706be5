package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the rankdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	AI        AIConfig        `yaml:"ai"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// AIConfig holds insight generation settings.
type AIConfig struct {
	APIKey      string       `yaml:"api_key"`
	BaseURL     string       `yaml:"base_url"`
	Model       string       `yaml:"model"`
	Temperature float32      `yaml:"temperature"`
	TopP        float32      `yaml:"top_p"`
	MaxTokens   int          `yaml:"max_tokens"`
	Limits      LimitsConfig `yaml:"limits"`
}

// LimitsConfig holds provider rate limits.
type LimitsConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	RequestsPerDay    int `yaml:"requests_per_day"`
}

// RankingConfig holds ranking pipeline settings.
type RankingConfig struct {
	Engines          map[string]float64 `yaml:"engines"` // engine name -> ensemble weight
	TopK             int                `yaml:"top_k"`   // candidates sent to the enhancer
	MaxResults       int                `yaml:"max_results"`
	MinQuality       float64            `yaml:"min_quality"`
	EngineTimeoutSec int                `yaml:"engine_timeout_sec"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	LocalCapacity int    `yaml:"local_capacity"`
	KeyPrefix     string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.AI.Temperature <= 0 {
		c.AI.Temperature = 0.3
	}
	if c.AI.TopP <= 0 {
		c.AI.TopP = 0.9
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = 1000
	}
	if c.AI.Limits.RequestsPerMinute <= 0 {
		c.AI.Limits.RequestsPerMinute = 15
	}
	if c.AI.Limits.RequestsPerDay <= 0 {
		c.AI.Limits.RequestsPerDay = 1500
	}
	if len(c.Ranking.Engines) == 0 {
		c.Ranking.Engines = map[string]float64{
			"hybrid":   1.2,
			"keyword":  1.0,
			"semantic": 1.1,
		}
	}
	if c.Ranking.TopK <= 0 {
		c.Ranking.TopK = 4
	}
	if c.Ranking.MaxResults <= 0 {
		c.Ranking.MaxResults = 10
	}
	if c.Ranking.EngineTimeoutSec <= 0 {
		c.Ranking.EngineTimeoutSec = 20
	}
	if c.Cache.LocalCapacity <= 0 {
		c.Cache.LocalCapacity = 2048
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "rankdex:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	for name, w := range c.Ranking.Engines {
		switch name {
		case "hybrid", "keyword", "semantic":
			// ok
		default:
			return fmt.Errorf("ranking.engines: unknown engine %q", name)
		}
		if w <= 0 {
			return fmt.Errorf("ranking.engines.%s: weight must be positive, got %v", name, w)
		}
	}
	if c.Ranking.MaxResults > 50 {
		return fmt.Errorf("ranking.max_results must not exceed 50, got %d", c.Ranking.MaxResults)
	}
	if c.Ranking.MinQuality < 0 || c.Ranking.MinQuality > 100 {
		return fmt.Errorf("ranking.min_quality must be between 0 and 100, got %v", c.Ranking.MinQuality)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
