// Package config provides configuration loading and structs for the pustaka server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Source    SourceConfig    `yaml:"source"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
}

// StorageConfig holds paths for the chunk database and the vector index.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
}

// SourceConfig describes the tabular chunk source read by the prepare command.
type SourceConfig struct {
	Format string `yaml:"format"` // csv, xlsx or sql
	Path   string `yaml:"path"`
	Sheet  string `yaml:"sheet"`
	Driver string `yaml:"driver"` // sqlite3 or postgres
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // openai (default), gemini, onnx or mock
	ModelPath  string `yaml:"model_path"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	BatchSize  int    `yaml:"batch_size"`
}

// VectorConfig selects the index implementation and its distance metric.
// The metric must be the one the index was built with.
type VectorConfig struct {
	IndexType string `yaml:"index_type"` // memory or faiss
	Metric    string `yaml:"metric"`     // l2 or ip
}

// LLMConfig holds completion backend settings.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, gemini, anthropic or mock
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Language    string  `yaml:"language"` // en or id
}

// RetrievalConfig holds ranking and context window settings.
type RetrievalConfig struct {
	DefaultTopK      int `yaml:"default_top_k"`
	MaxTopK          int `yaml:"max_top_k"`
	MaxContextChunks int `yaml:"max_context_chunks"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Source.Path != "" {
		cfg.Source.Path = expandPath(cfg.Source.Path, configDir)
	}

	return &cfg, nil
}

// Validate rejects settings that would silently break ranking.
func (c *Config) Validate() error {
	switch c.Vector.Metric {
	case "l2", "ip":
	default:
		return fmt.Errorf("invalid vector metric %q (supported: l2, ip)", c.Vector.Metric)
	}
	switch c.LLM.Language {
	case "en", "id":
	default:
		return fmt.Errorf("invalid llm language %q (supported: en, id)", c.LLM.Language)
	}
	if c.Retrieval.DefaultTopK > c.Retrieval.MaxTopK {
		return fmt.Errorf("retrieval default_top_k (%d) exceeds max_top_k (%d)",
			c.Retrieval.DefaultTopK, c.Retrieval.MaxTopK)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
