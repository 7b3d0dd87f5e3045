package config

import "time"

var defaultEmbeddingModels = map[string]string{
	"openai": "nomic-embed-text",
	"gemini": "gemini-embedding-001",
}

var defaultLLMModels = map[string]string{
	"openai":    "gemma2:9b",
	"gemini":    "gemini-2.0-flash",
	"anthropic": "claude-3-5-haiku-latest",
	"mock":      "echo",
}

var defaultAPIKeyEnvs = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Server.RateLimitPerMinute == 0 {
		cfg.Server.RateLimitPerMinute = 60
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/pustaka/data/chunks.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/pustaka/data/vectors.index"
	}
	if cfg.Source.Format == "" {
		cfg.Source.Format = "csv"
	}
	if cfg.Source.Format == "sql" && cfg.Source.Driver == "" {
		cfg.Source.Driver = "postgres"
	}
	if cfg.Source.Table == "" {
		cfg.Source.Table = "chunks"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Provider == "onnx" && cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/pustaka/data/models/encoder.onnx"
	}
	if cfg.Embedding.Provider == "openai" && cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaultEmbeddingModels[cfg.Embedding.Provider]
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = defaultAPIKeyEnvs[cfg.Embedding.Provider]
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 512
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "memory"
	}
	if cfg.Vector.Metric == "" {
		cfg.Vector.Metric = "l2"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Provider == "openai" && cfg.LLM.BaseURL == "" {
		// Ollama's OpenAI-compatible endpoint.
		cfg.LLM.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultLLMModels[cfg.LLM.Provider]
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = defaultAPIKeyEnvs[cfg.LLM.Provider]
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 500
	}
	if cfg.LLM.Language == "" {
		cfg.LLM.Language = "en"
	}
	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = 20
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 30
	}
	if cfg.Retrieval.MaxContextChunks == 0 {
		cfg.Retrieval.MaxContextChunks = 5
	}
}
