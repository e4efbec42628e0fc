package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"docqa/internal/logger"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// UploadConfig bounds what the ingestion entrypoint accepts.
type UploadConfig struct {
	Dir           string `yaml:"dir"`
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
}

// StoreConfig locates the persisted (index, chunk store) pair.
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	RowsPerChunk int `yaml:"rows_per_chunk"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI embedder.
type OpenAIEmbedderConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LocalEmbedderConfig configures the deterministic offline embedder.
type LocalEmbedderConfig struct {
	Dimension int `yaml:"dimension"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Local  *LocalEmbedderConfig  `yaml:"local,omitempty"`
}

// LLMConfig configures the answer-generation provider.
type LLMConfig struct {
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// ConverterConfig points at the external document conversion service used
// for PDF, Word and spreadsheet extraction and for scanned-page OCR.
type ConverterConfig struct {
	URL         string `yaml:"url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// SearchConfig controls retrieval behaviour.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// SessionConfig bounds per-session conversation history.
type SessionConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Uploads   UploadConfig    `yaml:"uploads"`
	Store     StoreConfig     `yaml:"store"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Converter ConverterConfig `yaml:"converter"`
	Search    SearchConfig    `yaml:"search"`
	Session   SessionConfig   `yaml:"session"`
	Logging   logger.Config   `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = "./data/uploads"
	}
	if cfg.Uploads.MaxFileSizeMB == 0 {
		cfg.Uploads.MaxFileSizeMB = 50
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = "./data/vector_store"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = 200
	}
	if cfg.Chunker.RowsPerChunk == 0 {
		cfg.Chunker.RowsPerChunk = 50
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "local" && cfg.Embedder.Local == nil {
		cfg.Embedder.Local = &LocalEmbedderConfig{Dimension: 256}
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.Converter.TimeoutSecs == 0 {
		cfg.Converter.TimeoutSecs = 120
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}
	if cfg.Session.MaxEntries == 0 {
		cfg.Session.MaxEntries = 20
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
