package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid config")

// ChunkerConfig configures how documents are split into token windows.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// ModelConfig configures the TF-IDF vocabulary.
type ModelConfig struct {
	MaxFeatures int `yaml:"max_features"`
}

// StoreConfig selects where index snapshots are persisted.
type StoreConfig struct {
	Type string `yaml:"type"` // "file" or "bolt"
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Model      ModelConfig      `yaml:"model"`
	Store      StoreConfig      `yaml:"store"`
	Search     SearchConfig     `yaml:"search"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/rag/config.yaml.
// If neither exists, it writes defaults to ~/.config/rag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
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

// Validate checks the settings the index and the application depend on.
func (c *AppConfig) Validate() error {
	if c.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunker.chunk_size must be positive", ErrInvalid)
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("%w: chunker.overlap must be in [0, chunk_size)", ErrInvalid)
	}
	if c.Model.MaxFeatures <= 0 {
		return fmt.Errorf("%w: model.max_features must be positive", ErrInvalid)
	}
	switch c.Store.Type {
	case "file", "bolt":
	default:
		return fmt.Errorf("%w: unknown store type %q", ErrInvalid, c.Store.Type)
	}
	switch c.Summarizer.Type {
	case "frequency":
	default:
		return fmt.Errorf("%w: unknown summarizer %q", ErrInvalid, c.Summarizer.Type)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rag", "config.yaml"), nil
}

func defaultStorePath(storeType string) string {
	base := filepath.Join(".", ".rag")
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".local", "share", "rag")
	}
	if storeType == "bolt" {
		return filepath.Join(base, "rag.db")
	}
	return base
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Chunker:    ChunkerConfig{ChunkSize: 50, Overlap: 10},
		Model:      ModelConfig{MaxFeatures: 200},
		Store:      StoreConfig{Type: "file", Path: defaultStorePath("file"), Name: "default"},
		Search:     SearchConfig{TopK: 3},
		Summarizer: SummarizerConfig{Type: "frequency", MaxSentences: 5},
		Log:        LogConfig{Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = def.Chunker.ChunkSize
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = def.Chunker.Overlap
		}
	}
	if cfg.Model.MaxFeatures == 0 {
		cfg.Model.MaxFeatures = def.Model.MaxFeatures
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = def.Store.Type
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath(cfg.Store.Type)
	}
	if cfg.Store.Name == "" {
		cfg.Store.Name = def.Store.Name
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = def.Search.TopK
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = def.Summarizer.Type
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = def.Summarizer.MaxSentences
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

func applyEnv(cfg *AppConfig) {
	cfg.Chunker.ChunkSize = GetIntEnv("RAG_CHUNK_SIZE", cfg.Chunker.ChunkSize)
	cfg.Chunker.Overlap = GetIntEnv("RAG_OVERLAP", cfg.Chunker.Overlap)
	cfg.Model.MaxFeatures = GetIntEnv("RAG_MAX_FEATURES", cfg.Model.MaxFeatures)
	cfg.Search.TopK = GetIntEnv("RAG_TOP_K", cfg.Search.TopK)
	if storeType := GetStringEnv("RAG_STORE_TYPE", cfg.Store.Type); storeType != cfg.Store.Type {
		if cfg.Store.Path == defaultStorePath(cfg.Store.Type) {
			cfg.Store.Path = defaultStorePath(storeType)
		}
		cfg.Store.Type = storeType
	}
	cfg.Store.Path = GetStringEnv("RAG_STORE_PATH", cfg.Store.Path)
	cfg.Store.Name = GetStringEnv("RAG_STORE_NAME", cfg.Store.Name)
	cfg.Log.Level = GetStringEnv("RAG_LOG_LEVEL", cfg.Log.Level)
}

// GetStringEnv returns the environment variable key, or defaultValue when unset.
func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv returns key parsed as an int, or defaultValue when unset or malformed.
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
