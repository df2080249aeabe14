// Package file provides the TOML configuration store. Settings live in
// a single config.toml under the confsync home directory; secrets are
// overridden from the environment so they never have to be written to
// disk.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full on-disk configuration.
type Config struct {
	Confluence ConfluenceConfig `toml:"confluence"`
	Storage    StorageConfig    `toml:"storage"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Vector     VectorConfig     `toml:"vector"`
	Chunking   ChunkingConfig   `toml:"chunking"`
}

// ConfluenceConfig holds the remote source connection settings.
type ConfluenceConfig struct {
	// BaseURL is the site root, e.g. https://example.atlassian.net/wiki.
	BaseURL string `toml:"base_url"`

	// Username enables basic auth together with the API token. Leave
	// empty to send the token as a bearer credential instead.
	Username string `toml:"username"`

	// APIToken is normally supplied via CONFLUENCE_API_TOKEN.
	APIToken string `toml:"api_token,omitempty"`

	// PageLimit is the page size for search requests.
	PageLimit int `toml:"page_limit,omitempty"`

	// MaxRetries bounds retry attempts for transient failures.
	MaxRetries int `toml:"max_retries,omitempty"`
}

// StorageConfig holds the metadata store settings.
type StorageConfig struct {
	// Backend selects the metadata store: "sqlite" (default) or "memory".
	Backend string `toml:"backend,omitempty"`

	// DataDir overrides the default ~/.confsync/data directory.
	DataDir string `toml:"data_dir,omitempty"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding service: "ollama" (default),
	// "openai", or "none" to sync without indexing.
	Provider string `toml:"provider,omitempty"`

	// Model overrides the provider's default embedding model.
	Model string `toml:"model,omitempty"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url,omitempty"`

	// APIKey is normally supplied via OPENAI_API_KEY.
	APIKey string `toml:"api_key,omitempty"`

	// Dimensions overrides the model's embedding size.
	Dimensions int `toml:"dimensions,omitempty"`
}

// VectorConfig holds the vector index settings.
type VectorConfig struct {
	// Backend selects the index: "memory" (default) or "pgvector".
	Backend string `toml:"backend,omitempty"`

	// DatabaseURL is the PostgreSQL connection string for pgvector,
	// normally supplied via DATABASE_URL.
	DatabaseURL string `toml:"database_url,omitempty"`
}

// ChunkingConfig holds the chunker settings.
type ChunkingConfig struct {
	// MaxTokens is the per-chunk token budget.
	MaxTokens int `toml:"max_tokens,omitempty"`
}

// ConfigStore loads and persists the TOML configuration file.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	cfg      Config
}

// NewConfigStore creates a config store rooted at configDir.
// If configDir is empty, defaults to ~/.confsync/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".confsync")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Config returns a copy of the current configuration with environment
// overrides applied.
func (s *ConfigStore) Config() Config {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	if v := os.Getenv("CONFLUENCE_BASE_URL"); v != "" {
		cfg.Confluence.BaseURL = v
	}
	if v := os.Getenv("CONFLUENCE_USERNAME"); v != "" {
		cfg.Confluence.Username = v
	}
	if v := os.Getenv("CONFLUENCE_API_TOKEN"); v != "" {
		cfg.Confluence.APIToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Vector.DatabaseURL = v
	}
	return cfg
}

// Update replaces the stored configuration and persists it.
func (s *ConfigStore) Update(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return s.save()
}

// Load reads the configuration from disk. A missing file is not an
// error; the store starts with zero values.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.cfg = Config{}
			return nil
		}
		return err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}
	s.cfg = cfg
	return nil
}

// save writes the configuration to disk (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.cfg)
	if err != nil {
		return err
	}

	// Restricted permissions: the file may carry credentials.
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
