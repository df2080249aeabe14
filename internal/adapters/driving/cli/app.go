package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/confsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/confsync/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/confsync/internal/adapters/driven/embedding/openai"
	storagemem "github.com/custodia-labs/confsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/confsync/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/custodia-labs/confsync/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/confsync/internal/adapters/driven/vector/pgvector"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
)

// loadConfig reads the TOML config with environment overrides applied.
func loadConfig() (file.Config, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return file.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return store.Config(), nil
}

// newMetadataStore builds the configured metadata store. The returned
// close func is safe to call even for stores without resources.
func newMetadataStore(cfg file.Config) (driven.MetadataStore, func() error, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "", "sqlite":
		store, err := sqlite.NewStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening metadata store: %w", err)
		}
		return store, store.Close, nil
	case "memory":
		store := storagemem.NewMetadataStore()
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newEmbedder builds the configured embedding service. Provider "none"
// returns nil, which runs the sync without embedding or indexing.
func newEmbedder(cfg file.Config) (driven.EmbeddingService, error) {
	switch strings.ToLower(cfg.Embedding.Provider) {
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// newVectorIndex builds the configured vector index. Returns nil when
// no embedder is configured, since vectors would never be produced.
func newVectorIndex(ctx context.Context, cfg file.Config, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	if embedder == nil {
		return nil, nil
	}

	switch strings.ToLower(cfg.Vector.Backend) {
	case "", "memory":
		return vectormem.NewIndex(), nil
	case "pgvector":
		return pgvector.NewIndex(ctx, pgvector.Config{
			DatabaseURL: cfg.Vector.DatabaseURL,
			Dimensions:  embedder.Dimensions(),
		})
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}
