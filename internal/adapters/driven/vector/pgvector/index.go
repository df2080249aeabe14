// Package pgvector provides a PostgreSQL-backed vector index using the
// pgvector extension. Chunks and their embeddings live in one table;
// similarity queries run server-side with the cosine distance operator.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	pgv "github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultDimensions  = 768
	DefaultConnTimeout = 30 * time.Second
)

// pointNamespace is the UUIDv5 namespace for deriving stable point IDs
// from chunk IDs, so re-upserting a chunk overwrites its previous row.
var pointNamespace = uuid.MustParse("8f3c9d2a-5b41-4e76-9c08-2d1a6f4e8b30")

// Config holds configuration for the pgvector index.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string (required).
	DatabaseURL string

	// Dimensions is the embedding vector size (default: 768). The
	// column type is fixed at table creation, so it must match the
	// embedding model in use.
	Dimensions int

	// ConnTimeout bounds the initial connect and schema check.
	ConnTimeout time.Duration
}

// Index is a pgvector-backed implementation of driven.VectorIndex.
type Index struct {
	db *sql.DB
}

// NewIndex connects to PostgreSQL and ensures the chunks table exists.
func NewIndex(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("pgvector: database URL is required")
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = DefaultConnTimeout
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgvector: open db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pgvector: ping db: %w", err)
	}

	if err := ensureSchema(ctx, db, cfg.Dimensions); err != nil {
		db.Close()
		return nil, fmt.Errorf("pgvector: bootstrap: %w", err)
	}

	return &Index{db: db}, nil
}

// ensureSchema creates the extension and chunks table if missing.
func ensureSchema(ctx context.Context, db *sql.DB, dimensions int) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}

	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS chunks (
			point_id    UUID PRIMARY KEY,
			chunk_id    TEXT NOT NULL,
			doc_id      TEXT NOT NULL,
			space_key   TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			body        TEXT NOT NULL,
			metadata    JSONB NOT NULL,
			embedding   VECTOR(%d) NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, dimensions)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating chunks table: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id)"); err != nil {
		return fmt.Errorf("creating doc_id index: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS idx_chunks_space_key ON chunks(space_key)"); err != nil {
		return fmt.Errorf("creating space_key index: %w", err)
	}
	return nil
}

// Upsert stores chunks with their embeddings in a single transaction.
func (idx *Index) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return domain.ErrInvalidInput
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgvector: beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks
			(point_id, chunk_id, doc_id, space_key, chunk_index, body, metadata, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (point_id) DO UPDATE SET
			chunk_id = excluded.chunk_id,
			doc_id = excluded.doc_id,
			space_key = excluded.space_key,
			chunk_index = excluded.chunk_index,
			body = excluded.body,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("pgvector: preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("pgvector: marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			PointID(chunk.ID), chunk.ID, chunk.DocID, chunk.Metadata.SpaceKey,
			chunk.ChunkIndex, chunk.Text, string(metadataJSON),
			pgv.NewVector(vectors[i]),
		); err != nil {
			return fmt.Errorf("pgvector: upserting chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgvector: committing transaction: %w", err)
	}
	return nil
}

// Search returns the chunks most similar to the query embedding,
// ordered by descending cosine similarity.
func (idx *Index) Search(ctx context.Context, query []float32, limit int, filter *driven.VectorFilter) ([]driven.VectorHit, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidInput
	}

	// 1 - cosine distance is the similarity the caller sees.
	q := `
		SELECT chunk_id, doc_id, chunk_index, body, metadata,
		       1 - (embedding <=> $1) AS similarity
		FROM chunks
	`
	args := []any{pgv.NewVector(query)}

	var where []string
	if filter != nil && filter.SpaceKey != "" {
		args = append(args, filter.SpaceKey)
		where = append(where, fmt.Sprintf("space_key = $%d", len(args)))
	}
	if filter != nil && filter.DocID != "" {
		args = append(args, filter.DocID)
		where = append(where, fmt.Sprintf("doc_id = $%d", len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			q += " WHERE " + clause
		} else {
			q += " AND " + clause
		}
	}

	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT $%d", len(args))

	rows, err := idx.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector: querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var hit driven.VectorHit
		var metadataJSON string
		if err := rows.Scan(&hit.Chunk.ID, &hit.Chunk.DocID, &hit.Chunk.ChunkIndex,
			&hit.Chunk.Text, &metadataJSON, &hit.Similarity); err != nil {
			return nil, fmt.Errorf("pgvector: scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &hit.Chunk.Metadata); err != nil {
			return nil, fmt.Errorf("pgvector: unmarshaling chunk metadata: %w", err)
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector: iterating chunks: %w", err)
	}
	return hits, nil
}

// DeleteDoc removes all indexed chunks for a document. Stale chunks
// from an older version would otherwise keep surfacing in results.
func (idx *Index) DeleteDoc(ctx context.Context, docID string) error {
	if _, err := idx.db.ExecContext(ctx, "DELETE FROM chunks WHERE doc_id = $1", docID); err != nil {
		return fmt.Errorf("pgvector: deleting chunks for %s: %w", docID, err)
	}
	return nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// PointID derives the stable UUID row key for a chunk ID.
func PointID(chunkID string) uuid.UUID {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID))
}
