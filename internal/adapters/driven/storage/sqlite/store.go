package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/confsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
)

// Store is a SQLite-backed metadata store. It records the version and
// content hash of every synced page plus the watermark of the last
// completed run, so consecutive syncs only reprocess what changed.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.MetadataStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.confsync/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".confsync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "0001_initial_schema.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// GetPage retrieves the stored metadata for a page.
func (s *Store) GetPage(ctx context.Context, pageID string) (*domain.PageMetadata, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT page_id, space_key, title, version, content_hash, ancestor_ids,
		       parent_id, depth, last_modified, updated_at
		FROM pages WHERE page_id = ?
	`, pageID)

	var meta domain.PageMetadata
	var ancestorsJSON string
	var lastModified, updatedAt string
	if err := row.Scan(&meta.PageID, &meta.SpaceKey, &meta.Title, &meta.Version,
		&meta.ContentHash, &ancestorsJSON, &meta.ParentID, &meta.Depth,
		&lastModified, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning page: %w", err)
	}

	if err := json.Unmarshal([]byte(ancestorsJSON), &meta.AncestorIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling ancestor ids: %w", err)
	}

	var err error
	if meta.LastModified, err = parseStoredTime(lastModified); err != nil {
		return nil, fmt.Errorf("parsing last_modified: %w", err)
	}
	if meta.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &meta, nil
}

// PutPage stores or overwrites the metadata for a page.
func (s *Store) PutPage(ctx context.Context, meta domain.PageMetadata) error {
	if meta.PageID == "" {
		return domain.ErrInvalidInput
	}

	ancestorsJSON, err := json.Marshal(meta.AncestorIDs)
	if err != nil {
		return fmt.Errorf("marshalling ancestor ids: %w", err)
	}
	if meta.AncestorIDs == nil {
		ancestorsJSON = []byte("[]")
	}

	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pages (page_id, space_key, title, version, content_hash,
			ancestor_ids, parent_id, depth, last_modified, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			space_key = excluded.space_key,
			title = excluded.title,
			version = excluded.version,
			content_hash = excluded.content_hash,
			ancestor_ids = excluded.ancestor_ids,
			parent_id = excluded.parent_id,
			depth = excluded.depth,
			last_modified = excluded.last_modified,
			updated_at = excluded.updated_at
	`, meta.PageID, meta.SpaceKey, meta.Title, meta.Version, meta.ContentHash,
		string(ancestorsJSON), meta.ParentID, meta.Depth,
		formatStoredTime(meta.LastModified), formatStoredTime(meta.UpdatedAt))

	if err != nil {
		return fmt.Errorf("saving page: %w", err)
	}
	return nil
}

// Watermark returns the last completed sync timestamp, or the default
// when no sync has completed yet.
func (s *Store) Watermark(ctx context.Context) (time.Time, error) {
	row := s.db.QueryRowContext(ctx, "SELECT last_sync FROM sync_state WHERE id = 1")

	var lastSync string
	if err := row.Scan(&lastSync); err != nil {
		if err == sql.ErrNoRows {
			return domain.DefaultWatermark, nil
		}
		return time.Time{}, fmt.Errorf("scanning sync state: %w", err)
	}

	t, err := parseStoredTime(lastSync)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last_sync: %w", err)
	}
	return t, nil
}

// SetWatermark persists a new watermark.
func (s *Store) SetWatermark(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (id, last_sync)
		VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_sync = excluded.last_sync
	`, formatStoredTime(t))

	if err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}
	return nil
}

// Timestamps are stored as RFC 3339 text so the records stay readable
// with the sqlite3 shell and survive driver changes.
func formatStoredTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseStoredTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
