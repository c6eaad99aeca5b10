// Package draftstore persists the working carousel draft in SQLite.
package draftstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// draftKey is the row holding the single working draft
const draftKey = "current"

const schema = `CREATE TABLE IF NOT EXISTS drafts (
	key      TEXT PRIMARY KEY,
	payload  TEXT NOT NULL,
	saved_at TIMESTAMP NOT NULL
)`

// SQLiteStore implements ports.DraftStore
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens (creating if needed) the draft database at path. ":memory:"
// gives a throwaway store.
func Open(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating draft directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening draft database: %w", err)
	}
	// one connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Debug("SQLite pragma not applied", zap.String("pragma", stmt), zap.Error(err))
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating draft schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, logger: logger.Named("draftstore")}, nil
}

// Save replaces the stored draft
func (s *SQLiteStore) Save(ctx context.Context, draft entities.Draft) error {
	if draft.SavedAt.IsZero() {
		draft.SavedAt = time.Now()
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drafts (key, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		draftKey, string(payload), draft.SavedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}

	s.logger.Debug("Draft saved", zap.Int("slides", len(draft.Slides)), zap.Int("bytes", len(payload)))
	return nil
}

// Load returns the stored draft, or nil when none was saved
func (s *SQLiteStore) Load(ctx context.Context) (*entities.Draft, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM drafts WHERE key = ?`, draftKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}

	var draft entities.Draft
	if err := json.Unmarshal([]byte(payload), &draft); err != nil {
		return nil, fmt.Errorf("decoding draft: %w", err)
	}
	return &draft, nil
}

// Clear removes the stored draft
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, draftKey); err != nil {
		return fmt.Errorf("clearing draft: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ports.DraftStore = (*SQLiteStore)(nil)
