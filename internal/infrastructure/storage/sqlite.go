package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

var migrations = []string{
	`PRAGMA journal_mode=WAL`,
	`PRAGMA synchronous=NORMAL`,
	`PRAGMA busy_timeout=5000`,
	`CREATE TABLE IF NOT EXISTS layout_records (
		user_id    TEXT PRIMARY KEY,
		device_id  TEXT NOT NULL DEFAULT '',
		version    INTEGER NOT NULL DEFAULT 0,
		hash       TEXT NOT NULL DEFAULT '',
		card_count INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL,
		payload    BLOB NOT NULL
	)`,
}

// SQLiteStore keeps compressed records in a local SQLite database
type SQLiteStore struct {
	db    *sql.DB
	codec *Codec
}

// NewSQLiteStore opens (and migrates) the database at path
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("layout store migration failed: %w", err)
		}
	}

	codec, err := NewCodec()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, codec: codec}, nil
}

// Name implements RecordStore
func (s *SQLiteStore) Name() string { return "sqlite" }

// Load implements RecordStore
func (s *SQLiteStore) Load(ctx context.Context, userID string) (*types.LayoutRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM layout_records WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record for %s: %w", userID, err)
	}
	return s.codec.Decode(payload)
}

// Save implements RecordStore
func (s *SQLiteStore) Save(ctx context.Context, rec *types.LayoutRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	payload, err := s.codec.Encode(rec)
	if err != nil {
		return err
	}

	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO layout_records (user_id, device_id, version, hash, card_count, updated_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			device_id = excluded.device_id,
			version = excluded.version,
			hash = excluded.hash,
			card_count = excluded.card_count,
			updated_at = excluded.updated_at,
			payload = excluded.payload`,
		rec.UserID, rec.DeviceID, int64(rec.Version), rec.Hash, len(rec.Cards), updated.UnixMilli(), payload)
	if err != nil {
		return fmt.Errorf("failed to save record for %s: %w", rec.UserID, err)
	}
	return nil
}

// List returns metadata for every stored record, most recent first
func (s *SQLiteStore) List(ctx context.Context) ([]types.RecordMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, device_id, version, hash, card_count, updated_at
		FROM layout_records ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var out []types.RecordMetadata
	for rows.Next() {
		var (
			m       types.RecordMetadata
			version int64
			updated int64
		)
		if err := rows.Scan(&m.UserID, &m.DeviceID, &version, &m.Hash, &m.CardCount, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		m.Version = uint64(version)
		m.UpdatedAt = time.UnixMilli(updated)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	s.codec.Close()
	return s.db.Close()
}
