package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// OpenDatabase opens the slot database, creating the schema on first use.
func OpenDatabase(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: database path required")
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open slot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: connect to slot database: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), `
		CREATE TABLE IF NOT EXISTS slots (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: initialize slot schema: %w", err)
	}

	return db, nil
}

// SQLiteSlot stores the document as a single row keyed by name.
type SQLiteSlot struct {
	db  *sql.DB
	key string
}

// NewSQLiteSlot creates a sqlite-backed slot for the given key.
func NewSQLiteSlot(db *sql.DB, key string) (*SQLiteSlot, error) {
	if db == nil {
		return nil, fmt.Errorf("store: database required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("store: slot key required")
	}
	return &SQLiteSlot{db: db, key: key}, nil
}

func (s *SQLiteSlot) Load(ctx context.Context) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read slot %s: %w", s.key, err)
	}
	return value, nil
}

func (s *SQLiteSlot) Save(ctx context.Context, data []byte) error {
	// The column is NOT NULL; a nil document means "cleared", stored empty.
	if data == nil {
		data = []byte{}
	}
	updatedAt := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, s.key, data, updatedAt)
	if err != nil {
		return fmt.Errorf("store: write slot %s: %w", s.key, err)
	}
	return nil
}
