package favorites

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS favorites (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	artwork_id INTEGER NOT NULL UNIQUE,
	saved_at   INTEGER NOT NULL
)`

// SQLiteStore keeps favorites in a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("favorites: path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("favorites: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("favorites: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		schema,
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("favorites: %s: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// IsSaved reports whether id is in the set. Query failures count as not saved.
func (s *SQLiteStore) IsSaved(id int) bool {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM favorites WHERE artwork_id = ?`, id).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Warn("favorites lookup failed", "component", "favorites", "id", id, "err", err)
	}
	return err == nil
}

// Save adds id. Saving an existing id keeps its original position.
func (s *SQLiteStore) Save(id int) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO favorites (artwork_id, saved_at) VALUES (?, ?)`, id, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("favorites: save %d: %w", id, err)
	}
	return nil
}

// Remove drops id.
func (s *SQLiteStore) Remove(id int) error {
	if _, err := s.db.Exec(`DELETE FROM favorites WHERE artwork_id = ?`, id); err != nil {
		return fmt.Errorf("favorites: remove %d: %w", id, err)
	}
	return nil
}

// IDs returns the saved ids in save order. Read failures are logged and
// yield an empty list.
func (s *SQLiteStore) IDs() []int {
	ids, err := s.listIDs()
	if err != nil {
		slog.Warn("favorites list failed", "component", "favorites", "err", err)
		return []int{}
	}
	return ids
}

func (s *SQLiteStore) listIDs() ([]int, error) {
	rows, err := s.db.Query(`SELECT artwork_id FROM favorites ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()
	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	return ids, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
