// Package favorites persists the set of artwork ids a user has saved.
package favorites

import (
	"path/filepath"
	"strings"
)

// Store is a persistent set of artwork ids. IDs returns them in the order
// they were saved.
type Store interface {
	IsSaved(id int) bool
	Save(id int) error
	Remove(id int) error
	IDs() []int
	Close() error
}

// Open picks a backend from the file extension: .db, .sqlite and .sqlite3
// open a SQLite database, anything else a JSON array file.
func Open(path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	default:
		return OpenJSON(path)
	}
}

// Toggle flips membership of id and reports whether it is saved afterwards.
func Toggle(s Store, id int) (bool, error) {
	if s.IsSaved(id) {
		if err := s.Remove(id); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.Save(id); err != nil {
		return false, err
	}
	return true, nil
}
