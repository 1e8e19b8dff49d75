package favorites

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// JSONStore keeps favorites as a JSON array of ids, the same layout the
// mobile app writes to savedArtworks.json.
type JSONStore struct {
	path string

	mu  sync.Mutex
	ids []int
}

// OpenJSON loads path, treating a missing file as an empty set.
func OpenJSON(path string) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("favorites: path is required")
	}
	ids, err := readIDs(path)
	if err != nil {
		return nil, err
	}
	return &JSONStore{path: path, ids: ids}, nil
}

// IsSaved reports whether id is in the set.
func (s *JSONStore) IsSaved(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.ids, id)
}

// Save adds id and rewrites the file. Saving an existing id is a no-op.
func (s *JSONStore) Save(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.ids, id) {
		return nil
	}
	next := append(slices.Clone(s.ids), id)
	if err := writeIDs(s.path, next); err != nil {
		return err
	}
	s.ids = next
	return nil
}

// Remove drops id and rewrites the file. Removing a missing id is a no-op.
func (s *JSONStore) Remove(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.Index(s.ids, id)
	if idx < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(s.ids), idx, idx+1)
	if err := writeIDs(s.path, next); err != nil {
		return err
	}
	s.ids = next
	return nil
}

// IDs returns the saved ids in save order.
func (s *JSONStore) IDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

// Close is a no-op; every change is written immediately.
func (s *JSONStore) Close() error { return nil }

func readIDs(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []int{}, nil
		}
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []int{}, nil
	}
	var ids []int
	if err := json.Unmarshal(trimmed, &ids); err != nil {
		return nil, fmt.Errorf("favorites: decode %s: %w", path, err)
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func writeIDs(path string, ids []int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
