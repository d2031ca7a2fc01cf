package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	ioutils "github.com/handiism/spotidown/internal/io"
)

// DefaultLimit is the number of entries kept when Open is given zero.
const DefaultLimit = 50

// Entry is one recorded download.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Artist    string    `json:"artist"`
	Cover     string    `json:"cover,omitempty"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is a file-backed history log. It is safe for concurrent use.
type Store struct {
	path  string
	limit int

	mu      sync.RWMutex
	entries []Entry
}

// Open loads the history at path. A missing file is an empty history.
func Open(path string, limit int) (*Store, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &Store{path: path, limit: limit}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.entries); err != nil {
			return nil, fmt.Errorf("parse history %s: %w", path, err)
		}
	}
	if len(s.entries) > limit {
		s.entries = s.entries[:limit]
	}
	return s, nil
}

// Record puts e at the front, dropping any older entry with the same ID
// and anything beyond the limit, then persists the log.
func (s *Store) Record(e Entry) error {
	if e.ID == "" {
		e.ID = e.URL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.entries)+1)
	entries = append(entries, e)
	for _, old := range s.entries {
		if old.ID != e.ID {
			entries = append(entries, old)
		}
	}
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}

	if err := s.save(entries); err != nil {
		return err
	}
	s.entries = entries
	return nil
}

// List returns the entries, most recent first.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes every entry and the backing file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// save must be called with mu held.
func (s *Store) save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := ioutils.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
