// Package pointlog records reconstructed world points so a session's scan
// can be reviewed or exported after the anchors themselves are gone.
package pointlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
)

// DefaultMaxEntries bounds the in-memory log.
const DefaultMaxEntries = 10000

// Entry is one reconstructed point.
type Entry struct {
	ID      string    `json:"id"`
	ScreenX float64   `json:"screen_x"`
	ScreenY float64   `json:"screen_y"`
	World   r3.Vector `json:"world"`
	Raw     uint16    `json:"raw_depth"`
	Anchor  string    `json:"anchor,omitempty"`
	Source  string    `json:"source"`
	Time    time.Time `json:"time"`
}

// Store defines the point log operations.
type Store interface {
	// Record appends an entry, assigning an ID and time if unset
	Record(e Entry) Entry

	// List returns all entries, oldest first
	List() []Entry

	// Count returns the number of entries
	Count() int

	// Clear removes every entry
	Clear()

	// Flush persists pending entries
	Flush() error
}

// JSONStore implements Store with a JSON file. Record only touches memory;
// the file is rewritten on Flush so the render loop never waits on disk.
type JSONStore struct {
	path    string
	max     int
	entries []Entry
	dirty   bool
	mu      sync.RWMutex
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int     `json:"version"`
	UpdatedAt string  `json:"updated_at"`
	Points    []Entry `json:"points"`
}

const currentVersion = 1

// NewJSONStore opens the log at path, loading existing entries.
// If the file doesn't exist, it will be created on first flush.
func NewJSONStore(path string, maxEntries int) (*JSONStore, error) {
	if maxEntries < 1 {
		maxEntries = DefaultMaxEntries
	}
	s := &JSONStore{path: path, max: maxEntries}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("pointlog: create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("pointlog: load: %w", err)
		}
	}
	return s, nil
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	if stored.Version > currentVersion {
		return fmt.Errorf("unsupported version %d", stored.Version)
	}

	s.entries = stored.Points
	s.trim()
	return nil
}

// Record appends e.
func (s *JSONStore) Record(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	s.trim()
	s.dirty = true
	return e
}

// trim drops the oldest entries beyond the limit.
func (s *JSONStore) trim() {
	if over := len(s.entries) - s.max; over > 0 {
		s.entries = append(s.entries[:0], s.entries[over:]...)
	}
}

// List returns a copy of all entries, oldest first.
func (s *JSONStore) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Count returns the number of entries.
func (s *JSONStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes every entry. The file is emptied on the next Flush.
func (s *JSONStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.dirty = true
}

// Flush writes the log to disk if it changed since the last flush.
func (s *JSONStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	points := s.entries
	if points == nil {
		points = []Entry{}
	}
	data, err := json.MarshalIndent(storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Points:    points,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("pointlog: marshal: %w", err)
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("pointlog: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("pointlog: rename temp file: %w", err)
	}

	s.dirty = false
	return nil
}

// Path returns the file path of the store.
func (s *JSONStore) Path() string {
	return s.path
}

// Ensure JSONStore implements Store
var _ Store = (*JSONStore)(nil)
