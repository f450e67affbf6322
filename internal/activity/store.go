// Package activity persists the session → last-active mapping shared
// by every courier invocation. The file is the only piece of state the
// short-lived hook processes and the detached delayed-dispatch runners
// have in common.
package activity

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Store reads and writes a single flat JSON file mapping session ids
// to last-active epoch seconds.
//
// Concurrent writers race; the temp-file+rename replace guarantees the
// file always parses, and a lost update merely means one stale
// timestamp (last writer wins). That is acceptable because consumers
// only ask "was there any recent activity", never for a history.
type Store struct {
	path      string
	retention time.Duration
}

// New creates a Store for the given file path. A retention greater
// than zero prunes sessions idle longer than that during writes.
func New(path string, retention time.Duration) *Store {
	return &Store{path: path, retention: retention}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Touch records that the session was active at the given time and
// writes the whole store back atomically.
func (s *Store) Touch(sessionID string, at time.Time) error {
	data := s.read()
	data[sessionID] = at.Unix()

	if s.retention > 0 {
		cutoff := at.Add(-s.retention).Unix()
		for id, ts := range data {
			if id != sessionID && ts < cutoff {
				delete(data, id)
			}
		}
	}

	return s.replace(data)
}

// LastActive returns the recorded last-active time for the session.
// A missing or unreadable store reads as "no prior activity".
func (s *Store) LastActive(sessionID string) (time.Time, bool) {
	ts, ok := s.read()[sessionID]
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(ts, 0), true
}

// read loads the whole mapping. Absent or corrupt files yield an empty
// map: corruption is treated as no prior activity and is overwritten
// on the next write.
func (s *Store) read() map[string]int64 {
	data := map[string]int64{}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Debug("activity store unreadable, treating as empty", "path", s.path, "error", err)
		}
		return data
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		slog.Warn("activity store corrupt, treating as empty", "path", s.path, "error", err)
		return map[string]int64{}
	}

	return data
}

// replace writes the mapping to a temp file in the same directory and
// renames it over the target, so no reader ever observes a partial
// write.
func (s *Store) replace(data map[string]int64) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating activity directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".activity-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if err := json.NewEncoder(tmp).Encode(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("encoding activity store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replacing activity store: %w", err)
	}

	return nil
}
