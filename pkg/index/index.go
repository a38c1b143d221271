// Package index remembers which calendar event mirrors which task.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const indexFile = "events.json"

// EventIndex maps task IDs to calendar event IDs and is persisted as JSON.
type EventIndex struct {
	path     string
	mu       sync.RWMutex
	mappings map[string]string
	dirty    bool
}

// DefaultPath places the index next to the config file.
func DefaultPath(configDir string) string {
	return filepath.Join(configDir, indexFile)
}

// Open loads the index at path, starting empty if the file is absent.
func Open(path string) (*EventIndex, error) {
	idx := &EventIndex{
		path:     path,
		mappings: make(map[string]string),
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&idx.mappings); err != nil {
		return nil, fmt.Errorf("failed to decode event index %s: %w", path, err)
	}
	return idx, nil
}

// Save writes the index if it changed since the last save.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(idx.path), 0700); err != nil {
		return err
	}
	f, err := os.Create(idx.path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(idx.mappings); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *EventIndex) Get(taskID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.mappings[taskID]
}

func (idx *EventIndex) Set(taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.mappings[taskID] != eventID {
		idx.mappings[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.mappings[taskID]; exists {
		delete(idx.mappings, taskID)
		idx.dirty = true
	}
}

// TaskIDs returns every mapped task ID, sorted.
func (idx *EventIndex) TaskIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.mappings))
	for id := range idx.mappings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
