package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/harrisonrobin/taskpilot/pkg/auth"
)

// FileName is the index file inside the config directory.
const FileName = "events.json"

// EventIndex maps record ids to the calendar events created for them.
type EventIndex struct {
	Mappings map[string]string `json:"mappings"`
	Path     string            `json:"-"`
	mu       sync.RWMutex
	dirty    bool
}

func NewEventIndex() (*EventIndex, error) {
	dir, err := auth.GetXdgHome()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(dir, FileName))
}

// Open loads the index at path, starting empty when the file does not exist.
func Open(path string) (*EventIndex, error) {
	idx := &EventIndex{
		Mappings: make(map[string]string),
		Path:     path,
	}

	if _, err := os.Stat(path); err == nil {
		if err := idx.Load(); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

func (idx *EventIndex) Load() error {
	f, err := os.Open(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	mappings := make(map[string]string)
	if err := json.NewDecoder(f).Decode(&mappings); err != nil {
		return err
	}
	idx.Mappings = mappings
	idx.dirty = false
	return nil
}

// Save writes the index when it changed since the last load or save.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(idx.Path), 0o700); err != nil {
		return err
	}

	f, err := os.Create(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(idx.Mappings); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *EventIndex) Get(recordID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[recordID]
}

func (idx *EventIndex) Set(recordID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[recordID] != eventID {
		idx.Mappings[recordID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(recordID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[recordID]; exists {
		delete(idx.Mappings, recordID)
		idx.dirty = true
	}
}
