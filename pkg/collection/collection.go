package collection

import (
	"sync"

	"github.com/harrisonrobin/taskpilot/pkg/model"
)

// Collection is the ordered set of task records of one session, plus the
// sequence counter used to name new records.
type Collection struct {
	mu       sync.RWMutex
	records  []model.Record
	sequence int
}

func New() *Collection {
	return &Collection{records: []model.Record{}, sequence: 1}
}

// Add appends a record and advances the sequence by one, whatever the
// record's own id looks like.
func (c *Collection) Add(rec model.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	c.sequence++
}

// AddFromForm creates a record from interactive input using the current
// sequence and adds it. Nothing changes when the input is rejected.
func (c *Collection) AddFromForm(fields model.FormFields) (model.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, err := model.CreateFromForm(fields, c.sequence)
	if err != nil {
		return model.Record{}, err
	}
	c.records = append(c.records, rec)
	c.sequence++
	return rec, nil
}

// Append normalizes external records and adds them. Records without an id
// are named from the sequence, so they never reuse an id handed out before.
func (c *Collection) Append(raws []map[string]any) []model.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	added := make([]model.Record, 0, len(raws))
	for _, raw := range raws {
		rec := model.NormalizeFromExternal(raw, c.sequence)
		c.records = append(c.records, rec)
		c.sequence++
		added = append(added, rec)
	}
	return added
}

// ReplaceAll swaps in a new record list and resets the sequence past it.
func (c *Collection) ReplaceAll(records []model.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append([]model.Record{}, records...)
	c.sequence = len(c.records) + 1
}

// LoadJSON replaces the collection with the records of a bulk document.
// The collection is untouched when the document is rejected.
func (c *Collection) LoadJSON(data []byte) (int, error) {
	records, err := model.ParseBulk(data)
	if err != nil {
		return 0, err
	}
	c.ReplaceAll(records)
	return len(records), nil
}

// Remove drops every record whose id equals id and returns how many went.
func (c *Collection) Remove(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := make([]model.Record, 0, len(c.records))
	for _, rec := range c.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	removed := len(c.records) - len(kept)
	c.records = kept
	return removed
}

// Clear empties the collection and restarts the sequence at 1.
func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = []model.Record{}
	c.sequence = 1
}

// Records returns a copy of the records in insertion order.
func (c *Collection) Records() []model.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Record{}, c.records...)
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *Collection) Sequence() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sequence
}
