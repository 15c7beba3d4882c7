// Package inmemory provides a journal.Driver backed by a slice.
package inmemory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/papercomputeco/playground/pkg/journal"
)

// Driver implements journal.Driver in memory.
type Driver struct {
	// mu guards entries
	mu sync.RWMutex

	// entries are kept in append order
	entries []*journal.Entry
}

// NewDriver creates an empty in-memory journal.
func NewDriver() *Driver {
	return &Driver{}
}

// Append stores a copy of e.
func (d *Driver) Append(_ context.Context, e *journal.Entry) error {
	if e == nil {
		return errors.New("cannot append nil entry")
	}

	journal.Prepare(e, time.Now())

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := *e
	d.entries = append(d.entries, &stored)
	return nil
}

// List returns matching entries newest first.
func (d *Driver) List(_ context.Context, f journal.Filter) ([]*journal.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*journal.Entry, 0, len(d.entries))
	for i := len(d.entries) - 1; i >= 0; i-- {
		e := d.entries[i]
		if f.ChatID != "" && e.ChatID != f.ChatID {
			continue
		}

		cp := *e
		out = append(out, &cp)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Get returns an entry by ID.
func (d *Driver) Get(_ context.Context, id string) (*journal.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, e := range d.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, journal.NotFoundError{ID: id}
}

// Clear removes entries for chatID, or everything when chatID is empty.
func (d *Driver) Clear(_ context.Context, chatID string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if chatID == "" {
		n := len(d.entries)
		d.entries = nil
		return n, nil
	}

	kept := d.entries[:0]
	removed := 0
	for _, e := range d.entries {
		if e.ChatID == chatID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	d.entries = kept
	return removed, nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
