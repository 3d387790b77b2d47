// Package store holds the catalog of exported sink records and its optional
// file persistence.
package store

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
)

var (
	ErrDuplicateName = errors.New("sink name already exists")
	ErrNotFound      = errors.New("sink not found")
)

// Entry is a catalogued record plus bookkeeping.
type Entry struct {
	ID        string          `json:"id"`
	Revision  int             `json:"revision"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Record    sinkconf.Record `json:"record"`
}

// Catalog is the name-unique, insertion-ordered owner of exported records.
// It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]Entry

	now   func() time.Time
	newID func() string
}

type Option func(*Catalog)

// WithClock overrides the UpdatedAt source.
func WithClock(now func() time.Time) Option { return func(c *Catalog) { c.now = now } }

func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		entries: map[string]Entry{},
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Put stores rec under rec.Name. With replace=false an existing name is
// rejected with ErrDuplicateName; with replace=true the entry keeps its ID and
// gets the next revision. created reports whether the name was new.
func (c *Catalog) Put(rec sinkconf.Record, replace bool) (e Entry, created bool, err error) {
	if strings.TrimSpace(rec.Name) == "" {
		return Entry{}, false, fmt.Errorf("%w: record name must not be empty", sinkconf.ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, exists := c.entries[rec.Name]
	if exists && !replace {
		return Entry{}, false, fmt.Errorf("%w: %q", ErrDuplicateName, rec.Name)
	}
	e = Entry{Record: rec, UpdatedAt: c.now().UTC()}
	if exists {
		e.ID, e.Revision = prev.ID, prev.Revision+1
	} else {
		e.ID, e.Revision = c.newID(), 1
		c.order = append(c.order, rec.Name)
	}
	c.entries[rec.Name] = e
	return e, !exists, nil
}

// Restore appends a previously persisted entry unchanged.
func (c *Catalog) Restore(e Entry) error {
	return c.RestoreAt(-1, e)
}

// RestoreAt inserts e at position i of the listing order, e.g. to undo a
// Delete. An out of range i appends.
func (c *Catalog) RestoreAt(i int, e Entry) error {
	name := e.Record.Name
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: record name must not be empty", sinkconf.ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if e.ID == "" {
		e.ID = c.newID()
	}
	if e.Revision < 1 {
		e.Revision = 1
	}
	c.entries[name] = e
	if i < 0 || i > len(c.order) {
		i = len(c.order)
	}
	c.order = slices.Insert(c.order, i, name)
	return nil
}

// Reset overwrites an existing entry in place, e.g. to undo a replace.
func (c *Catalog) Reset(e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[e.Record.Name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, e.Record.Name)
	}
	c.entries[e.Record.Name] = e
	return nil
}

func (c *Catalog) Get(name string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return e, nil
}

// Delete removes name and returns the removed entry and its former position.
func (c *Catalog) Delete(name string) (Entry, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	if !ok {
		return Entry{}, -1, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(c.entries, name)
	i := slices.Index(c.order, name)
	if i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
	return e, i, nil
}

// All yields a snapshot of the entries in insertion order.
func (c *Catalog) All() iter.Seq[Entry] {
	c.mu.RLock()
	snap := make([]Entry, 0, len(c.order))
	for _, n := range c.order {
		snap = append(snap, c.entries[n])
	}
	c.mu.RUnlock()
	return slices.Values(snap)
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
