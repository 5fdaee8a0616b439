package reason

import (
	"fmt"
	"sync"
)

// Catalog is the ordered list of configured reasons. Insertion order is
// display order.
type Catalog struct {
	mu      sync.RWMutex
	reasons []Reason
	seed    []Reason
	ids     IDGenerator
}

// NewCatalog creates a catalog holding a copy of seed
func NewCatalog(seed []Reason, ids IDGenerator) *Catalog {
	if ids == nil {
		ids = NewTimestampIDs()
	}
	c := &Catalog{
		seed: append([]Reason(nil), seed...),
		ids:  ids,
	}
	c.reasons = append([]Reason(nil), seed...)
	return c
}

// List returns a copy of every reason in display order
func (c *Catalog) List() []Reason {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Reason{}, c.reasons...)
}

// Len returns the number of reasons
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.reasons)
}

// Get returns the reason with the given id
func (c *Catalog) Get(id string) (Reason, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.reasons[i], nil
	}
	return Reason{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Create validates f and appends a new reason
func (c *Catalog) Create(f Form) (Reason, error) {
	if err := f.Validate(); err != nil {
		return Reason{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	r := f.apply(Reason{ID: c.ids.NewID()})
	c.reasons = append(c.reasons, r)
	return r, nil
}

// Update validates f and overwrites every field of the reason except its id
func (c *Catalog) Update(id string, f Form) (Reason, error) {
	if err := f.Validate(); err != nil {
		return Reason{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return Reason{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.reasons[i] = f.apply(c.reasons[i])
	return c.reasons[i], nil
}

// Duplicate appends a copy of a reason under a new id, with " (Copy)"
// appended to its name
func (c *Catalog) Duplicate(id string) (Reason, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return Reason{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	dup := c.reasons[i]
	dup.ID = c.ids.NewID()
	dup.Name = dup.Name + " (Copy)"
	c.reasons = append(c.reasons, dup)
	return dup, nil
}

// Delete removes the reason with the given id. Deleting an unknown id
// leaves the list unchanged and reports false.
func (c *Catalog) Delete(id string) (Reason, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return Reason{}, false
	}
	removed := c.reasons[i]
	c.reasons = append(c.reasons[:i:i], c.reasons[i+1:]...)
	return removed, true
}

// Reset restores the seed the catalog was created with
func (c *Catalog) Reset() {
	c.mu.Lock()
	c.reasons = append([]Reason(nil), c.seed...)
	c.mu.Unlock()
}

func (c *Catalog) indexOf(id string) int {
	for i, r := range c.reasons {
		if r.ID == id {
			return i
		}
	}
	return -1
}
