// Package workspace keeps one panel per console session. Sessions are
// independent and live only in memory.
package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rmsconsole/rmsconsole/internal/panel"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned for an unknown or evicted workspace id
	ErrNotFound = errors.New("workspace not found")

	// ErrFull is returned when the registry is at capacity and every
	// workspace was used within the eviction grace period
	ErrFull = errors.New("too many active workspaces")

	// ErrCreateDenied is returned when the caller's creation guard refuses
	ErrCreateDenied = errors.New("workspace creation refused")
)

// Factory builds the panel for a new workspace
type Factory func(id string) (*panel.Panel, error)

// Workspace is one session's panel
type Workspace struct {
	ID        string
	Panel     *panel.Panel
	CreatedAt time.Time
	lastSeen  time.Time
}

// Registry maps workspace ids to panels. Beyond max entries the least
// recently used workspace is evicted, unless it was used within the
// eviction grace period.
type Registry struct {
	mu       sync.Mutex
	items    map[string]*Workspace
	max      int
	grace    time.Duration
	factory  Factory
	logger   *logrus.Logger
	onResize func(n int)
	now      func() time.Time
}

// NewRegistry creates a registry. maxSize <= 0 means unbounded.
func NewRegistry(maxSize int, factory Factory, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		items:    make(map[string]*Workspace),
		max:      maxSize,
		factory:  factory,
		logger:   logger,
		onResize: func(int) {},
		now:      time.Now,
	}
}

// SetEvictionGrace protects workspaces used within d from eviction. When
// every workspace is that recent, Create fails with ErrFull.
func (r *Registry) SetEvictionGrace(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grace = d
}

// OnResize registers a callback told the workspace count after every
// change
func (r *Registry) OnResize(fn func(n int)) {
	if fn != nil {
		r.onResize = fn
	}
}

// Get returns the workspace with the given id and marks it as used
func (r *Registry) Get(id string) (*Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	ws.lastSeen = r.now()
	return ws, nil
}

// Create builds a fresh workspace under a new id
func (r *Registry) Create() (*Workspace, error) {
	id := uuid.NewString()
	p, err := r.factory(id)
	if err != nil {
		return nil, err
	}

	now := r.now()
	ws := &Workspace{ID: id, Panel: p, CreatedAt: now, lastSeen: now}

	r.mu.Lock()
	if r.max > 0 {
		for len(r.items) >= r.max {
			if !r.evictOldestLocked() {
				r.mu.Unlock()
				r.logger.WithField("workspaces", r.max).Warn("Workspace registry full")
				return nil, ErrFull
			}
		}
	}
	r.items[id] = ws
	n := len(r.items)
	r.mu.Unlock()

	r.logger.WithField("workspace", id).Debug("Workspace created")
	r.onResize(n)
	return ws, nil
}

// Acquire returns the workspace for id, creating a new one when id is
// empty or unknown. A non-nil allowCreate is asked before creating and
// refusal yields ErrCreateDenied. created reports whether a new workspace
// was made.
func (r *Registry) Acquire(id string, allowCreate func() bool) (ws *Workspace, created bool, err error) {
	if id != "" {
		if ws, err = r.Get(id); err == nil {
			return ws, false, nil
		}
	}
	if allowCreate != nil && !allowCreate() {
		return nil, false, ErrCreateDenied
	}
	ws, err = r.Create()
	return ws, err == nil, err
}

// Remove drops a workspace
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	_, ok := r.items[id]
	delete(r.items, id)
	n := len(r.items)
	r.mu.Unlock()

	if ok {
		r.onResize(n)
	}
	return ok
}

// Len returns the number of live workspaces
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Cleanup removes workspaces idle for longer than maxIdle and returns how
// many were removed
func (r *Registry) Cleanup(maxIdle time.Duration) int {
	r.mu.Lock()
	cutoff := r.now().Add(-maxIdle)
	removed := 0
	for id, ws := range r.items {
		if ws.lastSeen.Before(cutoff) {
			delete(r.items, id)
			removed++
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	if removed > 0 {
		r.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": n,
		}).Info("Idle workspaces removed")
		r.onResize(n)
	}
	return removed
}

// Run removes idle workspaces every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Cleanup(maxIdle)
		}
	}
}

func (r *Registry) evictOldestLocked() bool {
	var oldest *Workspace
	for _, ws := range r.items {
		if oldest == nil || ws.lastSeen.Before(oldest.lastSeen) {
			oldest = ws
		}
	}
	if oldest == nil || r.now().Sub(oldest.lastSeen) < r.grace {
		return false
	}
	delete(r.items, oldest.ID)
	r.logger.WithField("workspace", oldest.ID).Info("Workspace evicted")
	return true
}
