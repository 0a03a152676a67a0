package cache

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/containerd/errdefs"

	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/logger"
)

var (
	// ErrCollectionDestroyed is returned by Apply once the owning view is gone.
	ErrCollectionDestroyed = fmt.Errorf("collection destroyed: %w", errdefs.ErrNotFound)
	// ErrNotMounted means no view for the kind is mounted.
	ErrNotMounted = fmt.Errorf("collection not mounted: %w", errdefs.ErrNotFound)
)

// Collection is the backing store of one mounted list view.
// Its lifetime ends with destroy; late updates after that are refused.
type Collection struct {
	kind      entity.Kind
	mountedAt time.Time

	mu        sync.RWMutex
	records   entity.Collection
	destroyed bool
}

func newCollection(kind entity.Kind, records entity.Collection) *Collection {
	return &Collection{kind: kind, records: records.Clone(), mountedAt: time.Now()}
}

func (c *Collection) Kind() entity.Kind { return c.kind }

func (c *Collection) MountedAt() time.Time { return c.mountedAt }

// Snapshot returns a deep copy of the records.
func (c *Collection) Snapshot() entity.Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records.Clone()
}

// Len returns the number of records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Apply runs op against the current records under the write lock.
func (c *Collection) Apply(op Op) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrCollectionDestroyed
	}
	c.records = op(c.records)
	return nil
}

// Alive reports whether the owning view is still mounted.
func (c *Collection) Alive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.destroyed
}

func (c *Collection) destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
	c.records = nil
}

// Store keeps the mounted collection of every open list view, one per kind.
type Store struct {
	mu    sync.RWMutex
	views map[entity.Kind]*Collection
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{views: map[entity.Kind]*Collection{}}
}

// Mount creates a fresh collection for kind from the server-provided records.
// A previous mount of the same kind is destroyed.
func (s *Store) Mount(kind entity.Kind, records entity.Collection) *Collection {
	c := newCollection(kind, records)

	s.mu.Lock()
	prev := s.views[kind]
	s.views[kind] = c
	s.mu.Unlock()

	if prev != nil {
		prev.destroy()
		logger.WithComponent("cache").Debugf("remounted %s view, previous collection destroyed", kind)
	}
	logger.WithComponent("cache").Debugf("mounted %s view with %d records", kind, len(records))
	return c
}

// Get returns the live collection for kind.
func (s *Store) Get(kind entity.Kind) (*Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.views[kind]
	return c, ok
}

// Unmount destroys the collection for kind. It returns false if none was mounted.
func (s *Store) Unmount(kind entity.Kind) bool {
	s.mu.Lock()
	c, ok := s.views[kind]
	delete(s.views, kind)
	s.mu.Unlock()

	if !ok {
		return false
	}
	c.destroy()
	logger.WithComponent("cache").Debugf("unmounted %s view", kind)
	return true
}

// Mounted lists the kinds with a live collection, sorted.
func (s *Store) Mounted() []entity.Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := make([]entity.Kind, 0, len(s.views))
	for k := range s.views {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Close destroys every mounted collection.
func (s *Store) Close() {
	s.mu.Lock()
	views := s.views
	s.views = map[entity.Kind]*Collection{}
	s.mu.Unlock()

	for _, c := range views {
		c.destroy()
	}
}
