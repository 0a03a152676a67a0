package cache

import "github.com/bassista/go_fuel/internal/entity"

// Op is a pure collection update, one of entity.Insert/Patch/Remove bound to its arguments.
type Op func(entity.Collection) entity.Collection

// ReadOnlyBacking is the minimal API for list rendering.
type ReadOnlyBacking interface {
	Kind() entity.Kind
	Snapshot() entity.Collection
}

// Backing is what the CRUD controller needs from a mounted collection.
type Backing interface {
	ReadOnlyBacking
	Apply(op Op) error
	Alive() bool
}

// ViewStore is the store contract the application container exposes.
type ViewStore interface {
	Mount(kind entity.Kind, records entity.Collection) *Collection
	Get(kind entity.Kind) (*Collection, bool)
	Unmount(kind entity.Kind) bool
	Mounted() []entity.Kind
	Close()
}
