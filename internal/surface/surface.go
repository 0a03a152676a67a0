package surface

import (
	"context"

	"github.com/bassista/go_fuel/internal/cache"
	"github.com/bassista/go_fuel/internal/crud"
	"github.com/bassista/go_fuel/internal/entity"
)

// Mutator is the part of crud.Controller the surfaces drive.
type Mutator interface {
	Save(ctx context.Context, origin *crud.Origin, req crud.Request) crud.Outcome
	Delete(ctx context.Context, origin *crud.Origin, req crud.Request) crud.Outcome
}

// Targets resolves the collection a mutation reconciles into.
type Targets interface {
	Get(kind entity.Kind) (*cache.Collection, bool)
}

// backing returns the currently mounted collection, or a nil interface.
func backing(targets Targets, kind entity.Kind) cache.Backing {
	if targets == nil {
		return nil
	}
	c, ok := targets.Get(kind)
	if !ok {
		return nil
	}
	return c
}
