package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/bassista/go_fuel/internal/cache"
	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/gateway"
	"github.com/bassista/go_fuel/internal/logger"
)

// Mounter loads a kind's collection from the backend and mounts it in the view store.
type Mounter struct {
	store   cache.ViewStore
	gateway gateway.Gateway
	mu      sync.Mutex
}

func NewMounter(store cache.ViewStore, gw gateway.Gateway) *Mounter {
	return &Mounter{store: store, gateway: gw}
}

// Ensure returns the mounted collection for kind, fetching it on first use.
func (m *Mounter) Ensure(ctx context.Context, kind entity.Kind) (*cache.Collection, error) {
	if c, ok := m.store.Get(kind); ok {
		return c, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.store.Get(kind); ok {
		return c, nil
	}
	return m.mountLocked(ctx, kind)
}

// Remount refetches kind and replaces the mounted collection.
// Results of mutations still in flight against the old one are discarded.
func (m *Mounter) Remount(ctx context.Context, kind entity.Kind) (*cache.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mountLocked(ctx, kind)
}

// Unmount destroys the mounted collection of kind.
func (m *Mounter) Unmount(kind entity.Kind) bool {
	return m.store.Unmount(kind)
}

func (m *Mounter) mountLocked(ctx context.Context, kind entity.Kind) (*cache.Collection, error) {
	records, err := m.gateway.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s list: %w", kind, err)
	}
	c := m.store.Mount(kind, records)
	logger.WithEntity("mounter", string(kind), "mount").Debugf("mounted %d records", c.Len())
	return c, nil
}
