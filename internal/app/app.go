package app

import (
	"context"
	"errors"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bassista/go_fuel/internal/backend"
	"github.com/bassista/go_fuel/internal/cache"
	"github.com/bassista/go_fuel/internal/config"
	"github.com/bassista/go_fuel/internal/crud"
	"github.com/bassista/go_fuel/internal/feedback"
	"github.com/bassista/go_fuel/internal/gateway"
	"github.com/bassista/go_fuel/internal/logger"
	"github.com/bassista/go_fuel/internal/surface"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config    *config.Config
	Gateway   gateway.Gateway
	// Endpoints is the table the gateway was built with.
	Endpoints gateway.Endpoints
	// Memory is the in-process backend, nil when talking to a remote one.
	Memory    *backend.Memory
	Metrics   *prometheus.Registry

	Store      *cache.Store
	Bus        *feedback.Bus
	Toasts     *feedback.Toasts
	Controller *crud.Controller
	Surfaces   *surface.Registry

	BaseCtx context.Context
	Cancel  context.CancelFunc

	persistDone <-chan struct{}
}

// New wires the console around gw. mem, reg and reporter may be nil.
func New(cfg *config.Config, gw gateway.Gateway, mem *backend.Memory, reg *prometheus.Registry, reporter crud.Reporter) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if gw == nil {
		return nil, errors.New("gateway is nil")
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	endpoints, err := gateway.EndpointsFromConfig(cfg.Backend.Endpoints)
	if err != nil {
		return nil, err
	}

	store := cache.NewStore()
	bus := feedback.NewBus(64)
	ctrl := crud.NewController(gw, bus, reporter)

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:     cfg,
		Gateway:    gw,
		Endpoints:  endpoints,
		Memory:     mem,
		Metrics:    reg,
		Store:      store,
		Bus:        bus,
		Toasts:     feedback.NewToasts(cfg.Feedback.ToastDuration),
		Controller: ctrl,
		Surfaces:   surface.NewRegistry(ctrl, store),
		BaseCtx:    ctx,
		Cancel:     cancel,
	}, nil
}

// Shutdown stops the background goroutines and destroys every mounted collection,
// so results of requests still in flight are discarded.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
	if a.persistDone != nil {
		<-a.persistDone
	}
	if a.Surfaces != nil {
		a.Surfaces.CloseAll()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}

// StartWatchers starts the toast pipeline, the config hot reload and, for a
// seeded in-memory backend, the seed file watcher and persistence scheduler.
func (a *App) StartWatchers() error {
	events, unsubscribe := a.Bus.Subscribe()
	go func() {
		<-a.BaseCtx.Done()
		unsubscribe()
	}()
	feedback.Forward(a.BaseCtx, events, a.Toasts)
	feedback.StartSweeper(a.BaseCtx, a.Toasts, a.Config.Feedback.SweepInterval)

	if config.Watch(a.applyConfig) {
		logger.WithComponent("app").Debug("watching config file for changes")
	}

	if a.Memory != nil && a.Config.Backend.SeedFile != "" {
		if err := backend.StartSeedWatcher(a.BaseCtx, a.Config.Backend.SeedFile, a.Memory); err != nil {
			return err
		}
		if every := a.Config.Backend.PersistInterval; every > 0 {
			a.persistDone = backend.StartPersistenceScheduler(a.BaseCtx, a.Memory, a.Config.Backend.SeedFile, every)
		}
	}
	return nil
}

// applyConfig hot-applies the settings that do not need a restart.
func (a *App) applyConfig(cfg *config.Config) {
	cfg.ApplyLogLevel()
	a.Toasts.SetDuration(cfg.Feedback.ToastDuration)
	if !reflect.DeepEqual(cfg.Backend, a.Config.Backend) || cfg.Server != a.Config.Server {
		logger.WithComponent("app").Warn("server and backend settings changed; restart to apply them")
	}
}
