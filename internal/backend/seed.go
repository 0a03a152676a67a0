package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"

	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/logger"
)

// SeedDocument is the on-disk initial state of the in-memory backend.
type SeedDocument struct {
	Customers    []entity.Record `json:"customers" validate:"dive,required"`
	Suppliers    []entity.Record `json:"suppliers" validate:"dive,required"`
	Workers      []entity.Record `json:"workers" validate:"dive,required"`
	Pumps        []entity.Record `json:"pumps" validate:"dive,required"`
	Tanks        []entity.Record `json:"tanks" validate:"dive,required"`
	Transactions []entity.Record `json:"transactions" validate:"dive,required"`
}

// Collections returns the seed records per kind.
func (d *SeedDocument) Collections() map[entity.Kind][]entity.Record {
	return map[entity.Kind][]entity.Record{
		entity.KindCustomer:    d.Customers,
		entity.KindSupplier:    d.Suppliers,
		entity.KindWorker:      d.Workers,
		entity.KindPump:        d.Pumps,
		entity.KindTank:        d.Tanks,
		entity.KindTransaction: d.Transactions,
	}
}

// checkIDs makes sure every seed record has an id and no id repeats within a kind.
func (d *SeedDocument) checkIDs() error {
	for kind, records := range d.Collections() {
		seen := make(map[string]bool, len(records))
		for i, r := range records {
			id := r.ID()
			if id == "" {
				return fmt.Errorf("%s[%d]: missing id", kind, i)
			}
			if seen[id] {
				return fmt.Errorf("%s[%d]: duplicate id %s", kind, i, id)
			}
			seen[id] = true
		}
	}
	return nil
}

// LoadSeed reads, parses and validates a seed file.
func LoadSeed(path string) (*SeedDocument, error) {
	if path == "" {
		return nil, errors.New("seed file path is required")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.UseNumber()
	var doc SeedDocument
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := validator.New().Struct(&doc); err != nil {
		return nil, fmt.Errorf("validate seed file: %w", err)
	}
	if err := doc.checkIDs(); err != nil {
		return nil, fmt.Errorf("validate seed file: %w", err)
	}
	return &doc, nil
}

// StartSeedWatcher reloads mem whenever the seed file changes on disk.
// The parent directory is watched so editors that save through temp+rename
// are still seen. Bursts of events are debounced into one reload.
// A reload is skipped while mem holds unflushed changes or already matches
// the file. Cancel ctx to stop watching.
func StartSeedWatcher(ctx context.Context, path string, mem *Memory) error {
	dir, base := filepath.Dir(path), filepath.Base(path)
	log := logger.WithComponent("seed-watcher")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	reload := func() {
		doc, err := LoadSeed(path)
		if err != nil {
			log.Warnf("seed reload failed: %v", err)
			return
		}
		if sameAsMemory(mem, doc) {
			log.Debug("seed file matches backend state; nothing to reload")
			return
		}
		if !mem.ReplaceIfClean(doc) {
			log.Warn("seed file changed but backend has unsaved changes; skipping reload")
			return
		}
		log.Info("in-memory backend reloaded from seed file")
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(200*time.Millisecond, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("watcher error: %v", err)
			}
		}
	}()
	return nil
}
