package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bassista/go_fuel/internal/logger"
)

// SaveSeed validates doc and writes it to path through a temp file and rename,
// so readers never observe a half-written file.
func SaveSeed(path string, doc *SeedDocument) error {
	if path == "" {
		return errors.New("seed file path is required")
	}
	if doc == nil {
		return errors.New("document is nil")
	}
	if err := validator.New().Struct(doc); err != nil {
		return fmt.Errorf("validate before save: %w", err)
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal seed: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return fmt.Errorf("replace seed file: %w", err)
	}
	return nil
}

// StartPersistenceScheduler periodically writes mem back to path when it has changed.
// On ctx.Done it performs a final flush before returning.
// The returned channel is closed once the scheduler has stopped.
func StartPersistenceScheduler(ctx context.Context, mem *Memory, path string, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	log := logger.WithComponent("persist")
	log.Debugf("starting persistence scheduler with interval: %v", interval)
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				flush(mem, path)
				log.Info("persistence scheduler stopped after final flush")
				return
			case <-ticker.C:
				flush(mem, path)
			}
		}
	}()
	return done
}

// flush writes mem to path if dirty. The dirty flag is cleared together with
// the snapshot and restored when the write fails, so no mutation is dropped.
func flush(mem *Memory, path string) {
	log := logger.WithComponent("persist")

	mem.mu.Lock()
	if !mem.dirty {
		mem.mu.Unlock()
		log.Tracef("backend is clean, skipping flush")
		return
	}
	mem.dirty = false
	mem.mu.Unlock()

	if err := SaveSeed(path, mem.Snapshot()); err != nil {
		mem.mu.Lock()
		mem.dirty = true
		mem.mu.Unlock()
		log.Errorf("persist error: %v", err)
		return
	}
	log.Info("in-memory backend persisted to disk")
}

// sameAsMemory reports whether doc matches what mem currently holds.
func sameAsMemory(mem *Memory, doc *SeedDocument) bool {
	a, errA := json.Marshal(mem.Snapshot())
	b, errB := json.Marshal(doc)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}
