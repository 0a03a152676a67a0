package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/containerd/errdefs"

	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/logger"
)

var (
	ErrDuplicate      = fmt.Errorf("duplicate: %w", errdefs.ErrAlreadyExists)
	ErrRecordNotFound = fmt.Errorf("not found: %w", errdefs.ErrNotFound)
)

type table struct {
	records entity.Collection
	next    int64
}

// Memory is an in-process stand-in for the upstream backend.
// Ids are sequential per kind; names must be unique per kind.
type Memory struct {
	mu     sync.RWMutex
	tables map[entity.Kind]*table
	dirty  bool
}

// NewMemory creates an empty backend with a table for every kind.
func NewMemory() *Memory {
	m := &Memory{}
	m.reset(nil)
	return m
}

// NewMemoryFromSeed creates a backend holding the seed records.
func NewMemoryFromSeed(doc *SeedDocument) *Memory {
	m := &Memory{}
	m.reset(doc)
	return m
}

// Replace swaps the whole state for the seed document.
func (m *Memory) Replace(doc *SeedDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset(doc)
	m.dirty = false
}

// ReplaceIfClean swaps the state for doc unless a mutation happened since the
// last Replace or ClearDirty. The check and the swap hold one lock.
func (m *Memory) ReplaceIfClean(doc *SeedDocument) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirty {
		return false
	}
	m.reset(doc)
	return true
}

// Snapshot returns the current state as a seed document.
func (m *Memory) Snapshot() *SeedDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := func(k entity.Kind) []entity.Record {
		out := make([]entity.Record, 0, len(m.tables[k].records))
		for _, r := range m.tables[k].records {
			out = append(out, r.Clone())
		}
		return out
	}
	return &SeedDocument{
		Customers:    list(entity.KindCustomer),
		Suppliers:    list(entity.KindSupplier),
		Workers:      list(entity.KindWorker),
		Pumps:        list(entity.KindPump),
		Tanks:        list(entity.KindTank),
		Transactions: list(entity.KindTransaction),
	}
}

// IsDirty reports whether a mutation happened since the last Replace or ClearDirty.
func (m *Memory) IsDirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirty
}

func (m *Memory) ClearDirty() {
	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()
}

func (m *Memory) reset(doc *SeedDocument) {
	m.tables = make(map[entity.Kind]*table, len(entity.Kinds))
	for _, k := range entity.Kinds {
		m.tables[k] = &table{next: 1}
	}
	if doc == nil {
		return
	}
	for kind, records := range doc.Collections() {
		t := m.tables[kind]
		for _, r := range records {
			t.records = entity.Insert(t.records, r.Clone())
			if n, err := strconv.ParseInt(r.ID(), 10, 64); err == nil && n >= t.next {
				t.next = n + 1
			}
		}
	}
}

// List returns a copy of every record of kind.
func (m *Memory) List(kind entity.Kind) entity.Collection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[kind]
	if !ok || len(t.records) == 0 {
		return entity.Collection{}
	}
	return t.records.Clone()
}

// Create stores a new record and returns its id.
func (m *Memory) Create(kind entity.Kind, fields entity.Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(kind)
	if err != nil {
		return "", err
	}
	if t.nameTaken(fields, "") {
		return "", ErrDuplicate
	}

	id := strconv.FormatInt(t.next, 10)
	t.next++
	rec := fields.Clone()
	rec[entity.IDField] = json.Number(id)
	t.records = entity.Insert(t.records, rec)
	m.dirty = true
	logger.WithEntity("memory-backend", string(kind), "create").Debugf("created %s", id)
	return id, nil
}

// Update merges fields into the record id.
func (m *Memory) Update(kind entity.Kind, id string, fields entity.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(kind)
	if err != nil {
		return err
	}
	if _, ok := entity.Find(t.records, id); !ok {
		return ErrRecordNotFound
	}
	if t.nameTaken(fields, id) {
		return ErrDuplicate
	}
	t.records = entity.Patch(t.records, id, fields)
	m.dirty = true
	logger.WithEntity("memory-backend", string(kind), "update").Debugf("updated %s", id)
	return nil
}

// Delete removes the record id.
func (m *Memory) Delete(kind entity.Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(kind)
	if err != nil {
		return err
	}
	if _, ok := entity.Find(t.records, id); !ok {
		return ErrRecordNotFound
	}
	t.records = entity.Remove(t.records, id)
	m.dirty = true
	logger.WithEntity("memory-backend", string(kind), "delete").Debugf("deleted %s", id)
	return nil
}

func (m *Memory) table(kind entity.Kind) (*table, error) {
	t, ok := m.tables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q: %w", kind, errdefs.ErrInvalidArgument)
	}
	return t, nil
}

// nameTaken reports whether another record (not self) already uses fields' name.
func (t *table) nameTaken(fields entity.Record, self string) bool {
	name, ok := fields["name"]
	if !ok {
		return false
	}
	want := strings.ToLower(strings.TrimSpace(entity.Text(name)))
	if want == "" {
		return false
	}
	for _, r := range t.records {
		if r.ID() == self {
			continue
		}
		if strings.ToLower(strings.TrimSpace(entity.Text(r["name"]))) == want {
			return true
		}
	}
	return false
}
