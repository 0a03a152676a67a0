package surface

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/logger"
)

// Registry keeps the open surfaces by id and forgets them once closed.
type Registry struct {
	mutator Mutator
	targets Targets

	mu            sync.RWMutex
	forms         map[string]*FormModal
	confirmations map[string]*DeleteConfirmation
}

// NewRegistry creates an empty registry.
func NewRegistry(m Mutator, t Targets) *Registry {
	return &Registry{
		mutator:       m,
		targets:       t,
		forms:         map[string]*FormModal{},
		confirmations: map[string]*DeleteConfirmation{},
	}
}

// OpenCreateForm opens an empty form for a new record.
func (r *Registry) OpenCreateForm(kind entity.Kind) *FormModal {
	return r.openForm(kind, "", entity.Draft{})
}

// OpenEditForm opens a form seeded from an existing record.
func (r *Registry) OpenEditForm(kind entity.Kind, rec entity.Record) *FormModal {
	return r.openForm(kind, rec.ID(), entity.DraftFromRecord(rec))
}

func (r *Registry) openForm(kind entity.Kind, targetID string, seed entity.Draft) *FormModal {
	f := newFormModal(uuid.NewString(), kind, targetID, seed, r.mutator, r.targets)
	f.onClose = func() { r.forget(f.id) }

	r.mu.Lock()
	r.forms[f.id] = f
	r.mu.Unlock()

	logger.WithEntity("surface", string(kind), "form").Debugf("opened form %s (target=%q)", f.id, targetID)
	return f
}

// OpenDeleteConfirmation opens the confirmation for deleting rec.
func (r *Registry) OpenDeleteConfirmation(kind entity.Kind, rec entity.Record) *DeleteConfirmation {
	d := newDeleteConfirmation(uuid.NewString(), kind, rec.ID(), entity.Label(rec), r.mutator, r.targets)
	d.onClose = func() { r.forget(d.id) }

	r.mu.Lock()
	r.confirmations[d.id] = d
	r.mu.Unlock()

	logger.WithEntity("surface", string(kind), "confirm").Debugf("opened confirmation %s for %s", d.id, d.targetID)
	return d
}

// Form returns an open form.
func (r *Registry) Form(id string) (*FormModal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.forms[id]
	return f, ok
}

// Confirmation returns an open delete confirmation.
func (r *Registry) Confirmation(id string) (*DeleteConfirmation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.confirmations[id]
	return d, ok
}

// Len counts open surfaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.forms) + len(r.confirmations)
}

// CloseAll closes every open surface without touching in-flight requests.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	forms := make([]*FormModal, 0, len(r.forms))
	for _, f := range r.forms {
		forms = append(forms, f)
	}
	confs := make([]*DeleteConfirmation, 0, len(r.confirmations))
	for _, d := range r.confirmations {
		confs = append(confs, d)
	}
	r.mu.RUnlock()

	for _, f := range forms {
		f.Close()
	}
	for _, d := range confs {
		d.Cancel()
	}
}

func (r *Registry) forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.forms, id)
	delete(r.confirmations, id)
}
