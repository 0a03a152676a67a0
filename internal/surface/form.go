package surface

import (
	"context"
	"sync"

	"github.com/bassista/go_fuel/internal/crud"
	"github.com/bassista/go_fuel/internal/entity"
)

// FormModal is one add or edit form. It owns its draft and its save origin.
type FormModal struct {
	id       string
	kind     entity.Kind
	targetID string
	mutator  Mutator
	targets  Targets

	origin crud.Origin

	mu      sync.Mutex
	draft   entity.Draft
	open    bool
	onClose func()
}

// FormView is the serializable state of a form.
type FormView struct {
	ID       string       `json:"id"`
	Kind     entity.Kind  `json:"kind"`
	TargetID string       `json:"target_id,omitempty"`
	Draft    entity.Draft `json:"draft"`
	Open     bool         `json:"open"`
	Pending  bool         `json:"pending"`
}

func newFormModal(id string, kind entity.Kind, targetID string, seed entity.Draft, m Mutator, t Targets) *FormModal {
	return &FormModal{
		id:       id,
		kind:     kind,
		targetID: targetID,
		mutator:  m,
		targets:  t,
		draft:    seed.Clone(),
		open:     true,
	}
}

func (f *FormModal) ID() string        { return f.id }
func (f *FormModal) Kind() entity.Kind { return f.kind }
func (f *FormModal) TargetID() string  { return f.targetID }
func (f *FormModal) Pending() bool     { return f.origin.Pending() }
func (f *FormModal) Editing() bool     { return f.targetID != "" }

// Open reports whether the form is still shown.
func (f *FormModal) Open() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Draft returns a copy of the current draft.
func (f *FormModal) Draft() entity.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Clone()
}

// Set edits one draft field. It returns false once the form is closed.
func (f *FormModal) Set(field, value string) bool {
	if field == entity.IDField {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return false
	}
	f.draft[field] = value
	return true
}

// Submit saves the draft. On success the form closes and the draft is
// cleared; on failure both stay as they were so the user can retry.
func (f *FormModal) Submit(ctx context.Context) crud.Outcome {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return crud.Outcome{}
	}
	draft := f.draft.Clone()
	f.mu.Unlock()

	return f.mutator.Save(ctx, &f.origin, crud.Request{
		Target:    backing(f.targets, f.kind),
		Kind:      f.kind,
		ID:        f.targetID,
		Draft:     draft,
		OnSuccess: func(crud.Outcome) { f.Close() },
	})
}

// Close hides the form and discards the draft. An in-flight submit keeps running.
func (f *FormModal) Close() {
	f.mu.Lock()
	wasOpen := f.open
	f.open = false
	f.draft = entity.Draft{}
	onClose := f.onClose
	f.mu.Unlock()

	if wasOpen && onClose != nil {
		onClose()
	}
}

// View snapshots the form for rendering.
func (f *FormModal) View() FormView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormView{
		ID:       f.id,
		Kind:     f.kind,
		TargetID: f.targetID,
		Draft:    f.draft.Clone(),
		Open:     f.open,
		Pending:  f.origin.Pending(),
	}
}
