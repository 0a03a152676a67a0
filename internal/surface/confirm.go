package surface

import (
	"context"
	"sync"

	"github.com/bassista/go_fuel/internal/crud"
	"github.com/bassista/go_fuel/internal/entity"
)

// DeleteConfirmation gates a delete behind an explicit confirm.
type DeleteConfirmation struct {
	id       string
	kind     entity.Kind
	targetID string
	label    string
	mutator  Mutator
	targets  Targets

	origin crud.Origin

	mu      sync.Mutex
	open    bool
	onClose func()
}

// ConfirmationView is the serializable state of a delete confirmation.
type ConfirmationView struct {
	ID       string      `json:"id"`
	Kind     entity.Kind `json:"kind"`
	TargetID string      `json:"target_id"`
	Label    string      `json:"label"`
	Prompt   string      `json:"prompt"`
	Open     bool        `json:"open"`
	Pending  bool        `json:"pending"`
}

func newDeleteConfirmation(id string, kind entity.Kind, targetID, label string, m Mutator, t Targets) *DeleteConfirmation {
	return &DeleteConfirmation{
		id:       id,
		kind:     kind,
		targetID: targetID,
		label:    label,
		mutator:  m,
		targets:  t,
		open:     true,
	}
}

func (d *DeleteConfirmation) ID() string        { return d.id }
func (d *DeleteConfirmation) Kind() entity.Kind { return d.kind }
func (d *DeleteConfirmation) TargetID() string  { return d.targetID }
func (d *DeleteConfirmation) Label() string     { return d.label }
func (d *DeleteConfirmation) Pending() bool     { return d.origin.Pending() }

// Open reports whether the confirmation is still shown.
func (d *DeleteConfirmation) Open() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Confirm deletes the target and closes on success.
func (d *DeleteConfirmation) Confirm(ctx context.Context) crud.Outcome {
	if !d.Open() {
		return crud.Outcome{}
	}
	return d.mutator.Delete(ctx, &d.origin, crud.Request{
		Target:    backing(d.targets, d.kind),
		Kind:      d.kind,
		ID:        d.targetID,
		OnSuccess: func(crud.Outcome) { d.close() },
	})
}

// Cancel closes without contacting the backend. It never fails.
func (d *DeleteConfirmation) Cancel() {
	d.close()
}

func (d *DeleteConfirmation) close() {
	d.mu.Lock()
	wasOpen := d.open
	d.open = false
	onClose := d.onClose
	d.mu.Unlock()

	if wasOpen && onClose != nil {
		onClose()
	}
}

// View snapshots the confirmation for rendering.
func (d *DeleteConfirmation) View() ConfirmationView {
	return ConfirmationView{
		ID:       d.id,
		Kind:     d.kind,
		TargetID: d.targetID,
		Label:    d.label,
		Prompt:   "Delete " + d.label + "? This cannot be undone.",
		Open:     d.Open(),
		Pending:  d.origin.Pending(),
	}
}
