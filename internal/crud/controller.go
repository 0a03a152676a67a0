package crud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bassista/go_fuel/internal/cache"
	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/feedback"
	"github.com/bassista/go_fuel/internal/gateway"
	"github.com/bassista/go_fuel/internal/logger"
)

// ErrMissingID is reported when the backend accepts a create without returning an id.
var ErrMissingID = errors.New("create succeeded without an id")

// Request describes one save or delete.
type Request struct {
	// Target is the mounted collection the result is reconciled into. It may be nil.
	Target cache.Backing
	Kind   entity.Kind
	// ID is empty for a create.
	ID    string
	Draft entity.Draft
	// OnSuccess runs while the origin is still Pending, after the store was
	// updated. Surfaces use it to close themselves so a second submit cannot
	// slip in between the reply and the close.
	OnSuccess func(Outcome)
}

// Outcome is what the caller of Save or Delete learns.
type Outcome struct {
	// Accepted is false when the origin was already Pending and nothing happened.
	Accepted bool   `json:"accepted"`
	Success  bool   `json:"success"`
	ID       string `json:"id,omitempty"`
	Message  string `json:"message,omitempty"`
	Cause    error  `json:"-"`
}

// Controller runs mutations pessimistically: the store is touched only after
// the gateway confirmed the change.
type Controller struct {
	gateway  gateway.Gateway
	feedback feedback.Emitter
	reporter Reporter
}

// NewController wires a controller. reporter may be nil.
func NewController(gw gateway.Gateway, em feedback.Emitter, reporter Reporter) *Controller {
	return &Controller{gateway: gw, feedback: em, reporter: reporter}
}

// Save creates (empty req.ID) or updates a record from req.Draft.
func (c *Controller) Save(ctx context.Context, origin *Origin, req Request) Outcome {
	action := gateway.ActionUpdate
	if req.ID == "" {
		action = gateway.ActionCreate
	}
	return c.run(ctx, origin, action, req)
}

// Delete removes the record req.ID. req.Draft is ignored.
func (c *Controller) Delete(ctx context.Context, origin *Origin, req Request) Outcome {
	req.Draft = nil
	return c.run(ctx, origin, gateway.ActionDelete, req)
}

func (c *Controller) run(ctx context.Context, origin *Origin, action gateway.Action, req Request) Outcome {
	log := logger.WithEntity("crud", string(req.Kind), string(action))
	if !origin.Begin() {
		log.Debug("origin is pending, ignoring trigger")
		return Outcome{}
	}
	defer origin.End()

	// captured by value; later edits to the form do not reach this request
	draft := req.Draft.Clone()
	res := c.gateway.Mutate(ctx, gateway.Command{
		Kind:   req.Kind,
		Action: action,
		ID:     req.ID,
		Fields: draft,
	})

	if !res.Success {
		log.WithError(res.Cause).Infof("mutation failed: %s", res.Message)
		c.emit(feedback.LevelError, req.Kind, action, res.Message)
		return Outcome{Accepted: true, Message: res.Message, Cause: res.Cause}
	}

	out := Outcome{Accepted: true, Success: true, ID: req.ID, Message: successMessage(req.Kind, action, res.Message)}
	switch action {
	case gateway.ActionCreate:
		out.ID = res.ID
		if res.ID == "" {
			c.reconcileFailed(log, fmt.Errorf("%s: %w", req.Kind, ErrMissingID), req)
			break
		}
		rec := draft.Fields()
		rec[entity.IDField] = res.ID
		c.reconcile(log, req, func(rs entity.Collection) entity.Collection { return entity.Insert(rs, rec) })
	case gateway.ActionUpdate:
		partial := draft.Fields()
		c.reconcile(log, req, func(rs entity.Collection) entity.Collection { return entity.Patch(rs, req.ID, partial) })
	case gateway.ActionDelete:
		c.reconcile(log, req, func(rs entity.Collection) entity.Collection { return entity.Remove(rs, req.ID) })
	}

	c.emit(feedback.LevelSuccess, req.Kind, action, out.Message)
	if req.OnSuccess != nil {
		c.guard(log, req, "success hook", func() { req.OnSuccess(out) })
	}
	return out
}

// reconcile applies op to the target unless it has gone away in the meantime.
func (c *Controller) reconcile(log *logrus.Entry, req Request, op cache.Op) {
	if req.Target == nil {
		log.Debug("no mounted collection, nothing to reconcile")
		return
	}
	c.guard(log, req, "apply", func() {
		if !req.Target.Alive() {
			log.Debug("collection was unmounted, discarding result")
			return
		}
		if err := req.Target.Apply(op); err != nil {
			log.WithError(err).Debug("collection was unmounted, discarding result")
		}
	})
}

func (c *Controller) guard(log *logrus.Entry, req Request, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.reconcileFailed(log, fmt.Errorf("%s panicked: %v", step, r), req)
		}
	}()
	fn()
}

// reconcileFailed logs local errors after a confirmed mutation. They are never shown to the user.
func (c *Controller) reconcileFailed(log *logrus.Entry, err error, req Request) {
	log.WithError(err).Error("reconciliation error")
	if c.reporter != nil {
		c.reporter(err, map[string]any{"entity": req.Kind, "id": req.ID})
	}
}

func (c *Controller) emit(level feedback.Level, kind entity.Kind, action gateway.Action, msg string) {
	if c.feedback == nil {
		return
	}
	c.feedback.Emit(feedback.NewEvent(level, string(kind), string(action), msg))
}

func successMessage(kind entity.Kind, action gateway.Action, msg string) string {
	if msg != "" {
		return msg
	}
	name := string(kind)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	switch action {
	case gateway.ActionCreate:
		return name + " created"
	case gateway.ActionDelete:
		return name + " deleted"
	default:
		return name + " updated"
	}
}
