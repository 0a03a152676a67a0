// Package gateway is the HTTP boundary between the console and the back-office
// REST backend. Mutations never fail loudly: every outcome, including
// transport trouble, comes back as a Result.
package gateway

import (
	"context"

	"github.com/bassista/go_fuel/internal/entity"
)

// Action is the kind of mutation a command asks for.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

const (
	// TransportFailureMessage is shown for network errors, timeouts, non-2xx replies and unreadable bodies.
	TransportFailureMessage = "Could not reach the server. Check the connection and try again."
	// GenericFailureMessage is shown when the backend refuses without saying why.
	GenericFailureMessage = "The operation could not be completed."
)

// Command is one mutation request on one entity.
type Command struct {
	Kind   entity.Kind  `validate:"required"`
	Action Action       `validate:"required,oneof=create update delete"`
	ID     string       `validate:"required_unless=Action create"`
	Fields entity.Draft `validate:"-"`
}

// Result is the normalized backend answer.
// Cause is set on failure and classifies it with containerd/errdefs.
type Result struct {
	Success bool
	ID      string
	Message string
	Cause   error
}

// Gateway talks to the backend on behalf of list views and the CRUD controller.
type Gateway interface {
	// Mutate sends cmd and never returns an error; failures are Results with Success false.
	Mutate(ctx context.Context, cmd Command) Result
	// List fetches the initial records of a view.
	List(ctx context.Context, kind entity.Kind) (entity.Collection, error)
}

func failure(message string, cause error) Result {
	return Result{Success: false, Message: message, Cause: cause}
}
