package gateway

import (
	"fmt"
	"strings"

	"github.com/bassista/go_fuel/internal/config"
	"github.com/bassista/go_fuel/internal/entity"
)

// Encoding is the request body format an endpoint expects. It is fixed per endpoint.
type Encoding string

const (
	EncodingMultipart Encoding = config.EncodingMultipart
	EncodingJSON      Encoding = config.EncodingJSON
)

// Endpoint locates the backend resource for one entity kind.
// Mutations go to Base/<action>; the list is a GET on Base.
type Endpoint struct {
	Base     string
	Encoding Encoding
}

// MutationPath returns the path for action, e.g. /customers/create.
func (e Endpoint) MutationPath(a Action) string {
	return strings.TrimRight(e.Base, "/") + "/" + string(a)
}

// ListPath returns the path used to mount a view.
func (e Endpoint) ListPath() string {
	return strings.TrimRight(e.Base, "/")
}

// Endpoints is the per-kind endpoint table.
type Endpoints map[entity.Kind]Endpoint

// DefaultEndpoints mirrors the backend's routes: people-like records are posted
// as forms, equipment and ledger entries as JSON.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		entity.KindCustomer:    {Base: "/customers", Encoding: EncodingMultipart},
		entity.KindSupplier:    {Base: "/suppliers", Encoding: EncodingMultipart},
		entity.KindWorker:      {Base: "/workers", Encoding: EncodingMultipart},
		entity.KindPump:        {Base: "/pumps", Encoding: EncodingJSON},
		entity.KindTank:        {Base: "/tanks", Encoding: EncodingJSON},
		entity.KindTransaction: {Base: "/transactions", Encoding: EncodingJSON},
	}
}

// EndpointsFromConfig applies configured overrides on top of the defaults.
// Empty override fields keep the default value.
func EndpointsFromConfig(overrides map[string]config.EndpointConfig) (Endpoints, error) {
	eps := DefaultEndpoints()
	for name, o := range overrides {
		kind, err := entity.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("backend.endpoints: %w", err)
		}
		ep := eps[kind]
		if o.Base != "" {
			if !strings.HasPrefix(o.Base, "/") {
				return nil, fmt.Errorf("backend.endpoints.%s.base must start with '/', got %q", name, o.Base)
			}
			ep.Base = o.Base
		}
		switch Encoding(o.Encoding) {
		case "":
		case EncodingMultipart, EncodingJSON:
			ep.Encoding = Encoding(o.Encoding)
		default:
			return nil, fmt.Errorf("backend.endpoints.%s.encoding: unknown encoding %q", name, o.Encoding)
		}
		eps[kind] = ep
	}
	return eps, nil
}

// Lookup returns the endpoint for kind.
func (e Endpoints) Lookup(kind entity.Kind) (Endpoint, bool) {
	ep, ok := e[kind]
	return ep, ok
}
