package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"

	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/gateway"
	"github.com/bassista/go_fuel/internal/logger"
)

const maxFormMemory = 1 << 20

// reply is the upstream mutation contract.
type reply struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Handler serves the upstream REST contract for every endpoint in the table.
// Each endpoint only accepts its configured encoding.
func (m *Memory) Handler(endpoints gateway.Endpoints) (http.Handler, error) {
	r := gin.New()
	r.Use(gin.Recovery())

	seen := map[string]entity.Kind{}
	for _, kind := range entity.Kinds {
		ep, ok := endpoints.Lookup(kind)
		if !ok {
			continue
		}
		base := ep.ListPath()
		if other, dup := seen[base]; dup {
			return nil, fmt.Errorf("endpoints for %s and %s share %s: %w", other, kind, base, errdefs.ErrInvalidArgument)
		}
		seen[base] = kind

		r.GET(base, m.listHandler(kind))
		r.POST(ep.MutationPath(gateway.ActionCreate), m.mutationHandler(kind, ep.Encoding, gateway.ActionCreate))
		r.POST(ep.MutationPath(gateway.ActionUpdate), m.mutationHandler(kind, ep.Encoding, gateway.ActionUpdate))
		r.POST(ep.MutationPath(gateway.ActionDelete), m.mutationHandler(kind, ep.Encoding, gateway.ActionDelete))
	}
	return r, nil
}

func (m *Memory) listHandler(kind entity.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.List(kind))
	}
}

func (m *Memory) mutationHandler(kind entity.Kind, enc gateway.Encoding, action gateway.Action) gin.HandlerFunc {
	log := logger.WithEntity("memory-backend", string(kind), string(action))
	return func(c *gin.Context) {
		fields, err := readFields(c, enc)
		if err != nil {
			log.Warnf("bad request: %v", err)
			status := http.StatusBadRequest
			if errors.Is(err, errUnsupportedMedia) {
				status = http.StatusUnsupportedMediaType
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		id := entity.NormalizeID(fields[entity.IDField])
		delete(fields, entity.IDField)
		if action != gateway.ActionCreate && id == "" {
			c.JSON(http.StatusOK, reply{Message: "missing id"})
			return
		}

		switch action {
		case gateway.ActionCreate:
			id, err = m.Create(kind, fields)
		case gateway.ActionUpdate:
			err = m.Update(kind, id, fields)
		case gateway.ActionDelete:
			err = m.Delete(kind, id)
		}
		if err != nil {
			c.JSON(http.StatusOK, reply{Message: replyMessage(err)})
			return
		}
		c.JSON(http.StatusOK, reply{Success: true, ID: wireID(id)})
	}
}

// wireID sends numeric ids as JSON numbers, like the real backend does.
func wireID(id string) any {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return json.Number(id)
	}
	return id
}

var errUnsupportedMedia = errors.New("unsupported content type")

func readFields(c *gin.Context, enc gateway.Encoding) (entity.Record, error) {
	ct := c.ContentType()
	switch enc {
	case gateway.EncodingJSON:
		if ct != "application/json" {
			return nil, fmt.Errorf("%w %q, want application/json", errUnsupportedMedia, ct)
		}
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		var rec entity.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		if rec == nil {
			rec = entity.Record{}
		}
		return rec, nil
	default:
		if !strings.HasPrefix(ct, "multipart/form-data") {
			return nil, fmt.Errorf("%w %q, want multipart/form-data", errUnsupportedMedia, ct)
		}
		if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		rec := entity.Record{}
		for k, vs := range c.Request.MultipartForm.Value {
			if len(vs) > 0 {
				rec[k] = vs[0]
			}
		}
		return rec, nil
	}
}

func replyMessage(err error) string {
	switch {
	case errdefs.IsAlreadyExists(err):
		return "duplicate"
	case errdefs.IsNotFound(err):
		return "not found"
	default:
		return err.Error()
	}
}
