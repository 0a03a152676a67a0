package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/containerd/errdefs"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/logger"
)

// maxBodyBytes caps how much of a backend reply is read.
const maxBodyBytes = 1 << 20

// HTTPGateway implements Gateway over the backend's REST endpoints.
type HTTPGateway struct {
	base      *url.URL
	client    *http.Client
	endpoints Endpoints
	validator *validator.Validate
	metrics   *Metrics
}

// NewHTTPClient returns a traced client. timeout 0 means no client-side limit.
// base may be nil to use http.DefaultTransport.
func NewHTTPClient(timeout time.Duration, base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(base),
	}
}

// NewHTTPGateway creates a gateway for the backend rooted at baseURL.
func NewHTTPGateway(baseURL string, client *http.Client, endpoints Endpoints, metrics *Metrics) (*HTTPGateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	if client == nil {
		client = NewHTTPClient(0, nil)
	}
	if endpoints == nil {
		endpoints = DefaultEndpoints()
	}
	return &HTTPGateway{
		base:      u,
		client:    client,
		endpoints: endpoints,
		validator: validator.New(),
		metrics:   metrics,
	}, nil
}

// wireResult is the backend's reply to a mutation.
type wireResult struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	ID      any    `json:"id"`
}

// Mutate implements Gateway.
func (g *HTTPGateway) Mutate(ctx context.Context, cmd Command) Result {
	start := time.Now()
	log := logger.WithEntity("gateway", string(cmd.Kind), string(cmd.Action))

	if err := g.validator.Struct(cmd); err != nil {
		log.Warnf("rejected invalid command: %v", err)
		g.metrics.observe(cmd, outcomeInvalid, 0)
		return failure(GenericFailureMessage, fmt.Errorf("invalid command: %v: %w", err, errdefs.ErrInvalidArgument))
	}
	ep, ok := g.endpoints.Lookup(cmd.Kind)
	if !ok {
		log.Warn("no endpoint configured")
		g.metrics.observe(cmd, outcomeInvalid, 0)
		return failure(GenericFailureMessage, fmt.Errorf("no endpoint for %s: %w", cmd.Kind, errdefs.ErrInvalidArgument))
	}

	req, err := g.newMutationRequest(ctx, ep, cmd)
	if err != nil {
		log.Errorf("build request: %v", err)
		g.metrics.observe(cmd, outcomeInvalid, 0)
		return failure(GenericFailureMessage, fmt.Errorf("build request: %v: %w", err, errdefs.ErrInvalidArgument))
	}

	log.Debugf("POST %s (%s)", req.URL.Path, ep.Encoding)
	resp, err := g.client.Do(req)
	if err != nil {
		cause := classifyTransportError(err)
		log.Warnf("transport error: %v", cause)
		g.metrics.observe(cmd, outcomeTransport, time.Since(start))
		return failure(TransportFailureMessage, cause)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		cause := classifyStatus(resp.StatusCode)
		log.Warnf("backend answered %d: %v", resp.StatusCode, cause)
		g.metrics.observe(cmd, outcomeTransport, time.Since(start))
		return failure(TransportFailureMessage, cause)
	}

	var wr wireResult
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&wr); err != nil || wr.Success == nil {
		if err == nil {
			err = errors.New(`missing "success" field`)
		}
		cause := fmt.Errorf("malformed response: %v: %w", err, errdefs.ErrDataLoss)
		log.Warn(cause)
		g.metrics.observe(cmd, outcomeTransport, time.Since(start))
		return failure(TransportFailureMessage, cause)
	}

	if !*wr.Success {
		msg := wr.Message
		if msg == "" {
			msg = GenericFailureMessage
		}
		log.Infof("backend refused: %s", msg)
		g.metrics.observe(cmd, outcomeRejected, time.Since(start))
		return failure(msg, fmt.Errorf("%s: %w", msg, errdefs.ErrFailedPrecondition))
	}

	g.metrics.observe(cmd, outcomeSuccess, time.Since(start))
	res := Result{Success: true, ID: entity.NormalizeID(wr.ID), Message: wr.Message}
	log.Debugf("backend accepted (id=%q)", res.ID)
	return res
}

func (g *HTTPGateway) newMutationRequest(ctx context.Context, ep Endpoint, cmd Command) (*http.Request, error) {
	fields := cmd.Fields.Clone()
	delete(fields, entity.IDField)
	if cmd.ID != "" {
		fields[entity.IDField] = cmd.ID
	}

	var (
		body        bytes.Buffer
		contentType string
	)
	switch ep.Encoding {
	case EncodingJSON:
		if err := json.NewEncoder(&body).Encode(fields); err != nil {
			return nil, err
		}
		contentType = "application/json"
	case EncodingMultipart, "":
		mw := multipart.NewWriter(&body)
		// sorted so requests are reproducible in logs and tests
		for _, k := range slices.Sorted(maps.Keys(fields)) {
			if err := mw.WriteField(k, fields[k]); err != nil {
				return nil, err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
		contentType = mw.FormDataContentType()
	default:
		return nil, fmt.Errorf("unsupported encoding %q", ep.Encoding)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.resolve(ep.MutationPath(cmd.Action)), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// List implements Gateway. The backend may answer with a bare array or {"data": [...]}.
// Records without an id are skipped; repeated ids keep the last record.
func (g *HTTPGateway) List(ctx context.Context, kind entity.Kind) (entity.Collection, error) {
	ep, ok := g.endpoints.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("no endpoint for %s: %w", kind, errdefs.ErrInvalidArgument)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.resolve(ep.ListPath()), nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, classifyTransportError(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("list %s: %w", kind, classifyStatus(resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16*maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("list %s: read body: %v: %w", kind, err, errdefs.ErrUnavailable)
	}
	records, err := decodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("list %s: %v: %w", kind, err, errdefs.ErrDataLoss)
	}

	return dedupeByID(kind, records), nil
}

// dedupeByID drops records without an id and keeps the last record of a
// repeated id at the position of its first occurrence.
func dedupeByID(kind entity.Kind, records []entity.Record) entity.Collection {
	out := make(entity.Collection, 0, len(records))
	index := make(map[string]int, len(records))
	for _, r := range records {
		id := r.ID()
		if id == "" {
			logger.WithComponent("gateway").Warnf("list %s: skipping record without id", kind)
			continue
		}
		if i, ok := index[id]; ok {
			out[i] = r
			continue
		}
		index[id] = len(out)
		out = append(out, r)
	}
	return out
}

func decodeList(raw []byte) ([]entity.Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data []entity.Record `json:"data"`
		}
		if err := decodeNumbers(trimmed, &env); err != nil {
			return nil, err
		}
		return env.Data, nil
	}
	var records []entity.Record
	if err := decodeNumbers(trimmed, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func (g *HTTPGateway) resolve(path string) string {
	u := *g.base
	u.Path = joinPath(g.base.Path, path)
	return u.String()
}

func joinPath(base, p string) string {
	switch {
	case base == "" || base == "/":
		return p
	case base[len(base)-1] == '/':
		return base + p[1:]
	default:
		return base + p
	}
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%v: %w", err, context.DeadlineExceeded)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%v: %w", err, context.Canceled)
	}
	return fmt.Errorf("%v: %w", err, errdefs.ErrUnavailable)
}

func classifyStatus(code int) error {
	status := fmt.Sprintf("unexpected status %d", code)
	switch {
	case code == http.StatusNotFound:
		return fmt.Errorf("%s: %w", status, errdefs.ErrNotFound)
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", status, errdefs.ErrUnauthenticated)
	case code == http.StatusForbidden:
		return fmt.Errorf("%s: %w", status, errdefs.ErrPermissionDenied)
	case code >= 500:
		return fmt.Errorf("%s: %w", status, errdefs.ErrUnavailable)
	default:
		return fmt.Errorf("%s: %w", status, errdefs.ErrInvalidArgument)
	}
}
