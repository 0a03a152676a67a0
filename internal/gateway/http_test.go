package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassista/go_fuel/internal/config"
	"github.com/bassista/go_fuel/internal/entity"
)

// capturedRequest records what the fake backend received.
type capturedRequest struct {
	Method      string
	Path        string
	ContentType string
	Form        map[string]string
	JSON        map[string]string
}

func newBackend(t *testing.T, reply func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var seen []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cr := capturedRequest{Method: r.Method, Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")}
		if r.Method == http.MethodPost {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				cr.Form = map[string]string{}
				for k, v := range r.MultipartForm.Value {
					cr.Form[k] = v[0]
				}
			} else {
				_ = json.NewDecoder(r.Body).Decode(&cr.JSON)
			}
		}
		seen = append(seen, cr)
		reply(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func jsonReply(status int, body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newTestGateway(t *testing.T, url string, metrics *Metrics) *HTTPGateway {
	t.Helper()
	g, err := NewHTTPGateway(url, NewHTTPClient(2*time.Second, nil), DefaultEndpoints(), metrics)
	require.NoError(t, err)
	return g
}

func TestMutate_CreateMultipart(t *testing.T) {
	srv, seen := newBackend(t, jsonReply(http.StatusOK, `{"success":true,"id":2,"message":"added"}`))
	g := newTestGateway(t, srv.URL, nil)

	res := g.Mutate(context.Background(), Command{
		Kind:   entity.KindCustomer,
		Action: ActionCreate,
		Fields: entity.Draft{"name": "B", "phone": "050..."},
	})

	require.True(t, res.Success)
	assert.Equal(t, "2", res.ID)
	assert.Equal(t, "added", res.Message)
	assert.NoError(t, res.Cause)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/customers/create", req.Path)
	assert.Contains(t, req.ContentType, "multipart/form-data")
	assert.Equal(t, map[string]string{"name": "B", "phone": "050..."}, req.Form)
}

func TestMutate_UpdateJSONCarriesID(t *testing.T) {
	srv, seen := newBackend(t, jsonReply(http.StatusOK, `{"success":true}`))
	g := newTestGateway(t, srv.URL, nil)

	res := g.Mutate(context.Background(), Command{
		Kind:   entity.KindPump,
		Action: ActionUpdate,
		ID:     "7",
		Fields: entity.Draft{"name": "P7", "id": "ignored"},
	})

	require.True(t, res.Success)
	assert.Empty(t, res.ID)
	req := (*seen)[0]
	assert.Equal(t, "/pumps/update", req.Path)
	assert.Equal(t, "application/json", req.ContentType)
	assert.Equal(t, map[string]string{"id": "7", "name": "P7"}, req.JSON)
}

func TestMutate_DeleteSendsOnlyID(t *testing.T) {
	srv, seen := newBackend(t, jsonReply(http.StatusOK, `{"success":true,"message":"deleted"}`))
	g := newTestGateway(t, srv.URL, nil)

	res := g.Mutate(context.Background(), Command{Kind: entity.KindSupplier, Action: ActionDelete, ID: "3"})

	require.True(t, res.Success)
	assert.Equal(t, "/suppliers/delete", (*seen)[0].Path)
	assert.Equal(t, map[string]string{"id": "3"}, (*seen)[0].Form)
}

func TestMutate_ApplicationFailure(t *testing.T) {
	t.Run("message verbatim", func(t *testing.T) {
		srv, _ := newBackend(t, jsonReply(http.StatusOK, `{"success":false,"message":"duplicate"}`))
		res := newTestGateway(t, srv.URL, nil).Mutate(context.Background(),
			Command{Kind: entity.KindCustomer, Action: ActionUpdate, ID: "1", Fields: entity.Draft{"name": "A2"}})

		assert.False(t, res.Success)
		assert.Equal(t, "duplicate", res.Message)
		assert.True(t, errdefs.IsFailedPrecondition(res.Cause))
	})

	t.Run("generic fallback", func(t *testing.T) {
		srv, _ := newBackend(t, jsonReply(http.StatusOK, `{"success":false}`))
		res := newTestGateway(t, srv.URL, nil).Mutate(context.Background(),
			Command{Kind: entity.KindCustomer, Action: ActionDelete, ID: "1"})

		assert.False(t, res.Success)
		assert.Equal(t, GenericFailureMessage, res.Message)
	})
}

func TestMutate_TransportFailuresAreNormalized(t *testing.T) {
	tests := []struct {
		name  string
		reply func(http.ResponseWriter, *http.Request)
		class func(error) bool
	}{
		{"server error", jsonReply(http.StatusInternalServerError, `{"success":false,"message":"boom"}`), errdefs.IsUnavailable},
		{"not found", jsonReply(http.StatusNotFound, `nope`), errdefs.IsNotFound},
		{"bad request", jsonReply(http.StatusBadRequest, `{}`), errdefs.IsInvalidArgument},
		{"html body", jsonReply(http.StatusOK, `<html>oops</html>`), errdefs.IsDataLoss},
		{"missing success", jsonReply(http.StatusOK, `{"id":3}`), errdefs.IsDataLoss},
		{"empty body", jsonReply(http.StatusOK, ``), errdefs.IsDataLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newBackend(t, tt.reply)
			res := newTestGateway(t, srv.URL, nil).Mutate(context.Background(),
				Command{Kind: entity.KindTank, Action: ActionCreate, Fields: entity.Draft{"name": "T"}})

			assert.False(t, res.Success)
			assert.Equal(t, TransportFailureMessage, res.Message)
			assert.True(t, tt.class(res.Cause), "unexpected cause class: %v", res.Cause)
		})
	}
}

func TestMutate_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := newTestGateway(t, url, nil).Mutate(context.Background(),
		Command{Kind: entity.KindWorker, Action: ActionCreate, Fields: entity.Draft{"name": "W"}})

	assert.False(t, res.Success)
	assert.Equal(t, TransportFailureMessage, res.Message)
	assert.True(t, errdefs.IsUnavailable(res.Cause))
}

func TestMutate_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	g, err := NewHTTPGateway(srv.URL, NewHTTPClient(50*time.Millisecond, nil), nil, nil)
	require.NoError(t, err)

	res := g.Mutate(context.Background(), Command{Kind: entity.KindWorker, Action: ActionDelete, ID: "1"})
	assert.False(t, res.Success)
	assert.Equal(t, TransportFailureMessage, res.Message)
	assert.True(t, errdefs.IsDeadlineExceeded(res.Cause), "cause: %v", res.Cause)
}

func TestMutate_InvalidCommandNeverHitsBackend(t *testing.T) {
	srv, seen := newBackend(t, jsonReply(http.StatusOK, `{"success":true}`))
	g := newTestGateway(t, srv.URL, nil)

	for _, cmd := range []Command{
		{Kind: entity.KindCustomer, Action: "archive", ID: "1"},
		{Kind: entity.KindCustomer, Action: ActionUpdate},
		{Kind: entity.KindCustomer, Action: ActionDelete},
		{Action: ActionCreate},
		{Kind: "boat", Action: ActionCreate},
	} {
		res := g.Mutate(context.Background(), cmd)
		assert.False(t, res.Success)
		assert.Equal(t, GenericFailureMessage, res.Message)
		assert.True(t, errdefs.IsInvalidArgument(res.Cause))
	}
	assert.Empty(t, *seen)
}

func TestMutate_Metrics(t *testing.T) {
	srv, _ := newBackend(t, jsonReply(http.StatusOK, `{"success":true,"id":"x"}`))
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	g := newTestGateway(t, srv.URL, m)

	g.Mutate(context.Background(), Command{Kind: entity.KindTank, Action: ActionCreate})
	g.Mutate(context.Background(), Command{Kind: entity.KindTank, Action: ActionCreate})
	g.Mutate(context.Background(), Command{Kind: entity.KindTank, Action: ActionUpdate})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("tank", "create", outcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("tank", "update", outcomeInvalid)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration), "invalid commands are not timed")
}

func TestMutate_BasePathPrefix(t *testing.T) {
	srv, seen := newBackend(t, jsonReply(http.StatusOK, `{"success":true,"id":1}`))
	g := newTestGateway(t, srv.URL+"/api/v2/", nil)

	res := g.Mutate(context.Background(), Command{Kind: entity.KindTransaction, Action: ActionCreate})
	require.True(t, res.Success)
	assert.Equal(t, "/api/v2/transactions/create", (*seen)[0].Path)
}

func TestList(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		srv, seen := newBackend(t, jsonReply(http.StatusOK, `[{"id":1,"name":"A"},{"id":"2","name":"B"},{"name":"no id"},{"id":1,"name":"A2"}]`))
		got, err := newTestGateway(t, srv.URL, nil).List(context.Background(), entity.KindCustomer)

		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, (*seen)[0].Method)
		assert.Equal(t, "/customers", (*seen)[0].Path)
		assert.Equal(t, []string{"1", "2"}, got.IDs())
		assert.Equal(t, "A2", got[0]["name"])
	})

	t.Run("data envelope", func(t *testing.T) {
		srv, _ := newBackend(t, jsonReply(http.StatusOK, `{"data":[{"id":5,"capacity":20000}]}`))
		got, err := newTestGateway(t, srv.URL, nil).List(context.Background(), entity.KindTank)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, json.Number("20000"), got[0]["capacity"])
	})

	t.Run("empty", func(t *testing.T) {
		srv, _ := newBackend(t, jsonReply(http.StatusOK, `[]`))
		got, err := newTestGateway(t, srv.URL, nil).List(context.Background(), entity.KindTank)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("server error", func(t *testing.T) {
		srv, _ := newBackend(t, jsonReply(http.StatusBadGateway, `{}`))
		_, err := newTestGateway(t, srv.URL, nil).List(context.Background(), entity.KindTank)
		assert.True(t, errdefs.IsUnavailable(err))
	})

	t.Run("garbage", func(t *testing.T) {
		srv, _ := newBackend(t, jsonReply(http.StatusOK, `not json`))
		_, err := newTestGateway(t, srv.URL, nil).List(context.Background(), entity.KindTank)
		assert.True(t, errdefs.IsDataLoss(err))
	})
}

func TestDedupeByID_LargeListWithRepeats(t *testing.T) {
	const n = 20000
	records := make([]entity.Record, 0, n+n/2)
	for i := 0; i < n; i++ {
		records = append(records, entity.Record{"id": json.Number(strconv.Itoa(i)), "name": "first"})
	}
	// every even id is sent again later with a newer name
	for i := 0; i < n; i += 2 {
		records = append(records, entity.Record{"id": strconv.Itoa(i), "name": "last"})
	}

	got := dedupeByID(entity.KindTransaction, records)

	require.Len(t, got, n)
	for i, r := range got {
		require.Equal(t, strconv.Itoa(i), r.ID(), "first-seen order is kept")
		want := "first"
		if i%2 == 0 {
			want = "last"
		}
		require.Equal(t, want, r["name"])
	}
}

func TestNewHTTPGateway_RejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPGateway("/api", nil, nil, nil)
	assert.Error(t, err)
}

func TestEndpointsFromConfig(t *testing.T) {
	eps, err := EndpointsFromConfig(map[string]config.EndpointConfig{
		"customer": {Base: "/clients", Encoding: config.EncodingJSON},
		"tank":     {Encoding: config.EncodingMultipart},
	})
	require.NoError(t, err)

	assert.Equal(t, Endpoint{Base: "/clients", Encoding: EncodingJSON}, eps[entity.KindCustomer])
	assert.Equal(t, Endpoint{Base: "/tanks", Encoding: EncodingMultipart}, eps[entity.KindTank])
	assert.Equal(t, DefaultEndpoints()[entity.KindPump], eps[entity.KindPump])
	assert.Equal(t, "/clients/delete", eps[entity.KindCustomer].MutationPath(ActionDelete))

	_, err = EndpointsFromConfig(map[string]config.EndpointConfig{"boat": {Base: "/boats"}})
	assert.Error(t, err)
	_, err = EndpointsFromConfig(map[string]config.EndpointConfig{"pump": {Base: "pumps"}})
	assert.Error(t, err)
	_, err = EndpointsFromConfig(map[string]config.EndpointConfig{"pump": {Encoding: "xml"}})
	assert.Error(t, err)
}
