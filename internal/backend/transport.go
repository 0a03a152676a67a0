package backend

import (
	"net/http"
	"net/http/httptest"
)

// handlerTransport delivers requests straight to an http.Handler, so the
// gateway's encode and parse path runs without opening a socket.
type handlerTransport struct {
	handler http.Handler
}

// NewTransport returns a RoundTripper that serves every request with h.
func NewTransport(h http.Handler) http.RoundTripper {
	return &handlerTransport{handler: h}
}

func (t *handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	// the handler may parse forms into the request; keep the caller's copy untouched
	inbound := req.Clone(req.Context())
	inbound.RequestURI = req.URL.RequestURI()
	inbound.RemoteAddr = "memory"

	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, inbound)

	resp := rec.Result()
	resp.Request = req
	return resp, nil
}
