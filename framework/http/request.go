package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/km-arc/go-inject/framework/injector"
)

// Request wraps *http.Request for injected handlers, which receive it under
// the name "request".
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// Bind decodes a JSON request body into v.
func (req *Request) Bind(v any) error {
	if err := render.DecodeJSON(req.raw.Body, v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

// BindOverrides decodes a JSON object into injector overrides. Keys that
// are integers address parameters by index, any other key by name.
//
//	{"0": 40, "dsn": "sqlite://memory"}
func (req *Request) BindOverrides() (injector.Overrides, error) {
	var body map[string]any
	if err := req.Bind(&body); err != nil {
		return nil, err
	}
	ov := make(injector.Overrides, len(body))
	for k, v := range body {
		if i, err := strconv.Atoi(k); err == nil {
			ov[i] = v
			continue
		}
		ov[k] = v
	}
	return ov, nil
}

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

func (req *Request) Method() string { return req.raw.Method }
func (req *Request) Path() string   { return req.raw.URL.Path }
