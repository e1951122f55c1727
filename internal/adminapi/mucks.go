// Package adminapi is the server's operator-facing HTTP surface: health,
// readiness, room/connection counts, and the Prometheus scrape endpoint.
// It never carries game traffic, which stays on the websocket upgrade path
// in internal/hub.
package adminapi

import (
	"net/http"

	"github.com/google/uuid"
)

// Middleware wraps a handler, same contract as the teacher's http
// middleware chain: each layer decorates the next and the whole chain
// hangs off one http.HandlerFunc.
type Middleware interface {
	Wrap(handlerFunc http.HandlerFunc) http.HandlerFunc
}

// JSONContentTypeMiddleware sets the content type before delegating.
type JSONContentTypeMiddleware struct{}

func (m *JSONContentTypeMiddleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(ContentType, ApplicationJSONContentType)
		next(w, r)
	}
}

func NewJSONContentTypeMiddleware() Middleware {
	return &JSONContentTypeMiddleware{}
}

// Mux is a minimal handler chain over http.ServeMux: register routes, then
// layer middleware on top with Add.
type Mux struct {
	mux         *http.ServeMux
	handlerFunc http.HandlerFunc
}

func NewMux() *Mux {
	m := http.NewServeMux()
	mx := &Mux{mux: m}
	m.HandleFunc("/", mx.notFound)
	mx.handlerFunc = m.ServeHTTP
	return mx
}

func (m *Mux) notFound(w http.ResponseWriter, _ *http.Request) {
	p := NewNotFound()
	p.Instance = uuid.NewString()
	JSONError(w, p)
}

func (m *Mux) Add(middleware Middleware) {
	m.handlerFunc = middleware.Wrap(m.handlerFunc)
}

func (m *Mux) HandleFunc(pattern string, handler http.HandlerFunc) {
	m.mux.HandleFunc(pattern, handler)
}

func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.handlerFunc(w, r)
}
