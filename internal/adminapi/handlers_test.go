package adminapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	rooms       int
	connections int
}

func (f fakeStats) RoomCount() int       { return f.rooms }
func (f fakeStats) ConnectionCount() int { return f.connections }

func TestHealthReturns200(t *testing.T) {
	h := NewHandler(fakeStats{}, http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyReportsStats(t *testing.T) {
	h := NewHandler(fakeStats{rooms: 3, connections: 11}, http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	h.Ready(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body["rooms"])
	assert.EqualValues(t, 11, body["connections"])
}

func TestMuxNotFoundReturnsProblem(t *testing.T) {
	mux := NewMux()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Not Found", p.Message)
}

func TestJSONContentTypeMiddlewareSetsHeader(t *testing.T) {
	mux := NewMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		JSONOk(w, map[string]string{"pong": "ok"})
	})
	mux.Add(NewJSONContentTypeMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, ApplicationJSONContentType, rec.Header().Get(ContentType))
}
