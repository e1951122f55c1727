package adminapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterMiddlewareBlocksAfterBudgetExhausted(t *testing.T) {
	mw := NewRateLimiterMiddleware(2, 1)
	calls := 0
	wrapped := mw.Wrap(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		r.RemoteAddr = "203.0.113.5:4444"
		return r
	}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		wrapped(rec, req())
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	wrapped(rec, req())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, calls)
}

func TestRateLimiterMiddlewareTracksCallersIndependently(t *testing.T) {
	mw := NewRateLimiterMiddleware(1, 1)
	wrapped := mw.Wrap(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	reqFor := func(ip string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		r.RemoteAddr = ip + ":4444"
		return r
	}

	rec1 := httptest.NewRecorder()
	wrapped(rec1, reqFor("203.0.113.1"))
	assert.Equal(t, http.StatusOK, rec1.Code)

	rec2 := httptest.NewRecorder()
	wrapped(rec2, reqFor("203.0.113.2"))
	assert.Equal(t, http.StatusOK, rec2.Code, "a different caller IP must not share the first caller's exhausted bucket")
}
