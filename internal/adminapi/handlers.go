package adminapi

import (
	"net/http"
	"time"
)

// Stats is the minimal view the admin surface needs from the rest of the
// server; internal/coordinator implements it without adminapi needing to
// import coordinator's heavier dependency graph.
type Stats interface {
	RoomCount() int
	ConnectionCount() int
}

// DebugStats is implemented by internal/coordinator to back /debug/rooms.
// The return type is left as any so this package never needs to import
// coordinator's DebugRoomInfo struct.
type DebugStats interface {
	DebugRooms() any
}

type Handler struct {
	stats   Stats
	debug   DebugStats
	metrics http.Handler
}

func NewHandler(stats Stats, metrics http.Handler) *Handler {
	h := &Handler{stats: stats, metrics: metrics}
	if d, ok := stats.(DebugStats); ok {
		h.debug = d
	}
	return h
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	JSONOk(w, map[string]string{
		"status":    "healthy",
		"service":   "hokm-server",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	JSONOk(w, map[string]any{
		"status":      "ready",
		"rooms":       h.stats.RoomCount(),
		"connections": h.stats.ConnectionCount(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// DebugRooms is an operator-only view of every live room: code, phase,
// player count, whose turn it is. Never includes a hand.
func (h *Handler) DebugRooms(w http.ResponseWriter, _ *http.Request) {
	if h.debug == nil {
		JSONOk(w, map[string]any{"rooms": []any{}})
		return
	}
	JSONOk(w, map[string]any{"rooms": h.debug.DebugRooms()})
}

// Register wires every admin route onto mux. It adds no middleware:
// cmd/hokmd layers the JSON content-type and rate-limit middleware over the
// whole mux, /metrics included, and the Prometheus handler then sets its
// own exposition content type.
func Register(mux *Mux, h *Handler) {
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)
	mux.HandleFunc("/metrics", h.Metrics)
	mux.HandleFunc("/debug/rooms", h.DebugRooms)
}
