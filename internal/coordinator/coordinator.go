// Package coordinator is the RoomCoordinator: one actor goroutine per room,
// each draining its own bounded FIFO queue, so one overloaded or buggy room
// can never starve or corrupt another. It is the game-aware half split out
// of the teacher's fused hub — internal/hub only moves bytes and tracks
// identity; this package owns everything that touches a Room.
package coordinator

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/hokmgame/server/internal/clock"
	"github.com/hokmgame/server/internal/hokm"
	"github.com/hokmgame/server/internal/hub"
	"github.com/hokmgame/server/internal/metrics"
	"github.com/hokmgame/server/internal/players"
	"github.com/hokmgame/server/internal/store"
)

const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Config holds the tunables the spec exposes as server configuration.
type Config struct {
	TurnTimeout       time.Duration
	ReconnectGrace    time.Duration
	HeartbeatInterval time.Duration
	RoomQueueCapacity int
}

func DefaultConfig() Config {
	return Config{
		TurnTimeout:       60 * time.Second,
		ReconnectGrace:    5 * time.Minute,
		HeartbeatInterval: 30 * time.Second,
		RoomQueueCapacity: 256,
	}
}

// Coordinator owns every room actor and is the hub.InboundHandler that
// turns parsed websocket frames into Room mutations.
type Coordinator struct {
	mu    sync.Mutex
	rooms map[string]*roomActorHandle

	reg   *hub.Registry
	st    store.Store
	clk   clock.Clock
	metrics *metrics.Registry
	idGen players.IDGenerator

	turnTimeout       time.Duration
	reconnectGrace    time.Duration
	heartbeatInterval time.Duration
	queueCapacity     int
}

type roomActorHandle struct {
	actor  *roomActor
	cancel context.CancelFunc
}

func NewCoordinator(reg *hub.Registry, st store.Store, clk clock.Clock, m *metrics.Registry, idGen players.IDGenerator, cfg Config) *Coordinator {
	return &Coordinator{
		rooms:             make(map[string]*roomActorHandle),
		reg:               reg,
		st:                st,
		clk:               clk,
		metrics:           m,
		idGen:             idGen,
		turnTimeout:       cfg.TurnTimeout,
		reconnectGrace:    cfg.ReconnectGrace,
		heartbeatInterval: cfg.HeartbeatInterval,
		queueCapacity:     cfg.RoomQueueCapacity,
	}
}

func (co *Coordinator) sessionFields(roomCode, playerID string, seat int) store.SessionFields {
	return store.SessionFields{RoomCode: roomCode, Status: "active", LastHeartbeat: co.clk.Now(), Seat: seat}
}

func newRoomCode() string {
	buf := make([]byte, 4)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeAlphabet))))
		if err != nil {
			panic("coordinator: crypto/rand unavailable: " + err.Error())
		}
		buf[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(buf)
}

// roomFor returns the actor for roomCode, restoring it from persisted state
// or creating a fresh Room if none exists yet.
func (co *Coordinator) roomFor(roomCode string) *roomActor {
	co.mu.Lock()
	defer co.mu.Unlock()

	if h, ok := co.rooms[roomCode]; ok {
		return h.actor
	}

	room := co.restoreOrCreateRoom(roomCode)
	actor := newRoomActor(roomCode, room, co)
	ctx, cancel := context.WithCancel(context.Background())
	co.rooms[roomCode] = &roomActorHandle{actor: actor, cancel: cancel}
	go actor.run(ctx)
	co.metrics.RoomsActive.Set(float64(len(co.rooms)))
	return actor
}

// restoreOrCreateRoom is what makes reconnection after a server restart (or
// simply an in-memory map miss, right after boot) transparent: the first
// message naming an existing room code reconstructs it from SessionStore
// rather than silently handing back an empty lobby. A persisted record that
// fails ValidateRoomInvariants is quarantined (cleared from the store,
// never resumed) rather than trusted, per the corruption failure mode.
func (co *Coordinator) restoreOrCreateRoom(roomCode string) *hokm.Room {
	start := time.Now()
	data, err := co.st.LoadRoomState(context.Background(), roomCode)
	co.metrics.StoreLatency.WithLabelValues("load_room_state").Observe(time.Since(start).Seconds())

	var notFound *store.NotFoundError
	switch {
	case err == nil:
		room, decErr := hokm.Decode(data, co.idGen)
		if decErr == nil {
			co.metrics.StoreOperations.WithLabelValues("load_room_state", "restored").Inc()
			return room
		}
		var corrupt *hokm.CorruptStateError
		if errors.As(decErr, &corrupt) {
			slog.Error("coordinator: persisted room state failed invariants; quarantining", "room_code", roomCode, "error", corrupt)
			co.metrics.StoreOperations.WithLabelValues("load_room_state", "corrupt").Inc()
			if clearErr := co.st.ClearRoom(context.Background(), roomCode); clearErr != nil {
				slog.Warn("coordinator: quarantine clear_room failed", "room_code", roomCode, "error", clearErr)
			}
		} else {
			slog.Error("coordinator: decode of persisted room state failed", "room_code", roomCode, "error", decErr)
			co.metrics.StoreOperations.WithLabelValues("load_room_state", "error").Inc()
		}
	case errors.As(err, &notFound):
		co.metrics.StoreOperations.WithLabelValues("load_room_state", "not_found").Inc()
	default:
		slog.Warn("coordinator: load_room_state failed; starting a fresh room", "room_code", roomCode, "error", err)
		co.metrics.StoreOperations.WithLabelValues("load_room_state", "unavailable").Inc()
	}

	return hokm.NewRoom(roomCode, co.idGen, co.clk.Now())
}

// HandleInbound implements hub.InboundHandler. A connection with no
// existing binding may only authenticate or join (fresh, or rejoining with
// a known player_id); a bound connection is routed to its room's actor.
func (co *Coordinator) HandleInbound(c *hub.Client, data []byte) {
	msg, err := decodeInbound(data)
	if err != nil {
		co.sendRaw(c, errorMsg{Type: "error", Kind: "validation", Code: "bad_message", Message: err.Error()})
		return
	}

	playerID, roomCode, bindErr := co.reg.FindByConnection(c)
	if bindErr != nil {
		switch m := msg.(type) {
		case authenticateMsg:
			co.metrics.InboundMessages.WithLabelValues("authenticate").Inc()
			co.handleAuthenticate(c, m)
		case joinMsg:
			code := m.RoomCode
			if code == "" {
				code = newRoomCode()
			}
			actor := co.roomFor(code)
			co.metrics.InboundMessages.WithLabelValues("join").Inc()
			if err := actor.submit(job{kind: jobJoin, client: c, playerID: m.PlayerID, displayName: m.DisplayName}); err != nil {
				co.sendRaw(c, errorMsg{Type: "error", Kind: "transport", Code: errorCode(err), Message: err.Error()})
			}
		default:
			co.sendRaw(c, errorMsg{Type: "error", Kind: "session", Code: "unauthenticated", Message: "must authenticate or join before sending other messages"})
		}
		return
	}

	actor := co.roomFor(roomCode)
	j, typeName, convErr := toJob(msg, playerID)
	if convErr != nil {
		co.sendRaw(c, errorMsg{Type: "error", Kind: "validation", Code: "bad_message", Message: convErr.Error()})
		return
	}
	co.metrics.InboundMessages.WithLabelValues(typeName).Inc()
	if err := actor.submit(j); err != nil {
		co.sendRaw(c, errorMsg{Type: "error", Kind: "transport", Code: errorCode(err), Message: err.Error()})
	}
}

// HandleDisconnect implements hub.InboundHandler.
func (co *Coordinator) HandleDisconnect(c *hub.Client) {
	playerID, roomCode, ok := co.reg.Detach(c)
	if !ok || roomCode == "" {
		return
	}
	co.mu.Lock()
	h, exists := co.rooms[roomCode]
	co.mu.Unlock()
	if !exists {
		return
	}
	if err := h.actor.submit(job{kind: jobDisconnect, playerID: playerID}); err != nil {
		slog.Warn("coordinator: disconnect notification dropped", "room_code", roomCode, "player_id", playerID, "error", err)
	}
}

// handleAuthenticate resolves a bare session token to the room it belongs
// to, so a client that persisted only the token (not the room code) can
// send a well-formed join next. It never attaches the connection itself:
// attachment only happens once the client follows up with join.
func (co *Coordinator) handleAuthenticate(c *hub.Client, m authenticateMsg) {
	start := time.Now()
	fields, err := co.st.LoadSession(context.Background(), m.SessionToken)
	co.observeStore("load_session", start, err)
	if err != nil {
		co.sendRaw(c, errorMsg{Type: "error", Kind: "session", Code: "unknown_session", Message: "unknown or expired session token"})
		return
	}
	co.sendRaw(c, authenticatedMsg{Type: "authenticated", PlayerID: m.SessionToken, RoomCode: fields.RoomCode})
}

func (co *Coordinator) sendRaw(c *hub.Client, msg any) {
	select {
	case c.Send <- mustEncode(msg):
	default:
	}
}

// RoomCount implements adminapi.Stats.
func (co *Coordinator) RoomCount() int {
	co.mu.Lock()
	defer co.mu.Unlock()
	return len(co.rooms)
}

// DebugRoomInfo is one room's entry in the /debug/rooms operator surface:
// enough to see what's live without exposing any Player's hand.
type DebugRoomInfo struct {
	RoomCode    string `json:"room_code"`
	Phase       string `json:"phase"`
	Players     int    `json:"players"`
	CurrentTurn string `json:"current_turn,omitempty"`
	RoundNumber int    `json:"round_number"`
}

// DebugRooms implements adminapi.DebugStats, returning every live room
// sorted by code for a stable operator view. Declared to return any so
// internal/adminapi can depend on the method without importing this
// package's DebugRoomInfo type.
func (co *Coordinator) DebugRooms() any {
	co.mu.Lock()
	handles := make(map[string]*roomActorHandle, len(co.rooms))
	codes := make([]string, 0, len(co.rooms))
	for code, h := range co.rooms {
		handles[code] = h
		codes = append(codes, code)
	}
	co.mu.Unlock()

	sort.Strings(codes)
	infos := make([]DebugRoomInfo, 0, len(codes))
	for _, code := range codes {
		view := handles[code].actor.room.Public()
		infos = append(infos, DebugRoomInfo{
			RoomCode:    view.RoomCode,
			Phase:       string(view.Phase),
			Players:     len(view.Players),
			CurrentTurn: view.CurrentTurn,
			RoundNumber: view.RoundNumber,
		})
	}
	return infos
}

// ConnectionCount implements adminapi.Stats.
func (co *Coordinator) ConnectionCount() int {
	return co.reg.ConnectionCount()
}

// Shutdown saves every room's current state under ctx and then stops its
// actor. Jobs still queued in an actor's inbox are not processed, and
// connections are not closed or sent a shutdown code here.
func (co *Coordinator) Shutdown(ctx context.Context) {
	co.mu.Lock()
	handles := make([]*roomActorHandle, 0, len(co.rooms))
	for _, h := range co.rooms {
		handles = append(handles, h)
	}
	co.mu.Unlock()

	for _, h := range handles {
		if data, err := h.actor.room.Encode(); err == nil {
			start := time.Now()
			saveErr := co.st.SaveRoomState(ctx, h.actor.code, data)
			co.observeStore("save_room_state", start, saveErr)
			if saveErr != nil {
				slog.Warn("coordinator: shutdown save failed", "room_code", h.actor.code, "error", saveErr)
			}
		}
		h.cancel()
	}
}

// observeStore records a SessionStore round trip's outcome and latency
// against the suspension points named in the concurrency model: every
// store call the coordinator makes passes through here.
func (co *Coordinator) observeStore(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) {
			outcome = "not_found"
		}
	}
	co.metrics.StoreOperations.WithLabelValues(op, outcome).Inc()
	co.metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
