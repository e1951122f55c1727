// Package store is the SessionStore: the persistence adapter mapping room
// and player identifiers to serialized state in an external key-value
// store with TTLs. Two implementations share the Store interface: an
// in-memory default (used for local development and every test in this
// module) and a Postgres-backed one with an LRU cache in front, for
// production.
package store

import (
	"context"
	"errors"
	"time"
)

// NotFoundError is returned by LoadRoomState when no record exists under
// the given room code.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string { return "store: not found: " + e.Key }

// StoreUnavailableError is returned after the retry budget (initial
// 100ms, factor 2, cap 5s, at least 3 attempts) is exhausted.
type StoreUnavailableError struct {
	Cause error
}

func (e *StoreUnavailableError) Error() string { return "store: unavailable: " + e.Cause.Error() }
func (e *StoreUnavailableError) Unwrap() error { return e.Cause }

const (
	DefaultRoomTTL    = 1 * time.Hour
	DefaultSessionTTL = 1 * time.Hour
)

// SessionStatus is the result of ValidateSession.
type SessionStatus string

const (
	SessionValid       SessionStatus = "valid"
	SessionRecoverable SessionStatus = "recoverable"
	SessionExpired      SessionStatus = "expired"
	SessionMissing      SessionStatus = "missing"
)

// SessionFields is the hash persisted under session:{player_id}.
type SessionFields struct {
	RoomCode      string    `json:"room_code"`
	Status        string    `json:"status"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	Seat          int       `json:"seat"`
}

// Store is the persistence adapter the RoomCoordinator depends on.
type Store interface {
	// SaveRoomState writes the full serialized room state under
	// room:{code}:state, refreshing its TTL.
	SaveRoomState(ctx context.Context, roomCode string, state []byte) error
	// LoadRoomState returns the last persisted state, or *NotFoundError.
	LoadRoomState(ctx context.Context, roomCode string) ([]byte, error)

	// SaveSession upserts a player's session hash, refreshing its TTL.
	SaveSession(ctx context.Context, playerID string, fields SessionFields) error
	// LoadSession returns the persisted fields for playerID, or
	// *NotFoundError if no session record exists. Used by the
	// authenticate handshake to resolve a reconnecting client's room
	// before it rejoins.
	LoadSession(ctx context.Context, playerID string) (SessionFields, error)
	// TouchHeartbeat updates last_heartbeat and refreshes the session TTL,
	// in O(1), without rewriting the rest of the session record.
	TouchHeartbeat(ctx context.Context, playerID string, at time.Time) error
	// ValidateSession classifies a player's session against its TTL and
	// the heartbeat-interval-based recoverability window.
	ValidateSession(ctx context.Context, playerID string, heartbeatInterval time.Duration) (SessionStatus, error)
	// MarkDisconnected sets status without deleting the record.
	MarkDisconnected(ctx context.Context, playerID string) error
	// DeleteSession tombstones a single session.
	DeleteSession(ctx context.Context, playerID string) error
	// ClearRoom tombstones a room's persisted state.
	ClearRoom(ctx context.Context, roomCode string) error
}

// ErrSessionMissing is a sentinel some Store implementations return from
// TouchHeartbeat/MarkDisconnected when no session exists; callers generally
// want the SessionStatus classification from ValidateSession instead.
var ErrSessionMissing = errors.New("store: session does not exist")
