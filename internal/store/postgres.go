package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/lib/pq"
)

// PostgresStore stands in for the external key-value store: no Redis or
// memcache client is available to ground this on, but lib/pq plus
// expires_at columns gives the same TTL-with-refresh-on-write contract.
// An LRU cache sits in front of room-state reads, the same cache-aside
// shape as a URL shortener's redirect path.
type PostgresStore struct {
	db          *sql.DB
	roomCache   *lru.Cache[string, []byte]
	roomTTL     time.Duration
	sessionTTL  time.Duration
}

type PostgresConfig struct {
	ConnectionString string
	RoomCacheSize    int
	RoomTTL          time.Duration
	SessionTTL       time.Duration
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("store: opening postgres: %w", err)
	}

	cacheSize := cfg.RoomCacheSize
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("store: creating room cache: %w", err)
	}

	roomTTL := cfg.RoomTTL
	if roomTTL <= 0 {
		roomTTL = DefaultRoomTTL
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}

	return &PostgresStore{db: db, roomCache: cache, roomTTL: roomTTL, sessionTTL: sessionTTL}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// withRetry implements the store's retry policy: initial 100ms, factor 2,
// cap 5s, at least 3 attempts, before surfacing StoreUnavailableError.
func withRetry(ctx context.Context, attempts int, op func() error) error {
	if attempts < 3 {
		attempts = 3
	}
	backoff := 100 * time.Millisecond
	const cap = 5 * time.Second

	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return &StoreUnavailableError{Cause: ctx.Err()}
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > cap {
			backoff = cap
		}
	}
	return &StoreUnavailableError{Cause: lastErr}
}

func (s *PostgresStore) SaveRoomState(ctx context.Context, roomCode string, state []byte) error {
	err := withRetry(ctx, 3, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT INTO room_state (room_code, data, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (room_code) DO UPDATE SET data = $2, expires_at = $3`,
			roomCode, state, time.Now().UTC().Add(s.roomTTL))
		return execErr
	})
	if err != nil {
		// No degraded flag is kept on the room; the error is only logged
		// and returned to the caller.
		slog.Warn("store: save_room_state failed after retries", "room_code", roomCode, "error", err)
		return err
	}
	s.roomCache.Add(roomCode, append([]byte(nil), state...))
	return nil
}

func (s *PostgresStore) LoadRoomState(ctx context.Context, roomCode string) ([]byte, error) {
	if data, ok := s.roomCache.Get(roomCode); ok {
		return data, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT data FROM room_state WHERE room_code = $1 AND expires_at > now()`, roomCode)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Key: "room:" + roomCode + ":state"}
		}
		return nil, &StoreUnavailableError{Cause: err}
	}
	s.roomCache.Add(roomCode, data)
	return data, nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, playerID string, fields SessionFields) error {
	return withRetry(ctx, 3, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO player_session (player_id, room_code, status, last_heartbeat, seat, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (player_id) DO UPDATE SET
				room_code = $2, status = $3, last_heartbeat = $4, seat = $5, expires_at = $6`,
			playerID, fields.RoomCode, fields.Status, fields.LastHeartbeat, fields.Seat,
			time.Now().UTC().Add(s.sessionTTL))
		return err
	})
}

// TouchHeartbeat updates last_heartbeat and refreshes expires_at; it never
// rewrites room_code, status, or seat.
func (s *PostgresStore) TouchHeartbeat(ctx context.Context, playerID string, at time.Time) error {
	return withRetry(ctx, 3, func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE player_session SET last_heartbeat = $1, expires_at = $2 WHERE player_id = $3`,
			at, at.Add(s.sessionTTL), playerID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrSessionMissing
		}
		return nil
	})
}

func (s *PostgresStore) LoadSession(ctx context.Context, playerID string) (SessionFields, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT room_code, status, last_heartbeat, seat FROM player_session WHERE player_id = $1`, playerID)
	var fields SessionFields
	if err := row.Scan(&fields.RoomCode, &fields.Status, &fields.LastHeartbeat, &fields.Seat); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionFields{}, &NotFoundError{Key: "session:" + playerID}
		}
		return SessionFields{}, &StoreUnavailableError{Cause: err}
	}
	return fields, nil
}

func (s *PostgresStore) ValidateSession(ctx context.Context, playerID string, heartbeatInterval time.Duration) (SessionStatus, error) {
	row := s.db.QueryRowContext(ctx, `SELECT expires_at FROM player_session WHERE player_id = $1`, playerID)
	var expiresAt time.Time
	if err := row.Scan(&expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionMissing, nil
		}
		return "", &StoreUnavailableError{Cause: err}
	}

	now := time.Now().UTC()
	if now.Before(expiresAt) {
		return SessionValid, nil
	}
	if now.Before(expiresAt.Add(2 * heartbeatInterval)) {
		return SessionRecoverable, nil
	}
	return SessionExpired, nil
}

func (s *PostgresStore) MarkDisconnected(ctx context.Context, playerID string) error {
	return withRetry(ctx, 3, func() error {
		_, err := s.db.ExecContext(ctx, `UPDATE player_session SET status = 'disconnected' WHERE player_id = $1`, playerID)
		return err
	})
}

func (s *PostgresStore) DeleteSession(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM player_session WHERE player_id = $1`, playerID)
	return err
}

func (s *PostgresStore) ClearRoom(ctx context.Context, roomCode string) error {
	s.roomCache.Remove(roomCode)
	_, err := s.db.ExecContext(ctx, `DELETE FROM room_state WHERE room_code = $1`, roomCode)
	return err
}

// SweepExpired deletes rows past their TTL. The store itself does not
// schedule it, mirroring the teacher's own DAO types which never own a
// ticker, and cmd/hokmd does not call it either.
func (s *PostgresStore) SweepExpired(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM room_state WHERE expires_at <= now()`); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM player_session WHERE expires_at <= now()`)
	return err
}
