package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoomState(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	err := s.SaveRoomState(ctx, "ABCD", []byte(`{"phase":"lobby"}`))
	require.NoError(t, err)

	data, err := s.LoadRoomState(ctx, "ABCD")
	require.NoError(t, err)
	assert.Equal(t, `{"phase":"lobby"}`, string(data))
}

func TestLoadRoomStateMissingReturnsNotFound(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.LoadRoomState(context.Background(), "NOPE")
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestLoadRoomStateExpired(t *testing.T) {
	s := NewInMemoryStore()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	s.roomTTL = time.Minute

	require.NoError(t, s.SaveRoomState(context.Background(), "ABCD", []byte("x")))

	s.now = func() time.Time { return fixed.Add(2 * time.Minute) }
	_, err := s.LoadRoomState(context.Background(), "ABCD")
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSessionLifecycle(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, "p1", SessionFields{RoomCode: "ABCD", Status: "active", Seat: 0}))

	status, err := s.ValidateSession(ctx, "p1", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, SessionValid, status)

	require.NoError(t, s.TouchHeartbeat(ctx, "p1", time.Now().UTC()))
	require.NoError(t, s.MarkDisconnected(ctx, "p1"))
	require.NoError(t, s.DeleteSession(ctx, "p1"))

	status, err = s.ValidateSession(ctx, "p1", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, SessionMissing, status)
}

func TestLoadSessionReturnsSavedFields(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.SaveSession(ctx, "p1", SessionFields{RoomCode: "ABCD", Status: "active", Seat: 2}))

	fields, err := s.LoadSession(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "ABCD", fields.RoomCode)
	assert.Equal(t, 2, fields.Seat)
}

func TestLoadSessionMissingReturnsNotFound(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.LoadSession(context.Background(), "ghost")
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestLoadSessionExpiredReturnsNotFound(t *testing.T) {
	s := NewInMemoryStore()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	s.sessTTL = time.Minute
	require.NoError(t, s.SaveSession(context.Background(), "p1", SessionFields{RoomCode: "ABCD"}))

	s.now = func() time.Time { return fixed.Add(2 * time.Minute) }
	_, err := s.LoadSession(context.Background(), "p1")
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestTouchHeartbeatMissingSessionErrors(t *testing.T) {
	s := NewInMemoryStore()
	err := s.TouchHeartbeat(context.Background(), "ghost", time.Now())
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestValidateSessionRecoverableWindow(t *testing.T) {
	s := NewInMemoryStore()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	s.sessTTL = time.Minute

	require.NoError(t, s.SaveSession(context.Background(), "p1", SessionFields{RoomCode: "ABCD"}))

	s.now = func() time.Time { return fixed.Add(90 * time.Second) }
	status, err := s.ValidateSession(context.Background(), "p1", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, SessionRecoverable, status)

	s.now = func() time.Time { return fixed.Add(10 * time.Minute) }
	status, err = s.ValidateSession(context.Background(), "p1", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, SessionExpired, status)
}

func TestClearRoom(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.SaveRoomState(ctx, "ABCD", []byte("x")))
	require.NoError(t, s.ClearRoom(ctx, "ABCD"))
	_, err := s.LoadRoomState(ctx, "ABCD")
	require.Error(t, err)
}
