package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/hokmgame/server/internal/cards"
	"github.com/hokmgame/server/internal/hokm"
	"github.com/hokmgame/server/internal/hub"
)

type jobKind int

const (
	jobJoin jobKind = iota
	jobChooseTrump
	jobPlayCard
	jobHeartbeat
	jobLeave
	jobDisconnect
)

type job struct {
	kind        jobKind
	client      *hub.Client
	playerID    string
	displayName string
	suit        cards.Suit
	card        cards.Card
}

// roomActor is the RoomCoordinator's per-room unit: a single goroutine
// draining a bounded FIFO queue, giving every Room exactly one writer and
// isolating one room's failures from every other room's.
type roomActor struct {
	code  string
	room  *hokm.Room
	inbox chan job
	co    *Coordinator

	lastSweep time.Time
}

func newRoomActor(code string, room *hokm.Room, co *Coordinator) *roomActor {
	return &roomActor{
		code:  code,
		room:  room,
		inbox: make(chan job, co.queueCapacity),
		co:    co,
	}
}

// submit enqueues j without blocking. A full inbox means this room is
// falling behind; rather than block the caller (and the hub's readPump
// goroutine with it) the submit fails so the caller can tell the client to
// back off.
func (ra *roomActor) submit(j job) error {
	select {
	case ra.inbox <- j:
		ra.co.metrics.QueueDepth.Observe(float64(len(ra.inbox)))
		return nil
	default:
		return &RoomOverloadedError{RoomCode: ra.code}
	}
}

// run drains the inbox until ctx is cancelled, and ticks periodically to
// check the turn deadline and reconnection-grace window even when no
// message arrives.
func (ra *roomActor) run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-ra.inbox:
			ra.process(j)
		case <-ticker.C:
			ra.checkTurnDeadline(ra.co.clk.Now())
			ra.checkReconnectGrace(ra.co.clk.Now())
		}
	}
}

// process handles one job with pre-image rollback: if the mutation it
// triggers leaves the Room in a state ValidateRoomInvariants rejects, the
// pre-image is restored, the originator is told the action failed, and the
// actor keeps running rather than taking the whole room down.
func (ra *roomActor) process(j job) {
	preImage, encErr := ra.room.Encode()
	if encErr != nil {
		slog.Error("coordinator: pre-image snapshot failed", "room_code", ra.code, "error", encErr)
	}

	var err error
	switch j.kind {
	case jobJoin:
		err = ra.handleJoin(j)
	case jobChooseTrump:
		err = ra.handleChooseTrump(j)
	case jobPlayCard:
		err = ra.handlePlayCard(j)
	case jobHeartbeat:
		err = ra.room.Heartbeat(j.playerID, ra.co.clk.Now())
	case jobLeave, jobDisconnect:
		err = ra.room.Detach(j.playerID, ra.co.clk.Now())
		if err == nil {
			ra.broadcast(teamAssignmentMsg{Type: "team_assignment", Players: ra.room.Public().Players})
		}
	}
	if err == nil {
		err = hokm.ValidateRoomInvariants(ra.room)
	}

	if err != nil {
		if _, isCorrupt := err.(*hokm.CorruptStateError); isCorrupt && encErr == nil {
			if restored, decErr := hokm.Decode(preImage, ra.co.idGen); decErr == nil {
				ra.room = restored
			}
		}
		ra.sendError(j.playerID, err)
		return
	}

	if encErr == nil {
		if data, err := ra.room.Encode(); err != nil {
			slog.Error("coordinator: post-mutation encode failed", "room_code", ra.code, "error", err)
		} else {
			start := time.Now()
			saveErr := ra.co.st.SaveRoomState(context.Background(), ra.code, data)
			ra.co.observeStore("save_room_state", start, saveErr)
			if saveErr != nil {
				slog.Warn("coordinator: room state save failed", "room_code", ra.code, "error", saveErr)
			}
		}
	}
}
