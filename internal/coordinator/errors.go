package coordinator

import (
	"errors"

	"github.com/hokmgame/server/internal/hokm"
	"github.com/hokmgame/server/internal/store"
)

// RoomOverloadedError is returned by submit when a room's bounded inbox is
// full: the room is processing slower than messages arrive, and the
// connection should be told to back off rather than block the actor
// forever.
type RoomOverloadedError struct {
	RoomCode string
}

func (e *RoomOverloadedError) Error() string {
	return "coordinator: room " + e.RoomCode + " inbox is full"
}

// errorKind classifies an error into the taxonomy used on the wire: the
// client needs to know whether to re-prompt the user, resync, or give up.
func errorKind(err error) string {
	var (
		notYourTurn   *hokm.NotYourTurnError
		illegalPhase  *hokm.IllegalPhaseError
		invalidTrump  *hokm.InvalidTrumpError
		illegalCard   *hokm.IllegalCardError
		roomFull      *hokm.RoomFullError
		unknownPlayer *hokm.UnknownPlayerError
		corrupt       *hokm.CorruptStateError
		overloaded    *RoomOverloadedError
		unavailable   *store.StoreUnavailableError
		notFound      *store.NotFoundError
	)
	switch {
	case errors.As(err, &notYourTurn):
		return "authorization"
	case errors.As(err, &illegalPhase):
		return "phase"
	case errors.As(err, &invalidTrump), errors.As(err, &illegalCard):
		return "rule"
	case errors.As(err, &roomFull), errors.As(err, &unknownPlayer):
		return "validation"
	case errors.As(err, &corrupt):
		return "corruption"
	case errors.As(err, &overloaded):
		return "transport"
	case errors.As(err, &unavailable), errors.As(err, &notFound):
		return "store"
	default:
		return "fatal"
	}
}

// coded is implemented by every hokm sentinel error that carries a stable
// wire code (see hokm.ErrorCode); errorCode falls back to a small set of
// coordinator/store-local codes for errors outside that package.
type coded interface {
	Code() hokm.ErrorCode
}

// errorCode derives the stable error.code value the client switches on.
func errorCode(err error) string {
	var c coded
	if errors.As(err, &c) {
		return string(c.Code())
	}

	var (
		overloaded  *RoomOverloadedError
		unavailable *store.StoreUnavailableError
		notFound    *store.NotFoundError
	)
	switch {
	case errors.As(err, &overloaded):
		return "room_overloaded"
	case errors.As(err, &unavailable):
		return "store_unavailable"
	case errors.As(err, &notFound):
		return "not_found"
	default:
		return "server_error"
	}
}

// buildErrorMsg assembles the outbound error frame for err, filling
// current_phase and led_suit when the underlying error carries them so the
// client can re-synchronize or re-prompt without parsing Message text.
func buildErrorMsg(err error) errorMsg {
	msg := errorMsg{Type: "error", Kind: errorKind(err), Code: errorCode(err), Message: err.Error()}

	var illegalPhase *hokm.IllegalPhaseError
	if errors.As(err, &illegalPhase) {
		msg.CurrentPhase = string(illegalPhase.Phase)
	}

	var illegalCard *hokm.IllegalCardError
	if errors.As(err, &illegalCard) {
		msg.LedSuit = illegalCard.LedSuit
	}

	return msg
}
