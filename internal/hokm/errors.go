package hokm

import (
	"fmt"

	"github.com/hokmgame/server/internal/rules"
)

// ErrorCode is the closed, stable set of values serialized onto the wire
// error message's code field. Clients switch on this, never on Error().
type ErrorCode string

const (
	CodeNotYourTurn             ErrorCode = "not_your_turn"
	CodeOnlyHakemMayChooseTrump ErrorCode = "only_hakem_may_choose_trump"
	CodeInvalidTrump            ErrorCode = "invalid_trump"
	CodeNotInHand               ErrorCode = "not_in_hand"
	CodeMustFollowSuit          ErrorCode = "must_follow_suit"
	CodeIllegalPhase            ErrorCode = "illegal_phase"
	CodeRoomFull                ErrorCode = "room_full"
	CodeUnknownPlayer           ErrorCode = "unknown_player"
	CodeCorruptState            ErrorCode = "corrupt_state"
)

// TurnAction distinguishes which action a NotYourTurnError was rejected
// for, since the two cases carry different wire codes.
type TurnAction string

const (
	ActionChooseTrump TurnAction = "choose_trump"
	ActionPlayCard    TurnAction = "play_card"
)

// NotYourTurnError is returned when a message is attributed to a Player who
// is not the one authorized to act: the current-turn Player for a play, or
// the hakem for a trump choice. Action records which of the two it was, so
// the wire code can distinguish only_hakem_may_choose_trump from
// not_your_turn.
type NotYourTurnError struct {
	PlayerID string
	Action   TurnAction
}

func (e *NotYourTurnError) Error() string {
	return fmt.Sprintf("hokm: %s is not authorized to act right now", e.PlayerID)
}

func (e *NotYourTurnError) Code() ErrorCode {
	if e.Action == ActionChooseTrump {
		return CodeOnlyHakemMayChooseTrump
	}
	return CodeNotYourTurn
}

// IllegalPhaseError is returned when an action is attempted in a Phase that
// does not permit it. Phase is included so the client can re-synchronize.
type IllegalPhaseError struct {
	Phase Phase
}

func (e *IllegalPhaseError) Error() string {
	return fmt.Sprintf("hokm: action not permitted in phase %s", e.Phase)
}

func (e *IllegalPhaseError) Code() ErrorCode { return CodeIllegalPhase }

// InvalidTrumpError is returned when choose-trump names a suit outside the
// four valid suits.
type InvalidTrumpError struct {
	Suit string
}

func (e *InvalidTrumpError) Error() string {
	return fmt.Sprintf("hokm: %q is not a valid trump suit", e.Suit)
}

func (e *InvalidTrumpError) Code() ErrorCode { return CodeInvalidTrump }

// IllegalCardError wraps a rule-level rejection (not_in_hand,
// must_follow_suit) with the led suit context a client needs to re-prompt.
type IllegalCardError struct {
	Reason  rules.IllegalReason
	LedSuit string
}

func (e *IllegalCardError) Error() string {
	return fmt.Sprintf("hokm: illegal card play: %s", e.Reason)
}

func (e *IllegalCardError) Code() ErrorCode {
	switch e.Reason {
	case rules.MustFollowSuit:
		return CodeMustFollowSuit
	default:
		return CodeNotInHand
	}
}

// RoomFullError is returned by Join when four Players are already seated
// and the joining identity is not one of them.
type RoomFullError struct{}

func (e *RoomFullError) Error() string { return "hokm: room already has four players" }

func (e *RoomFullError) Code() ErrorCode { return CodeRoomFull }

// UnknownPlayerError is returned when an action names a player_id that is
// not seated in the Room.
type UnknownPlayerError struct {
	PlayerID string
}

func (e *UnknownPlayerError) Error() string {
	return fmt.Sprintf("hokm: %s is not seated in this room", e.PlayerID)
}

func (e *UnknownPlayerError) Code() ErrorCode { return CodeUnknownPlayer }
