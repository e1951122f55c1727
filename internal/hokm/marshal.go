package hokm

import (
	"encoding/json"
	"time"

	"github.com/hokmgame/server/internal/cards"
	"github.com/hokmgame/server/internal/players"
)

// roomWire is the on-the-wire/in-store shape of a Room. Room itself keeps
// an idGen dependency and a mutex that cannot round-trip through JSON, so
// encoding/decoding goes through this unexported mirror instead of an
// idiomatic MarshalJSON/UnmarshalJSON pair on Room.
type roomWire struct {
	Code         string     `json:"room_code"`
	Players      [4]*Player `json:"players"`
	JoinOrder    []string   `json:"join_order"`
	Phase        Phase      `json:"phase"`
	CurrentTurn  string     `json:"current_turn"`
	Game         Game       `json:"game"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActivity time.Time  `json:"last_activity"`
	PendingDeck  cards.Deck `json:"pending_deck"`
}

// Encode serializes the Room's full state for persistence.
func (r *Room) Encode() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return json.Marshal(roomWire{
		Code:         r.Code,
		Players:      r.Players,
		JoinOrder:    r.JoinOrder,
		Phase:        r.Phase,
		CurrentTurn:  r.CurrentTurn,
		Game:         r.Game,
		CreatedAt:    r.CreatedAt,
		LastActivity: r.LastActivity,
		PendingDeck:  r.pendingDeck,
	})
}

// Decode reconstructs a Room from a previously Encode-d blob, validating
// its invariants before returning it. idGen is re-injected because it
// cannot be part of the serialized form. A non-nil error is a
// *CorruptStateError; the coordinator then does not resume this room and
// clears the record from the store without archiving it.
func Decode(data []byte, idGen players.IDGenerator) (*Room, error) {
	var w roomWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &CorruptStateError{Reason: "invalid JSON: " + err.Error()}
	}

	r := &Room{
		Code:         w.Code,
		Players:      w.Players,
		JoinOrder:    w.JoinOrder,
		Phase:        w.Phase,
		CurrentTurn:  w.CurrentTurn,
		Game:         w.Game,
		CreatedAt:    w.CreatedAt,
		LastActivity: w.LastActivity,
		pendingDeck:  w.PendingDeck,
		idGen:        idGen,
	}
	if err := ValidateRoomInvariants(r); err != nil {
		return nil, err
	}
	return r, nil
}
