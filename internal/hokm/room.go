// Package hokm implements the per-room authoritative state machine: room
// lifecycle, deal phases, trick play, and scoring. All mutation methods on
// Room are synchronous and assume single-writer discipline is enforced by
// the caller (the coordinator package's per-room actor); Room itself only
// guards against concurrent reads (e.g. a snapshot taken for persistence
// while a transition is mid-flight) with an RWMutex.
package hokm

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/hokmgame/server/internal/cards"
	"github.com/hokmgame/server/internal/players"
	"github.com/hokmgame/server/internal/rules"
	"sync"
)

type Phase string

const (
	PhaseLobby          Phase = "lobby"
	PhaseTeamAssignment Phase = "team-assignment"
	PhaseInitialDeal    Phase = "initial-deal"
	PhaseTrumpSelection Phase = "trump-selection"
	PhaseFinalDeal      Phase = "final-deal"
	PhasePlaying        Phase = "playing"
	PhaseHandComplete   Phase = "hand-complete"
	PhaseGameComplete   Phase = "game-complete"
	PhaseAbandoned      Phase = "abandoned"
)

type ConnectionStatus string

const (
	StatusActive       ConnectionStatus = "active"
	StatusDisconnected ConnectionStatus = "disconnected"
)

const (
	tricksToWinRound = 7
	maxTricksInRound = 13
	roundWinsToWin   = 7
	initialHandSize  = 5
	finalHandSize    = 8
)

// Player is a seated Room member. The Room is the sole owner of Player
// records; connections reference a Player only by ID (see ConnectionRegistry).
type Player struct {
	ID            string           `json:"id"`
	DisplayName   string           `json:"display_name"`
	Team          int              `json:"team"`
	Seat          int              `json:"seat"`
	Hand          []cards.Card     `json:"hand"`
	Status        ConnectionStatus `json:"status"`
	LastHeartbeat time.Time        `json:"last_heartbeat"`
}

// Trick is one cycle of up to four plays.
type Trick struct {
	Plays   []rules.Play `json:"plays"`
	LedSuit cards.Suit   `json:"led_suit"`
	Closed  bool         `json:"closed"`
}

// Round holds everything scoped to one fresh 13-card deal.
type Round struct {
	Trump        cards.Suit `json:"trump"`
	HakemID      string     `json:"hakem_id"`
	TrickCounts  Score      `json:"trick_counts"`
	ClosedTricks []Trick    `json:"closed_tricks"`
	CurrentTrick Trick      `json:"current_trick"`
}

// Game is a Room's lifetime container of Rounds.
type Game struct {
	Rounds    []Round `json:"rounds"`
	RoundWins Score   `json:"round_wins"`
}

// CurrentRound returns a pointer to the in-progress Round, or nil if no
// Round has started yet.
func (g *Game) CurrentRound() *Round {
	if len(g.Rounds) == 0 {
		return nil
	}
	return &g.Rounds[len(g.Rounds)-1]
}

// Room is the authoritative per-room state machine.
type Room struct {
	mu sync.RWMutex

	Code         string
	Players      [4]*Player // indexed by seat; nil until that seat is filled
	JoinOrder    []string
	Phase        Phase
	CurrentTurn  string
	Game         Game
	CreatedAt    time.Time
	LastActivity time.Time

	// pendingDeck holds the remainder of the deck between initial and
	// final deal; it belongs to the Room's transient dealing process
	// rather than to the Round's durable record, but must still be
	// carried across a persisted snapshot so a restarted server can
	// resume a Room caught between initial-deal and final-deal.
	pendingDeck cards.Deck

	idGen players.IDGenerator
}

func NewRoom(code string, idGen players.IDGenerator, now time.Time) *Room {
	return &Room{
		Code:         code,
		Phase:        PhaseLobby,
		CreatedAt:    now,
		LastActivity: now,
		idGen:        idGen,
	}
}

func (r *Room) findPlayerLocked(id string) *Player {
	for _, p := range r.Players {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) seatedCountLocked() int {
	n := 0
	for _, p := range r.Players {
		if p != nil {
			n++
		}
	}
	return n
}

// Join seats a new Player (playerID empty) or reattaches a previously
// seated one (playerID non-empty, known). Reattachment is permitted in any
// phase, terminal ones included; fresh seating is permitted only in PhaseLobby while
// fewer than four seats are filled.
func (r *Room) Join(playerID, displayName string, now time.Time) (assignedID string, seat int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != "" {
		if p := r.findPlayerLocked(playerID); p != nil {
			p.Status = StatusActive
			p.LastHeartbeat = now
			r.LastActivity = now
			return p.ID, p.Seat, nil
		}
		if r.Phase != PhaseLobby {
			return "", 0, &UnknownPlayerError{PlayerID: playerID}
		}
	}

	if r.Phase != PhaseLobby {
		return "", 0, &IllegalPhaseError{Phase: r.Phase}
	}
	if r.seatedCountLocked() >= 4 {
		return "", 0, &RoomFullError{}
	}

	seat = r.seatedCountLocked()
	id := playerID
	if id == "" {
		id = r.idGen.GenerateID()
	}
	p := &Player{
		ID:            id,
		DisplayName:   displayName,
		Team:          seat % 2,
		Seat:          seat,
		Status:        StatusActive,
		LastHeartbeat: now,
	}
	r.Players[seat] = p
	r.JoinOrder = append(r.JoinOrder, id)
	r.LastActivity = now

	if r.seatedCountLocked() == 4 {
		r.Phase = PhaseTeamAssignment
		if err := r.startFirstRoundLocked(now); err != nil {
			return "", 0, err
		}
	}
	return id, seat, nil
}

func randomSeat() int {
	n, err := rand.Int(rand.Reader, big.NewInt(4))
	if err != nil {
		panic("hokm: crypto/rand unavailable: " + err.Error())
	}
	return int(n.Int64())
}

func (r *Room) startFirstRoundLocked(now time.Time) error {
	hakemSeat := randomSeat()
	return r.beginRoundLocked(r.Players[hakemSeat].ID, now)
}

func (r *Room) beginRoundLocked(hakemID string, now time.Time) error {
	r.Phase = PhaseInitialDeal
	deck := cards.FreshShuffledDeck()

	hakem := r.findPlayerLocked(hakemID)
	order := seatOrderFrom(hakem.Seat)

	deck, hands, err := rules.Deal(deck, []int{initialHandSize, initialHandSize, initialHandSize, initialHandSize})
	if err != nil {
		return err
	}
	for i, seat := range order {
		r.Players[seat].Hand = append([]cards.Card(nil), hands[i]...)
	}

	round := Round{HakemID: hakemID}
	r.Game.Rounds = append(r.Game.Rounds, round)

	r.Phase = PhaseTrumpSelection
	r.pendingDeck = deck
	r.LastActivity = now
	return nil
}

func seatOrderFrom(startSeat int) []int {
	order := make([]int, 4)
	for i := range order {
		order[i] = (startSeat + i) % 4
	}
	return order
}
