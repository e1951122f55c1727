package hokm

import (
	"time"

	"github.com/hokmgame/server/internal/cards"
	"github.com/hokmgame/server/internal/rules"
)

// TeamCounts is the wire-normalized mapping form for per-team counters. The
// server always emits this shape; the list-vs-mapping drift on input is
// accepted by Score's UnmarshalJSON, which hokm.Decode reaches for every
// persisted counter.
type TeamCounts map[string]int

func teamCounts(counts Score) TeamCounts {
	return TeamCounts{"0": counts[0], "1": counts[1]}
}

// PublicPlayerView is everything about a Player that every Room member may
// see: never another Player's hand.
type PublicPlayerView struct {
	PlayerID    string           `json:"player_id"`
	DisplayName string           `json:"display_name"`
	Seat        int              `json:"seat"`
	Team        int              `json:"team"`
	Status      ConnectionStatus `json:"status"`
	HandSize    int              `json:"hand_size"`
}

// PublicView is the Room state any seated Player, or an observer internal
// to the server (e.g. the /debug/rooms operator view), may see without
// exposing any Player's hand.
type PublicView struct {
	RoomCode    string              `json:"room_code"`
	Phase       Phase               `json:"phase"`
	CurrentTurn string              `json:"current_turn,omitempty"`
	Players     []PublicPlayerView  `json:"players"`
	Trump       cards.Suit          `json:"trump,omitempty"`
	HakemID     string              `json:"hakem_id,omitempty"`
	LedSuit     cards.Suit          `json:"led_suit,omitempty"`
	TrickCounts TeamCounts          `json:"trick_counts,omitempty"`
	RoundWins   TeamCounts          `json:"round_wins"`
	RoundNumber int                 `json:"round_number"`
}

// Public returns a snapshot of Room state safe to broadcast to every
// connected Player.
func (r *Room) Public() PublicView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v := PublicView{
		RoomCode:    r.Code,
		Phase:       r.Phase,
		CurrentTurn: r.CurrentTurn,
		RoundWins:   teamCounts(r.Game.RoundWins),
		RoundNumber: len(r.Game.Rounds),
	}
	for _, p := range r.Players {
		if p == nil {
			continue
		}
		v.Players = append(v.Players, PublicPlayerView{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Seat:        p.Seat,
			Team:        p.Team,
			Status:      p.Status,
			HandSize:    len(p.Hand),
		})
	}
	if round := r.Game.CurrentRound(); round != nil && r.Phase != PhaseLobby && r.Phase != PhaseTeamAssignment {
		v.HakemID = round.HakemID
		v.TrickCounts = teamCounts(round.TrickCounts)
		v.LedSuit = round.CurrentTrick.LedSuit
		if r.Phase == PhasePlaying || r.Phase == PhaseHandComplete || r.Phase == PhaseGameComplete {
			v.Trump = round.Trump
		}
	}
	return v
}

// HandFor returns a copy of playerID's current hand, or nil if the Player
// is unknown. Never call this for anyone but the recipient: card
// information must never be broadcast.
func (r *Room) HandFor(playerID string) []cards.Card {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := r.findPlayerLocked(playerID)
	if p == nil {
		return nil
	}
	return append([]cards.Card(nil), p.Hand...)
}

// CurrentTrickPlays returns the plays made so far in the open trick, in
// order. Safe to share publicly: played cards are, by definition, no
// longer secret once played.
func (r *Room) CurrentTrickPlays() []CardPlay {
	r.mu.RLock()
	defer r.mu.RUnlock()
	round := r.Game.CurrentRound()
	if round == nil {
		return nil
	}
	out := make([]CardPlay, 0, len(round.CurrentTrick.Plays))
	for _, p := range round.CurrentTrick.Plays {
		out = append(out, CardPlay{PlayerID: p.PlayerID, Card: p.Card})
	}
	return out
}

// CardPlay is the wire shape of one (player, card) play.
type CardPlay struct {
	PlayerID string     `json:"player_id"`
	Card     cards.Card `json:"card"`
}

// ResyncView is the full per-Player state handed to a reconnecting client:
// exactly their own hand, plus every public field.
type ResyncView struct {
	Public PublicView  `json:"public"`
	Hand   []cards.Card `json:"hand"`
	Trick  []CardPlay   `json:"current_trick"`
}

// Resync builds the state a reconnecting Player needs to resume without
// having observed any messages while disconnected.
func (r *Room) Resync(playerID string) ResyncView {
	return ResyncView{
		Public: r.Public(),
		Hand:   r.HandFor(playerID),
		Trick:  r.CurrentTrickPlays(),
	}
}

// RoundCount returns how many Rounds the Game has started, including the
// in-progress one.
func (r *Room) RoundCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Game.Rounds)
}

// RoundSummary is a read-only snapshot of one historical Round, used by the
// coordinator to report a round's outcome after it has already been
// superseded by the next one (or by game completion).
type RoundSummary struct {
	Trump             cards.Suit
	HakemID           string
	TrickCounts       TeamCounts
	LastTrickWinnerID string
}

// RoundSummaryAt returns a snapshot of Game.Rounds[idx], or ok=false if idx
// is out of range.
func (r *Room) RoundSummaryAt(idx int) (RoundSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx < 0 || idx >= len(r.Game.Rounds) {
		return RoundSummary{}, false
	}
	round := r.Game.Rounds[idx]
	summary := RoundSummary{
		Trump:       round.Trump,
		HakemID:     round.HakemID,
		TrickCounts: teamCounts(round.TrickCounts),
	}
	if n := len(round.ClosedTricks); n > 0 {
		last := round.ClosedTricks[n-1]
		if winnerID, err := rules.TrickWinner(last.Plays, round.Trump); err == nil {
			summary.LastTrickWinnerID = winnerID
		}
	}
	return summary, true
}

// SeatOf returns the seat of playerID and whether they are seated.
func (r *Room) SeatOf(playerID string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := r.findPlayerLocked(playerID)
	if p == nil {
		return 0, false
	}
	return p.Seat, true
}

// PhaseNow returns the Room's current phase.
func (r *Room) PhaseNow() Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Phase
}

// LastActivityAt returns the last time any Player action advanced the
// Room, used by the turn-deadline sweep to decide whether the current
// turn has stalled.
func (r *Room) LastActivityAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.LastActivity
}

// LastHeartbeatOf returns the last heartbeat timestamp recorded for
// playerID (refreshed on Heartbeat and on Detach), or ok=false if no such
// Player is seated.
func (r *Room) LastHeartbeatOf(playerID string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := r.findPlayerLocked(playerID)
	if p == nil {
		return time.Time{}, false
	}
	return p.LastHeartbeat, true
}

// ActivePlayerCount returns how many seats hold a Player with Status
// StatusActive. The reconnection-grace sweep does not use it; it works from
// DisconnectedPlayers and each Player's last heartbeat.
func (r *Room) ActivePlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.Players {
		if p != nil && p.Status == StatusActive {
			n++
		}
	}
	return n
}

// DisconnectedPlayers returns the IDs of every seated Player currently
// marked disconnected.
func (r *Room) DisconnectedPlayers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, p := range r.Players {
		if p != nil && p.Status == StatusDisconnected {
			out = append(out, p.ID)
		}
	}
	return out
}
