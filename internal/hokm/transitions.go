package hokm

import (
	"time"

	"github.com/hokmgame/server/internal/cards"
	"github.com/hokmgame/server/internal/rules"
)

// ChooseTrump applies the hakem's trump choice. Only the Round's hakem may
// call this successfully; any other Player receives NotYourTurnError.
func (r *Room) ChooseTrump(playerID string, suit cards.Suit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Phase != PhaseTrumpSelection {
		return &IllegalPhaseError{Phase: r.Phase}
	}
	round := r.Game.CurrentRound()
	if playerID != round.HakemID {
		return &NotYourTurnError{PlayerID: playerID, Action: ActionChooseTrump}
	}
	if !cards.IsValidSuit(suit) {
		return &InvalidTrumpError{Suit: string(suit)}
	}

	round.Trump = suit
	r.Phase = PhaseFinalDeal

	deck, hands, err := rules.Deal(r.pendingDeck, []int{finalHandSize, finalHandSize, finalHandSize, finalHandSize})
	if err != nil {
		return err
	}
	hakem := r.findPlayerLocked(round.HakemID)
	order := seatOrderFrom(hakem.Seat)
	for i, seat := range order {
		r.Players[seat].Hand = append(r.Players[seat].Hand, hands[i]...)
	}
	r.pendingDeck = deck

	r.Phase = PhasePlaying
	r.CurrentTurn = round.HakemID
	r.LastActivity = time.Now().UTC()
	return nil
}

// PlayCard applies card on behalf of playerID. Validation order follows the
// spec literally: phase, then turn, then card legality.
func (r *Room) PlayCard(playerID string, card cards.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playCardLocked(playerID, card, time.Now().UTC())
}

func (r *Room) playCardLocked(playerID string, card cards.Card, now time.Time) error {
	if r.Phase != PhasePlaying {
		return &IllegalPhaseError{Phase: r.Phase}
	}
	if playerID != r.CurrentTurn {
		return &NotYourTurnError{PlayerID: playerID, Action: ActionPlayCard}
	}

	player := r.findPlayerLocked(playerID)
	round := r.Game.CurrentRound()
	trick := &round.CurrentTrick

	ok, reason := rules.IsLegalPlay(player.Hand, card, trick.LedSuit, round.Trump)
	if !ok {
		return &IllegalCardError{Reason: reason, LedSuit: string(trick.LedSuit)}
	}

	player.Hand = rules.RemoveCard(player.Hand, card)
	if len(trick.Plays) == 0 {
		trick.LedSuit = card.Suit
	}
	trick.Plays = append(trick.Plays, rules.Play{PlayerID: playerID, Card: card})
	r.LastActivity = now

	if len(trick.Plays) < 4 {
		r.CurrentTurn = r.Players[nextSeat(player.Seat)].ID
		return nil
	}
	return r.closeTrickLocked(now)
}

func nextSeat(seat int) int {
	return (seat + 1) % 4
}

func (r *Room) closeTrickLocked(now time.Time) error {
	round := r.Game.CurrentRound()
	trick := round.CurrentTrick

	winnerID, err := rules.TrickWinner(trick.Plays, round.Trump)
	if err != nil {
		return err
	}
	trick.Closed = true
	round.ClosedTricks = append(round.ClosedTricks, trick)

	winner := r.findPlayerLocked(winnerID)
	round.TrickCounts[winner.Team]++
	round.CurrentTrick = Trick{}
	r.CurrentTurn = winnerID

	if round.TrickCounts[0] >= tricksToWinRound || round.TrickCounts[1] >= tricksToWinRound || len(round.ClosedTricks) >= maxTricksInRound {
		return r.completeRoundLocked(now)
	}
	return nil
}

func (r *Room) completeRoundLocked(now time.Time) error {
	r.Phase = PhaseHandComplete
	round := r.Game.CurrentRound()

	winningTeam := 0
	if round.TrickCounts[1] > round.TrickCounts[0] {
		winningTeam = 1
	}
	r.Game.RoundWins[winningTeam]++

	if r.Game.RoundWins[winningTeam] >= roundWinsToWin {
		r.Phase = PhaseGameComplete
		r.CurrentTurn = ""
		return nil
	}

	nextHakemID := round.HakemID
	if winningTeam != r.findPlayerLocked(round.HakemID).Team {
		oldHakem := r.findPlayerLocked(round.HakemID)
		nextHakemID = r.Players[nextSeat(oldHakem.Seat)].ID
	}
	return r.beginRoundLocked(nextHakemID, now)
}

// Heartbeat refreshes a Player's liveness timestamp. It never mutates game
// state and never fails for a seated Player.
func (r *Room) Heartbeat(playerID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findPlayerLocked(playerID)
	if p == nil {
		return &UnknownPlayerError{PlayerID: playerID}
	}
	p.LastHeartbeat = now
	return nil
}

// Detach marks a Player disconnected without removing their seat or hand.
func (r *Room) Detach(playerID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findPlayerLocked(playerID)
	if p == nil {
		return &UnknownPlayerError{PlayerID: playerID}
	}
	p.Status = StatusDisconnected
	p.LastHeartbeat = now
	r.LastActivity = now
	return nil
}

// Abandon marks the Room terminally abandoned, e.g. after a reconnection
// grace window expires with a Player still missing.
func (r *Room) Abandon(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Phase = PhaseAbandoned
	r.CurrentTurn = ""
	r.LastActivity = now
}

// AutoPlayCurrentTurn selects the lowest-index legal card from the
// current-turn Player's hand and plays it on their behalf. Used by the
// turn-deadline timer when a Player fails to act within the allotted time.
func (r *Room) AutoPlayCurrentTurn(now time.Time) (cards.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Phase != PhasePlaying {
		return cards.Card{}, &IllegalPhaseError{Phase: r.Phase}
	}
	player := r.findPlayerLocked(r.CurrentTurn)
	round := r.Game.CurrentRound()
	ledSuit := round.CurrentTrick.LedSuit

	for _, c := range player.Hand {
		if ok, _ := rules.IsLegalPlay(player.Hand, c, ledSuit, round.Trump); ok {
			chosen := c
			return chosen, r.playCardLocked(player.ID, chosen, now)
		}
	}
	// Unreachable while the invariant |hand|+tricks=13 holds: a Player
	// whose turn it is always holds at least one legal card.
	return cards.Card{}, &IllegalPhaseError{Phase: r.Phase}
}
