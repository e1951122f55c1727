package hokm

import "fmt"

// CorruptStateError is raised when a Room fails the invariants below. On
// load, the caller (internal/coordinator) does not resume the Room and
// clears the raw record from the store; the record is not archived.
type CorruptStateError struct {
	Reason string
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("hokm: corrupt room state: %s", e.Reason)
}

func (e *CorruptStateError) Code() ErrorCode { return CodeCorruptState }

// ValidateRoomInvariants checks the structural invariants that must hold
// for any Room loaded from persistence before it is trusted as resumable;
// the coordinator also runs it after every job it applies.
func ValidateRoomInvariants(r *Room) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seated := 0
	seenIDs := make(map[string]bool)
	for seat, p := range r.Players {
		if p == nil {
			continue
		}
		seated++
		if p.Seat != seat {
			return &CorruptStateError{Reason: fmt.Sprintf("player %s seat mismatch: stored at index %d, Seat=%d", p.ID, seat, p.Seat)}
		}
		if seenIDs[p.ID] {
			return &CorruptStateError{Reason: fmt.Sprintf("duplicate player id %s", p.ID)}
		}
		seenIDs[p.ID] = true
		if p.Team != p.Seat%2 {
			return &CorruptStateError{Reason: fmt.Sprintf("player %s team %d inconsistent with seat %d", p.ID, p.Team, p.Seat)}
		}
	}

	if r.Phase != PhaseLobby && r.Phase != PhaseTeamAssignment && seated != 4 {
		return &CorruptStateError{Reason: fmt.Sprintf("phase %s requires four seated players, found %d", r.Phase, seated)}
	}

	if round := r.Game.CurrentRound(); round != nil {
		if err := validateRoundInvariants(r, round); err != nil {
			return err
		}
	}

	if r.Game.RoundWins[0] > roundWinsToWin || r.Game.RoundWins[1] > roundWinsToWin {
		return &CorruptStateError{Reason: "round wins exceed the winning threshold"}
	}
	if r.Phase == PhaseGameComplete && r.Game.RoundWins[0] != roundWinsToWin && r.Game.RoundWins[1] != roundWinsToWin {
		return &CorruptStateError{Reason: "game-complete phase without a team reaching the round-win threshold"}
	}

	return nil
}

func validateRoundInvariants(r *Room, round *Round) error {
	if round.TrickCounts[0]+round.TrickCounts[1] > maxTricksInRound {
		return &CorruptStateError{Reason: "trick counts exceed 13 for the round"}
	}
	if len(round.ClosedTricks) > maxTricksInRound {
		return &CorruptStateError{Reason: "more than 13 closed tricks in one round"}
	}
	for _, t := range round.ClosedTricks {
		if len(t.Plays) != 4 {
			return &CorruptStateError{Reason: "closed trick does not have exactly four plays"}
		}
		if !t.Closed {
			return &CorruptStateError{Reason: "trick in closed-trick list is not marked closed"}
		}
	}
	if n := len(round.CurrentTrick.Plays); n < 0 || n > 3 {
		return &CorruptStateError{Reason: "open trick has an invalid play count"}
	}

	if r.Phase == PhasePlaying || r.Phase == PhaseHandComplete {
		for _, seat := range [4]int{0, 1, 2, 3} {
			p := r.Players[seat]
			if p == nil {
				continue
			}
			tricksPlayed := 0
			for _, t := range round.ClosedTricks {
				for _, play := range t.Plays {
					if play.PlayerID == p.ID {
						tricksPlayed++
					}
				}
			}
			for _, play := range round.CurrentTrick.Plays {
				if play.PlayerID == p.ID {
					tricksPlayed++
				}
			}
			if len(p.Hand)+tricksPlayed != maxTricksInRound {
				return &CorruptStateError{Reason: fmt.Sprintf("player %s hand+tricks != 13", p.ID)}
			}
		}
	}
	return nil
}
