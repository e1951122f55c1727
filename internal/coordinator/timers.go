package coordinator

import (
	"log/slog"
	"time"

	"github.com/hokmgame/server/internal/hokm"
)

// checkTurnDeadline auto-plays the current-turn player's hand once
// turnTimeout has elapsed since the room's last activity, so a stalled
// client never blocks the other three players indefinitely.
func (ra *roomActor) checkTurnDeadline(now time.Time) {
	if ra.room.PhaseNow() != hokm.PhasePlaying {
		return
	}
	if now.Sub(ra.room.LastActivityAt()) < ra.co.turnTimeout {
		return
	}

	roundsBefore := ra.room.RoundCount()
	currentTurn := ra.room.Public().CurrentTurn
	card, err := ra.room.AutoPlayCurrentTurn(now)
	if err != nil {
		slog.Warn("coordinator: turn-deadline auto-play failed", "room_code", ra.code, "player_id", currentTurn, "error", err)
		return
	}
	ra.co.metrics.TimerFires.WithLabelValues("turn_deadline").Inc()

	ra.broadcast(cardPlayedMsg{Type: "card_played", PlayerID: currentTurn, Card: card})

	after := ra.room.Public()
	roundsAfter := ra.room.RoundCount()
	completedRoundIdx := -1
	switch {
	case after.Phase == hokm.PhaseGameComplete:
		completedRoundIdx = roundsAfter - 1
	case roundsAfter > roundsBefore:
		completedRoundIdx = roundsBefore - 1
	}

	switch {
	case completedRoundIdx >= 0:
		summary, ok := ra.room.RoundSummaryAt(completedRoundIdx)
		if !ok {
			break
		}
		ra.broadcast(trickCompleteMsg{Type: "trick_complete", WinnerID: summary.LastTrickWinnerID, TrickCounts: summary.TrickCounts})
		winner := winningTeamFrom(summary.TrickCounts)
		if after.Phase == hokm.PhaseGameComplete {
			ra.broadcast(gameCompleteMsg{Type: "game_complete", WinningTeam: winner})
		} else {
			ra.broadcast(handCompleteMsg{Type: "hand_complete", WinningTeam: winner, RoundWins: after.RoundWins})
			ra.onRoundDealt()
		}
	case after.Phase == hokm.PhasePlaying && after.LedSuit == "":
		ra.broadcast(trickCompleteMsg{Type: "trick_complete", WinnerID: after.CurrentTurn, TrickCounts: after.TrickCounts})
		ra.broadcast(turnStartMsg{Type: "turn_start", PlayerID: after.CurrentTurn})
	default:
		ra.broadcast(turnStartMsg{Type: "turn_start", PlayerID: after.CurrentTurn})
	}
}

// checkReconnectGrace abandons the room if any disconnected player has been
// gone longer than reconnectGrace, per the sub-four-player-mid-game design
// decision: the room is abandoned outright rather than continued
// short-handed.
func (ra *roomActor) checkReconnectGrace(now time.Time) {
	phase := ra.room.PhaseNow()
	if phase == hokm.PhaseAbandoned || phase == hokm.PhaseGameComplete {
		return
	}
	for _, playerID := range ra.room.DisconnectedPlayers() {
		lastSeen, ok := ra.room.LastHeartbeatOf(playerID)
		if !ok {
			continue
		}
		if now.Sub(lastSeen) > ra.co.reconnectGrace {
			ra.co.metrics.TimerFires.WithLabelValues("reconnect_grace").Inc()
			ra.room.Abandon(now)
			ra.broadcast(errorMsg{Type: "error", Kind: "fatal", Code: "room_abandoned", Message: "room abandoned: reconnection grace period expired"})
			return
		}
	}
}
