package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/hokmgame/server/internal/hokm"
)

func (ra *roomActor) handleJoin(j job) error {
	reconnecting := j.playerID != ""

	assignedID, seat, err := ra.room.Join(j.playerID, j.displayName, ra.co.clk.Now())
	if err != nil {
		return err
	}

	ra.co.reg.Attach(j.client, assignedID, ra.code)
	start := time.Now()
	saveErr := ra.co.st.SaveSession(context.Background(), assignedID, ra.co.sessionFields(ra.code, assignedID, seat))
	ra.co.observeStore("save_session", start, saveErr)
	if saveErr != nil {
		slog.Warn("coordinator: save session failed", "player_id", assignedID, "error", saveErr)
	}

	ra.sendTo(assignedID, joinSuccessMsg{Type: "join_success", PlayerID: assignedID, Seat: seat})

	switch {
	case reconnecting:
		ra.emitResync(assignedID)
		ra.broadcast(teamAssignmentMsg{Type: "team_assignment", Players: ra.room.Public().Players})
	case ra.room.PhaseNow() == hokm.PhaseTrumpSelection && ra.room.RoundCount() == 1:
		ra.onRoundDealt()
	default:
		ra.broadcast(teamAssignmentMsg{Type: "team_assignment", Players: ra.room.Public().Players})
	}
	return nil
}

func (ra *roomActor) handleChooseTrump(j job) error {
	if err := ra.room.ChooseTrump(j.playerID, j.suit); err != nil {
		return err
	}
	view := ra.room.Public()
	ra.broadcast(trumpSelectedMsg{Type: "trump_selected", Trump: view.Trump, HakemID: view.HakemID})
	ra.dealFinalHands()
	ra.broadcast(turnStartMsg{Type: "turn_start", PlayerID: view.HakemID})
	return nil
}

func (ra *roomActor) handlePlayCard(j job) error {
	roundsBefore := ra.room.RoundCount()

	if err := ra.room.PlayCard(j.playerID, j.card); err != nil {
		return err
	}
	ra.broadcast(cardPlayedMsg{Type: "card_played", PlayerID: j.playerID, Card: j.card})

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
		// Trick just closed; round continues with the winner leading next.
		ra.broadcast(trickCompleteMsg{Type: "trick_complete", WinnerID: after.CurrentTurn, TrickCounts: after.TrickCounts})
		ra.broadcast(turnStartMsg{Type: "turn_start", PlayerID: after.CurrentTurn})
	default:
		ra.broadcast(turnStartMsg{Type: "turn_start", PlayerID: after.CurrentTurn})
	}
	return nil
}

// onRoundDealt emits the per-player initial_deal and the hakem's
// trump_prompt for the round that was just dealt.
func (ra *roomActor) onRoundDealt() {
	view := ra.room.Public()
	ra.broadcast(teamAssignmentMsg{Type: "team_assignment", Players: view.Players})
	for _, p := range view.Players {
		ra.sendTo(p.PlayerID, initialDealMsg{Type: "initial_deal", Hand: ra.room.HandFor(p.PlayerID)})
	}
	ra.sendTo(view.HakemID, trumpPromptMsg{Type: "trump_prompt", HakemID: view.HakemID})
}

func (ra *roomActor) dealFinalHands() {
	view := ra.room.Public()
	for _, p := range view.Players {
		ra.sendTo(p.PlayerID, finalDealMsg{Type: "final_deal", Hand: ra.room.HandFor(p.PlayerID)})
	}
}

func winningTeamFrom(counts hokm.TeamCounts) int {
	if counts["1"] > counts["0"] {
		return 1
	}
	return 0
}

func (ra *roomActor) sendTo(playerID string, msg any) {
	if err := ra.co.reg.Send(playerID, mustEncode(msg)); err != nil {
		slog.Debug("coordinator: send to offline player skipped", "player_id", playerID, "error", err)
	}
}

func (ra *roomActor) broadcast(msg any) {
	ra.co.reg.Broadcast(ra.code, mustEncode(msg), nil)
}

func (ra *roomActor) emitResync(playerID string) {
	ra.sendTo(playerID, stateResyncMsg{Type: "state_resync", View: ra.room.Resync(playerID)})
}

func (ra *roomActor) sendError(playerID string, err error) {
	if playerID == "" {
		return
	}
	ra.sendTo(playerID, buildErrorMsg(err))
}
