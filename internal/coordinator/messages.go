package coordinator

import (
	"encoding/json"
	"fmt"

	"github.com/hokmgame/server/internal/cards"
	"github.com/hokmgame/server/internal/hokm"
)

// envelope is decoded first to read the discriminating "type" field; the
// payload is decoded a second time into the concrete message struct once
// the type is known.
type envelope struct {
	Type string `json:"type"`
}

// Inbound message payloads, matching the closed inbound catalog.
type joinMsg struct {
	Type        string `json:"type"`
	RoomCode    string `json:"room_code"`
	PlayerID    string `json:"player_id,omitempty"`
	DisplayName string `json:"display_name"`
}

type chooseTrumpMsg struct {
	Type string     `json:"type"`
	Suit cards.Suit `json:"suit"`
}

type playCardMsg struct {
	Type string     `json:"type"`
	Card cards.Card `json:"card"`
}

type heartbeatMsg struct {
	Type string `json:"type"`
}

type leaveMsg struct {
	Type string `json:"type"`
}

// authenticateMsg lets a client that persisted only a session token (and
// not the room code) resolve its room before sending join. The token is
// the same opaque player identifier join itself accepts; this message
// only saves the client a failed join round trip when it doesn't know
// which room to name.
type authenticateMsg struct {
	Type         string `json:"type"`
	SessionToken string `json:"session_token"`
}

func decodeInbound(data []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("coordinator: malformed message: %w", err)
	}
	switch env.Type {
	case "join":
		var m joinMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case "choose_trump":
		var m chooseTrumpMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case "play_card":
		var m playCardMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case "heartbeat":
		return heartbeatMsg{Type: "heartbeat"}, nil
	case "leave":
		return leaveMsg{Type: "leave"}, nil
	case "authenticate":
		var m authenticateMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("coordinator: unknown message type %q", env.Type)
	}
}

// Outbound message payloads, matching the closed outbound catalog.

type authenticatedMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	RoomCode string `json:"room_code"`
}

type joinSuccessMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Seat     int    `json:"seat"`
}

type teamAssignmentMsg struct {
	Type    string                   `json:"type"`
	Players []hokm.PublicPlayerView `json:"players"`
}

type initialDealMsg struct {
	Type string       `json:"type"`
	Hand []cards.Card `json:"hand"`
}

type trumpPromptMsg struct {
	Type    string `json:"type"`
	HakemID string `json:"hakem_id"`
}

type trumpSelectedMsg struct {
	Type    string     `json:"type"`
	Trump   cards.Suit `json:"trump"`
	HakemID string     `json:"hakem_id"`
}

type finalDealMsg struct {
	Type string       `json:"type"`
	Hand []cards.Card `json:"hand"`
}

type turnStartMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
}

type cardPlayedMsg struct {
	Type     string     `json:"type"`
	PlayerID string     `json:"player_id"`
	Card     cards.Card `json:"card"`
}

type trickCompleteMsg struct {
	Type        string         `json:"type"`
	WinnerID    string         `json:"winner_id"`
	TrickCounts hokm.TeamCounts `json:"trick_counts"`
}

type handCompleteMsg struct {
	Type        string          `json:"type"`
	WinningTeam int             `json:"winning_team"`
	RoundWins   hokm.TeamCounts `json:"round_wins"`
}

type gameCompleteMsg struct {
	Type        string `json:"type"`
	WinningTeam int    `json:"winning_team"`
}

type stateResyncMsg struct {
	Type string          `json:"type"`
	View hokm.ResyncView `json:"view"`
}

type errorMsg struct {
	Type         string `json:"type"`
	Kind         string `json:"kind"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	CurrentPhase string `json:"current_phase,omitempty"`
	LedSuit      string `json:"led_suit,omitempty"`
}

// toJob converts a decoded inbound message into a job for an
// already-bound connection's room actor. joinMsg has no case here: a
// bound connection sending "join" again is a protocol violation, not a
// reconnect (reconnection happens at the transport layer, before a
// binding exists).
func toJob(msg any, playerID string) (job, string, error) {
	switch m := msg.(type) {
	case chooseTrumpMsg:
		return job{kind: jobChooseTrump, playerID: playerID, suit: m.Suit}, "choose_trump", nil
	case playCardMsg:
		return job{kind: jobPlayCard, playerID: playerID, card: m.Card}, "play_card", nil
	case heartbeatMsg:
		return job{kind: jobHeartbeat, playerID: playerID}, "heartbeat", nil
	case leaveMsg:
		return job{kind: jobLeave, playerID: playerID}, "leave", nil
	default:
		return job{}, "unknown", fmt.Errorf("coordinator: message not valid once joined")
	}
}

func mustEncode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic("coordinator: outbound message failed to marshal: " + err.Error())
	}
	return data
}
