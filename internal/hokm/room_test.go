package hokm

import (
	"testing"
	"time"

	"github.com/hokmgame/server/internal/cards"
	"github.com/hokmgame/server/internal/players"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seatFourPlayers(t *testing.T, r *Room, now time.Time) []string {
	t.Helper()
	ids := make([]string, 4)
	for i, name := range []string{"alice", "bob", "carol", "dave"} {
		id, seat, err := r.Join("", name, now)
		require.NoError(t, err)
		assert.Equal(t, i, seat)
		ids[i] = id
	}
	return ids
}

func TestHappyPathDealReachesTrumpSelection(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	ids := seatFourPlayers(t, r, now)

	assert.Equal(t, PhaseTrumpSelection, r.PhaseNow())

	round := r.Game.CurrentRound()
	require.NotNil(t, round)
	assert.Contains(t, ids, round.HakemID)

	for _, id := range ids {
		assert.Len(t, r.HandFor(id), 5)
	}
}

func TestNonHakemCannotChooseTrump(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	ids := seatFourPlayers(t, r, now)
	hakemID := r.Game.CurrentRound().HakemID

	var impostor string
	for _, id := range ids {
		if id != hakemID {
			impostor = id
			break
		}
	}

	err := r.ChooseTrump(impostor, cards.Hearts)
	var notYourTurn *NotYourTurnError
	require.ErrorAs(t, err, &notYourTurn)
}

func TestInvalidTrumpRejected(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	seatFourPlayers(t, r, now)
	hakemID := r.Game.CurrentRound().HakemID

	err := r.ChooseTrump(hakemID, cards.Suit("wind"))
	var invalid *InvalidTrumpError
	require.ErrorAs(t, err, &invalid)
}

func TestChooseTrumpDealsFinalHandAndStartsPlay(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	ids := seatFourPlayers(t, r, now)
	hakemID := r.Game.CurrentRound().HakemID

	require.NoError(t, r.ChooseTrump(hakemID, cards.Hearts))

	assert.Equal(t, PhasePlaying, r.PhaseNow())
	assert.Equal(t, hakemID, r.CurrentTurn)
	for _, id := range ids {
		assert.Len(t, r.HandFor(id), 13)
	}
}

func TestMustFollowSuitEnforced(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	seatFourPlayers(t, r, now)
	hakemID := r.Game.CurrentRound().HakemID
	require.NoError(t, r.ChooseTrump(hakemID, cards.Hearts))

	hakemSeat, _ := r.SeatOf(hakemID)
	order := seatOrderFrom(hakemSeat)

	// Force a deterministic hand layout so the follow-suit branch is
	// guaranteed to be exercised regardless of shuffle outcome.
	r.mu.Lock()
	r.Players[order[0]].Hand = []cards.Card{{Rank: cards.Ten, Suit: cards.Spades}}
	r.Players[order[1]].Hand = []cards.Card{{Rank: cards.Seven, Suit: cards.Clubs}, {Rank: cards.Three, Suit: cards.Spades}}
	r.mu.Unlock()

	leaderID := r.Players[order[0]].ID
	require.NoError(t, r.PlayCard(leaderID, cards.Card{Rank: cards.Ten, Suit: cards.Spades}))

	followerID := r.Players[order[1]].ID
	handBefore := r.HandFor(followerID)

	err := r.PlayCard(followerID, cards.Card{Rank: cards.Seven, Suit: cards.Clubs})
	var illegal *IllegalCardError
	require.ErrorAs(t, err, &illegal)
	assert.EqualValues(t, "must_follow_suit", illegal.Reason)
	assert.Equal(t, handBefore, r.HandFor(followerID), "hand must be unchanged after a rejected play")
	assert.Equal(t, followerID, r.CurrentTurn, "turn must not advance after a rejected play")

	require.NoError(t, r.PlayCard(followerID, cards.Card{Rank: cards.Three, Suit: cards.Spades}))
}

func TestTrumpWinsOverLedSuit(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	seatFourPlayers(t, r, now)
	hakemID := r.Game.CurrentRound().HakemID
	require.NoError(t, r.ChooseTrump(hakemID, cards.Hearts))

	hakemSeat, _ := r.SeatOf(hakemID)
	order := seatOrderFrom(hakemSeat)

	r.mu.Lock()
	r.Players[order[0]].Hand = []cards.Card{{Rank: cards.Ten, Suit: cards.Spades}}
	r.Players[order[1]].Hand = []cards.Card{{Rank: cards.King, Suit: cards.Spades}}
	r.Players[order[2]].Hand = []cards.Card{{Rank: cards.Two, Suit: cards.Hearts}}
	r.Players[order[3]].Hand = []cards.Card{{Rank: cards.Ace, Suit: cards.Spades}}
	r.CurrentTurn = r.Players[order[0]].ID
	r.mu.Unlock()

	require.NoError(t, r.PlayCard(r.Players[order[0]].ID, cards.Card{Rank: cards.Ten, Suit: cards.Spades}))
	require.NoError(t, r.PlayCard(r.Players[order[1]].ID, cards.Card{Rank: cards.King, Suit: cards.Spades}))
	require.NoError(t, r.PlayCard(r.Players[order[2]].ID, cards.Card{Rank: cards.Two, Suit: cards.Hearts}))
	require.NoError(t, r.PlayCard(r.Players[order[3]].ID, cards.Card{Rank: cards.Ace, Suit: cards.Spades}))

	assert.Equal(t, r.Players[order[2]].ID, r.CurrentTurn, "trump holder wins the trick and leads next")
}

// forceTrickWin gives the four current-turn-order players one-card hands
// where seat order[0] (winningSeat) holds the ace of the round's trump and
// everyone else holds a plain club, then plays all four cards, guaranteeing
// order[0]'s team wins the trick.
func forceTrickWin(t *testing.T, r *Room, winningSeat int) {
	t.Helper()
	order := seatOrderFrom(winningSeat)
	round := r.Game.CurrentRound()
	trump := round.Trump

	r.mu.Lock()
	r.Players[order[0]].Hand = []cards.Card{{Rank: cards.Ace, Suit: trump}}
	offSuits := []cards.Suit{cards.Clubs, cards.Clubs, cards.Clubs}
	offRanks := []cards.Rank{cards.Two, cards.Three, cards.Four}
	for i, seat := range order[1:] {
		r.Players[seat].Hand = []cards.Card{{Rank: offRanks[i], Suit: offSuits[i]}}
	}
	r.CurrentTurn = r.Players[order[0]].ID
	r.mu.Unlock()

	for _, seat := range order {
		p := r.Players[seat]
		hand := r.HandFor(p.ID)
		card := hand[len(hand)-1]
		require.NoError(t, r.PlayCard(p.ID, card))
	}
}

func TestSevenTrickRuleClosesRoundImmediately(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	seatFourPlayers(t, r, now)
	hakemID := r.Game.CurrentRound().HakemID
	require.NoError(t, r.ChooseTrump(hakemID, cards.Hearts))

	hakemSeat, _ := r.SeatOf(hakemID)

	for i := 0; i < tricksToWinRound; i++ {
		require.Equal(t, PhasePlaying, r.PhaseNow(), "round ended earlier than expected at trick %d", i)
		forceTrickWin(t, r, hakemSeat)
	}

	assert.Equal(t, PhaseTrumpSelection, r.PhaseNow(), "next round begins immediately after the round-winning trick")
	assert.Equal(t, 1, r.Game.RoundWins[r.Players[hakemSeat].Team])
}

func TestGameCompletesAtSevenRoundWins(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	seatFourPlayers(t, r, now)

	for roundNum := 0; roundNum < roundWinsToWin; roundNum++ {
		hakemID := r.Game.CurrentRound().HakemID
		require.NoError(t, r.ChooseTrump(hakemID, cards.Hearts))
		hakemSeat, _ := r.SeatOf(hakemID)

		for i := 0; i < tricksToWinRound; i++ {
			if r.PhaseNow() != PhasePlaying {
				break
			}
			forceTrickWin(t, r, hakemSeat)
		}
	}

	assert.Equal(t, PhaseGameComplete, r.PhaseNow())
	assert.Equal(t, "", r.CurrentTurn)
}

func TestPlayCardRejectedAfterGameComplete(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	seatFourPlayers(t, r, now)

	for roundNum := 0; roundNum < roundWinsToWin; roundNum++ {
		hakemID := r.Game.CurrentRound().HakemID
		require.NoError(t, r.ChooseTrump(hakemID, cards.Hearts))
		hakemSeat, _ := r.SeatOf(hakemID)
		for i := 0; i < tricksToWinRound; i++ {
			if r.PhaseNow() != PhasePlaying {
				break
			}
			forceTrickWin(t, r, hakemSeat)
		}
	}
	require.Equal(t, PhaseGameComplete, r.PhaseNow())

	err := r.PlayCard("anyone", cards.Card{Rank: cards.Two, Suit: cards.Clubs})
	var illegalPhase *IllegalPhaseError
	require.ErrorAs(t, err, &illegalPhase)
	assert.Equal(t, PhaseGameComplete, illegalPhase.Phase)
}

func TestHeartbeatDoesNotMutateGameState(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	ids := seatFourPlayers(t, r, now)
	before := r.Public()

	require.NoError(t, r.Heartbeat(ids[0], now.Add(time.Minute)))

	after := r.Public()
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, before.CurrentTurn, after.CurrentTurn)
}

func TestReconnectAfterDetachPreservesHand(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	ids := seatFourPlayers(t, r, now)
	handBefore := r.HandFor(ids[2])

	require.NoError(t, r.Detach(ids[2], now))
	assert.Equal(t, StatusDisconnected, r.Players[2].Status)

	_, seat, err := r.Join(ids[2], "carol", now.Add(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, seat)
	assert.Equal(t, StatusActive, r.Players[2].Status)
	assert.Equal(t, handBefore, r.HandFor(ids[2]))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	seatFourPlayers(t, r, now)

	data, err := r.Encode()
	require.NoError(t, err)

	restored, err := Decode(data, players.NewDeterministicIDGenerator())
	require.NoError(t, err)
	assert.Equal(t, r.Phase, restored.Phase)
	assert.Equal(t, r.Code, restored.Code)
}

func TestValidateRoomInvariantsAcceptsFreshRoom(t *testing.T) {
	now := time.Now()
	r := NewRoom("9999", players.NewDeterministicIDGenerator(), now)
	seatFourPlayers(t, r, now)
	assert.NoError(t, ValidateRoomInvariants(r))
}
