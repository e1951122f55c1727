package rules

import (
	"testing"

	"github.com/hokmgame/server/internal/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeal(t *testing.T) {
	deck := cards.FreshDeck()
	remaining, hands, err := Deal(deck, []int{5, 5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, 32, remaining.Len())
	require.Len(t, hands, 4)
	for _, h := range hands {
		assert.Len(t, h, 5)
	}
}

func TestDealFailsWhenOverdrawn(t *testing.T) {
	deck := cards.FreshDeck()
	_, _, err := Deal(deck, []int{13, 13, 13, 14})
	require.Error(t, err)
	var dealErr *DealError
	require.ErrorAs(t, err, &dealErr)
	assert.Equal(t, 53, dealErr.Requested)
}

func TestTrickWinnerTrumpBeatsLedSuit(t *testing.T) {
	plays := []Play{
		{PlayerID: "A", Card: cards.Card{Rank: cards.Ten, Suit: cards.Spades}},
		{PlayerID: "B", Card: cards.Card{Rank: cards.King, Suit: cards.Spades}},
		{PlayerID: "C", Card: cards.Card{Rank: cards.Two, Suit: cards.Hearts}},
		{PlayerID: "D", Card: cards.Card{Rank: cards.Ace, Suit: cards.Spades}},
	}
	winner, err := TrickWinner(plays, cards.Hearts)
	require.NoError(t, err)
	assert.Equal(t, "C", winner)
}

func TestTrickWinnerNoTrumpHighestLedSuit(t *testing.T) {
	plays := []Play{
		{PlayerID: "A", Card: cards.Card{Rank: cards.Ten, Suit: cards.Spades}},
		{PlayerID: "B", Card: cards.Card{Rank: cards.King, Suit: cards.Spades}},
		{PlayerID: "C", Card: cards.Card{Rank: cards.Two, Suit: cards.Clubs}},
		{PlayerID: "D", Card: cards.Card{Rank: cards.Queen, Suit: cards.Spades}},
	}
	winner, err := TrickWinner(plays, cards.Hearts)
	require.NoError(t, err)
	assert.Equal(t, "B", winner)
}

func TestIsLegalPlayMustFollowSuit(t *testing.T) {
	hand := []cards.Card{
		{Rank: cards.Seven, Suit: cards.Clubs},
		{Rank: cards.Ten, Suit: cards.Spades},
	}
	ok, reason := IsLegalPlay(hand, cards.Card{Rank: cards.Seven, Suit: cards.Clubs}, cards.Spades, cards.Hearts)
	assert.False(t, ok)
	assert.Equal(t, MustFollowSuit, reason)
}

func TestIsLegalPlayFollowingSuitAccepted(t *testing.T) {
	hand := []cards.Card{
		{Rank: cards.Seven, Suit: cards.Clubs},
		{Rank: cards.Ten, Suit: cards.Spades},
	}
	ok, _ := IsLegalPlay(hand, cards.Card{Rank: cards.Ten, Suit: cards.Spades}, cards.Spades, cards.Hearts)
	assert.True(t, ok)
}

func TestIsLegalPlayNotInHand(t *testing.T) {
	hand := []cards.Card{{Rank: cards.Seven, Suit: cards.Clubs}}
	ok, reason := IsLegalPlay(hand, cards.Card{Rank: cards.King, Suit: cards.Diamonds}, "", cards.Hearts)
	assert.False(t, ok)
	assert.Equal(t, NotInHand, reason)
}

func TestIsLegalPlayAnyCardWhenVoidInLedSuit(t *testing.T) {
	hand := []cards.Card{{Rank: cards.Seven, Suit: cards.Clubs}}
	ok, _ := IsLegalPlay(hand, cards.Card{Rank: cards.Seven, Suit: cards.Clubs}, cards.Spades, cards.Hearts)
	assert.True(t, ok)
}

func TestRemoveCard(t *testing.T) {
	hand := []cards.Card{
		{Rank: cards.Seven, Suit: cards.Clubs},
		{Rank: cards.Ten, Suit: cards.Spades},
	}
	out := RemoveCard(hand, cards.Card{Rank: cards.Seven, Suit: cards.Clubs})
	assert.Equal(t, []cards.Card{{Rank: cards.Ten, Suit: cards.Spades}}, out)
}
