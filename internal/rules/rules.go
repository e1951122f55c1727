// Package rules holds the pure, side-effect-free rule functions for dealing,
// trick resolution, and play legality. Nothing here touches a connection,
// a clock, or a store; every function is a plain value transformation.
package rules

import (
	"errors"
	"fmt"

	"github.com/hokmgame/server/internal/cards"
)

// DealError is returned by Deal when the requested hand sizes add up to
// more cards than the given deck holds.
type DealError struct {
	Requested int
	Available int
}

func (e *DealError) Error() string {
	return fmt.Sprintf("rules: cannot deal %d cards from a deck of %d", e.Requested, e.Available)
}

// Deal consumes deck in order, producing one hand per entry in counts. The
// input deck is not mutated; the remainder is returned alongside the hands.
func Deal(deck cards.Deck, counts []int) (cards.Deck, [][]cards.Card, error) {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total > deck.Len() {
		return deck, nil, &DealError{Requested: total, Available: deck.Len()}
	}

	hands := make([][]cards.Card, len(counts))
	remaining := deck
	for i, c := range counts {
		var drawn []cards.Card
		remaining, drawn = remaining.Take(c)
		hands[i] = drawn
	}
	return remaining, hands, nil
}

// ErrNoPlays is returned by TrickWinner when the trick has no plays to
// resolve, which never happens on a correctly-driven GameBoard but is
// checked rather than assumed.
var ErrNoPlays = errors.New("rules: trick has no plays to resolve")

// Play pairs a Card with the identifier of the Player who played it. The
// identifier type is left to the caller (GameBoard uses an opaque player
// ID string); rules never interprets it beyond equality.
type Play struct {
	PlayerID string     `json:"player_id"`
	Card     cards.Card `json:"card"`
}

// TrickWinner resolves a closed (or closing) trick under the given trump
// suit. Among trump cards the highest rank wins; absent any trump, among
// cards of the led suit (the suit of plays[0].Card) the highest rank wins.
// Ties are impossible: every card is unique within a round.
func TrickWinner(plays []Play, trump cards.Suit) (string, error) {
	if len(plays) == 0 {
		return "", ErrNoPlays
	}
	ledSuit := plays[0].Card.Suit

	if winner, ok := highestOfSuit(plays, trump); ok {
		return winner, nil
	}
	winner, ok := highestOfSuit(plays, ledSuit)
	if !ok {
		// Unreachable given len(plays) > 0: plays[0] is always of ledSuit.
		return "", ErrNoPlays
	}
	return winner, nil
}

func highestOfSuit(plays []Play, suit cards.Suit) (string, bool) {
	var best *Play
	for i := range plays {
		if plays[i].Card.Suit != suit {
			continue
		}
		if best == nil || best.Card.Less(plays[i].Card) {
			best = &plays[i]
		}
	}
	if best == nil {
		return "", false
	}
	return best.PlayerID, true
}

// IllegalReason names why IsLegalPlay rejected a card.
type IllegalReason string

const (
	NotInHand      IllegalReason = "not_in_hand"
	MustFollowSuit IllegalReason = "must_follow_suit"
)

// IsLegalPlay reports whether playing card from hand is legal given the
// trick's led suit (the zero Suit "" means no card has been led yet) and
// the round's trump. Trump is accepted for interface symmetry with the
// rest of the rule surface; per the suit-following rule trump never
// overrides the obligation to follow the led suit, so it plays no part in
// this decision beyond documenting why it is a parameter.
func IsLegalPlay(hand []cards.Card, card cards.Card, ledSuit cards.Suit, trump cards.Suit) (bool, IllegalReason) {
	_ = trump
	if !contains(hand, card) {
		return false, NotInHand
	}
	if ledSuit == "" {
		return true, ""
	}
	if card.Suit == ledSuit {
		return true, ""
	}
	if handHasSuit(hand, ledSuit) {
		return false, MustFollowSuit
	}
	return true, ""
}

func contains(hand []cards.Card, card cards.Card) bool {
	for _, c := range hand {
		if c.Equal(card) {
			return true
		}
	}
	return false
}

func handHasSuit(hand []cards.Card, suit cards.Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

// RemoveCard returns a copy of hand with the first occurrence of card
// removed. The caller is expected to have already validated membership via
// IsLegalPlay; RemoveCard itself returns the hand unchanged if card is
// absent, it does not panic or error.
func RemoveCard(hand []cards.Card, card cards.Card) []cards.Card {
	out := make([]cards.Card, 0, len(hand))
	removed := false
	for _, c := range hand {
		if !removed && c.Equal(card) {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}
