package cards

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Shuffle returns a copy of d with its cards in a uniformly random
// permutation, seeded from a cryptographic random source rather than the
// system clock, since deck order must not be predictable from connection
// timing.
func (d Deck) Shuffle() Deck {
	cards := append([]Card(nil), d.Cards...)
	r := rand.New(rand.NewPCG(cryptoSeed(), cryptoSeed()))
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return Deck{Cards: cards}
}

func cryptoSeed() uint64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic("cards: crypto/rand unavailable: " + err.Error())
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// FreshShuffledDeck is the entry point the GameBoard (internal/hokm) uses
// to produce a new Round's deck.
func FreshShuffledDeck() Deck {
	return FreshDeck().Shuffle()
}
