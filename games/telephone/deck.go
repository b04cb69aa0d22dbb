/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package telephone

import (
	"math/rand/v2"
	"slices"
)

// Rand is the slice of math/rand/v2 the game needs. Tests pass a seeded
// *rand.Rand to get repeatable draws.
type Rand interface {
	IntN(n int) int
}

// NewRand returns a seedable source for decks and corruption engines.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

const (
	recentMemory = 15
	minAvailable = 5
)

// Deck draws cards without repeating any of the last recentMemory picks.
// A Deck is not safe for concurrent use.
type Deck struct {
	cards  []Card
	recent []string
	rng    Rand
}

func NewDeck(cards []Card, rng Rand) *Deck {
	return &Deck{
		cards: slices.Clone(cards),
		rng:   rng,
	}
}

func (d *Deck) Draw() Card {
	if len(d.cards) == 0 {
		return Card{}
	}

	available := make([]Card, 0, len(d.cards))
	for _, c := range d.cards {
		if !slices.Contains(d.recent, c.ID) {
			available = append(available, c)
		}
	}

	// Nearly exhausted: forget history and pick from the whole deck.
	if len(available) < minAvailable {
		d.recent = d.recent[:0]

		return d.cards[d.rng.IntN(len(d.cards))]
	}

	card := available[d.rng.IntN(len(available))]

	d.recent = append(d.recent, card.ID)
	if len(d.recent) > recentMemory {
		d.recent = d.recent[1:]
	}

	return card
}
