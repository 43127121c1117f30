package engine

import "github.com/google/uuid"

// Card is a single playing card. Identity is the opaque ID; Value drives
// every rule comparison. Immutable once created.
type Card struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

// PileDirection is the orientation of a foundation pile.
type PileDirection string

const (
	Ascending  PileDirection = "ascending"
	Descending PileDirection = "descending"
)

// FoundationPile is one of the four shared sequences. Only the current top
// card is retained; covered cards are permanently out of play.
type FoundationPile struct {
	ID        int           `json:"id"`
	Direction PileDirection `json:"direction"`
	Top       Card          `json:"top"`
}

// NewDeck builds the ordered deck for the configured value range.
func NewDeck(s Settings) []Card {
	deck := make([]Card, 0, s.MaxCardValue-s.MinCardValue+1)
	for v := s.MinCardValue; v <= s.MaxCardValue; v++ {
		deck = append(deck, Card{ID: uuid.NewString(), Value: v})
	}
	return deck
}

// ShuffledDeck builds and Fisher-Yates shuffles a deck with the given seed.
func ShuffledDeck(s Settings, seed uint64) []Card {
	deck := NewDeck(s)
	rng := seed
	if rng == 0 {
		rng = 1
	}
	next := func() uint64 {
		rng ^= rng << 13
		rng ^= rng >> 7
		rng ^= rng << 17
		return rng
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := int(next() % uint64(i+1))
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// newFoundationPiles returns the four starting piles: two ascending seeded
// one below the minimum deck value, two descending seeded one above the
// maximum. The seed tops are synthetic cards and never leave the piles.
func newFoundationPiles(s Settings) [NumPiles]FoundationPile {
	var piles [NumPiles]FoundationPile
	for i := 0; i < NumPiles; i++ {
		piles[i].ID = i
		if i < NumPiles/2 {
			piles[i].Direction = Ascending
			piles[i].Top = Card{ID: uuid.NewString(), Value: s.MinCardValue - 1}
		} else {
			piles[i].Direction = Descending
			piles[i].Top = Card{ID: uuid.NewString(), Value: s.MaxCardValue + 1}
		}
	}
	return piles
}
