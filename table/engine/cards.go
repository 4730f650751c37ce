package engine

import (
	"errors"
	"math/rand"
	"time"
)

// ErrEmptyDeck is returned when drawing from a deck with no cards left.
var ErrEmptyDeck = errors.New("deck is empty")

// Deck is an ordered pile drawn from the front.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck returns the 52 distinct cards shuffled with rng.
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d := &Deck{rng: rng}
	d.Reset()
	return d
}

// NewSeededDeck is NewDeck with a fresh source; seed 0 uses the clock.
func NewSeededDeck(seed int64) *Deck {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewDeck(rand.New(rand.NewSource(seed)))
}

// NewStackedDeck returns a deck that deals cards in exactly the given order.
// Reset on a stacked deck refills it with a shuffled standard deck.
func NewStackedDeck(cards ...Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// StandardCards lists the 52 cards in suit-then-rank order.
func StandardCards() []Card {
	deck := make([]Card, 0, len(Suits)*len(Ranks))
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// Reset refills the deck with all 52 cards and shuffles it.
func (d *Deck) Reset() {
	if d.rng == nil {
		d.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d.cards = StandardCards()
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, nil
}

func (d *Deck) Remaining() int { return len(d.cards) }

// Cards returns a copy of the undrawn cards, top first.
func (d *Deck) Cards() []Card { return append([]Card(nil), d.cards...) }
