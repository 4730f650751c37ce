package engine

import "fmt"

type Side string

const (
	PlayerSide Side = "player"
	DealerSide Side = "dealer"
)

type Action string

const (
	Hit   Action = "hit"
	Stand Action = "stand"
)

// Phase is the round lifecycle position.
type Phase string

const (
	PhaseBetPending  Phase = "bet_pending"
	PhaseInitialDeal Phase = "initial_deal"
	PhasePlayerTurn  Phase = "player_turn"
	PhaseDealerTurn  Phase = "dealer_turn"
	PhaseResolution  Phase = "resolution"
	PhaseSettled     Phase = "settled"
)

type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

var Suits = [...]Suit{Hearts, Diamonds, Clubs, Spades}

func (s Suit) String() string {
	switch s {
	case Hearts:
		return "Hearts"
	case Diamonds:
		return "Diamonds"
	case Clubs:
		return "Clubs"
	case Spades:
		return "Spades"
	}
	return fmt.Sprintf("Suit(%d)", int(s))
}

func (s Suit) symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	}
	return "?"
}

// Rank values follow the pip count for 2..10; Jack=11 .. Ace=14.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

var Ranks = [...]Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// Points is the nominal blackjack value; an Ace counts 11 until reduced by Score.
func (r Rank) Points() int {
	switch {
	case r == Ace:
		return 11
	case r >= Jack:
		return 10
	default:
		return int(r)
	}
}

func (r Rank) String() string {
	switch r {
	case Jack:
		return "Jack"
	case Queen:
		return "Queen"
	case King:
		return "King"
	case Ace:
		return "Ace"
	}
	if r >= Two && r <= Ten {
		return fmt.Sprintf("%d", int(r))
	}
	return fmt.Sprintf("Rank(%d)", int(r))
}

type Card struct {
	Rank Rank
	Suit Suit
} // e.g. {Ace, Spades} => "Ace of Spades"

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// Short renders the compact form used in hand listings, e.g. "A♠" or "10♥".
func (c Card) Short() string {
	const ranks = "  23456789TJQKA"
	var r string
	switch {
	case c.Rank == Ten:
		r = "10"
	case c.Rank >= Two && c.Rank <= Ace:
		r = string(ranks[c.Rank])
	default:
		r = "?"
	}
	return r + c.Suit.symbol()
}
