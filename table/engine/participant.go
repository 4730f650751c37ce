package engine

// Participant is what the player and the dealer have in common.
type Participant interface {
	Draw(d *Deck) (Card, error)
	Hand() []Card
	Score() int
	HasBlackjack() bool
	ClearHand()
}

type hand struct {
	cards []Card
}

func (h *hand) Draw(d *Deck) (Card, error) {
	c, err := d.Draw()
	if err != nil {
		return Card{}, err
	}
	h.cards = append(h.cards, c)
	return c, nil
}

// Hand returns a copy of the cards held, in the order they were drawn.
func (h *hand) Hand() []Card       { return append([]Card(nil), h.cards...) }
func (h *hand) Score() int         { return Score(h.cards) }
func (h *hand) HasBlackjack() bool { return HasBlackjack(h.cards) }
func (h *hand) ClearHand()         { h.cards = nil }

// Player owns a hand and the chip balance.
type Player struct {
	hand
	balance int
}

func NewPlayer(balance int) *Player {
	if balance < 0 {
		balance = 0
	}
	return &Player{balance: balance}
}

func (p *Player) Balance() int { return p.balance }

// PlaceBet debits amount immediately. It declines, leaving the balance
// untouched, when amount is not positive or exceeds the balance.
func (p *Player) PlaceBet(amount int) bool {
	if amount <= 0 || amount > p.balance {
		return false
	}
	p.balance -= amount
	return true
}

// WinBet pays back the stake plus an equal amount.
func (p *Player) WinBet(amount int) { p.balance += 2 * amount }

// LoseBet does nothing: the stake left the balance in PlaceBet.
func (p *Player) LoseBet() {}

// Refund returns a stake for a round that never resolved.
func (p *Player) Refund(amount int) {
	if amount > 0 {
		p.balance += amount
	}
}

// Dealer has a hand and no bankroll.
type Dealer struct {
	hand
}

func NewDealer() *Dealer { return &Dealer{} }

// UpCard is the single card shown while the player acts.
func (d *Dealer) UpCard() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return d.cards[0], true
}

var (
	_ Participant = (*Player)(nil)
	_ Participant = (*Dealer)(nil)
)
