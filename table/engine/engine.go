package engine

import (
	"errors"
	"fmt"
)

// DealerStandsOn is the total at which the dealer stops drawing. Soft totals get no special case.
const DealerStandsOn = 17

// InitialDealCards is how many cards Deal takes from the deck.
const InitialDealCards = 4

var (
	ErrWrongPhase        = errors.New("action not allowed in this phase")
	ErrInvalidBet        = errors.New("bet must be a positive number of chips")
	ErrInsufficientChips = errors.New("bet exceeds chip balance")
)

// Result is the settled state of one round.
type Result struct {
	RoundID     string
	Bet         int
	PlayerScore int
	DealerScore int
	Balance     int
	Winner      Side
	PlayerBust  bool
	DealerBust  bool
	PlayerHand  []Card
	DealerHand  []Card
}

// Round drives one betting round between the player and the dealer. It does
// no I/O: callers feed it bets and actions and render what it reports.
type Round struct {
	ID      string
	Deck    *Deck
	Player  *Player
	Dealer  *Dealer
	Phase   Phase
	Bet     int
	Busted  bool
	History []Action
}

func NewRound(id string, deck *Deck, player *Player, dealer *Dealer) *Round {
	return &Round{ID: id, Deck: deck, Player: player, Dealer: dealer, Phase: PhaseBetPending}
}

func (r *Round) expect(p Phase) error {
	if r.Phase != p {
		return fmt.Errorf("%w: round %s is %s, want %s", ErrWrongPhase, r.ID, r.Phase, p)
	}
	return nil
}

// PlaceBet stakes amount. A rejected bet leaves the round waiting for another.
func (r *Round) PlaceBet(amount int) error {
	if err := r.expect(PhaseBetPending); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrInvalidBet
	}
	if !r.Player.PlaceBet(amount) {
		return fmt.Errorf("%w: bet %d, balance %d", ErrInsufficientChips, amount, r.Player.Balance())
	}
	r.Bet = amount
	r.Phase = PhaseInitialDeal
	return nil
}

// Deal gives two cards each in the order player, player, dealer, dealer.
func (r *Round) Deal() error {
	if err := r.expect(PhaseInitialDeal); err != nil {
		return err
	}
	order := []Participant{r.Player, r.Player, r.Dealer, r.Dealer}
	for _, p := range order {
		if _, err := p.Draw(r.Deck); err != nil {
			return fmt.Errorf("initial deal: %w", err)
		}
	}
	r.Phase = PhasePlayerTurn
	return nil
}

func (r *Round) Legal() []Action {
	if r.Phase != PhasePlayerTurn {
		return nil
	}
	return []Action{Hit, Stand}
}

// Hit draws one card for the player. Going over 21 ends the round for the
// player and skips the dealer's turn.
func (r *Round) Hit() (Card, error) {
	if err := r.expect(PhasePlayerTurn); err != nil {
		return Card{}, err
	}
	c, err := r.Player.Draw(r.Deck)
	if err != nil {
		return Card{}, err
	}
	r.History = append(r.History, Hit)
	if IsBust(r.Player.Hand()) {
		r.Busted = true
		r.Phase = PhaseResolution
	}
	return c, nil
}

func (r *Round) Stand() error {
	if err := r.expect(PhasePlayerTurn); err != nil {
		return err
	}
	r.History = append(r.History, Stand)
	r.Phase = PhaseDealerTurn
	return nil
}

// Apply dispatches a player decision.
func (r *Round) Apply(a Action) (Card, error) {
	switch a {
	case Hit:
		return r.Hit()
	case Stand:
		return Card{}, r.Stand()
	}
	return Card{}, fmt.Errorf("unknown action %q", a)
}

// PlayDealer draws for the dealer while its total is under 17. Running out
// of cards ends the dealer's turn with whatever it holds.
func (r *Round) PlayDealer() ([]Card, error) {
	if err := r.expect(PhaseDealerTurn); err != nil {
		return nil, err
	}
	var drawn []Card
	for r.Dealer.Score() < DealerStandsOn {
		c, err := r.Dealer.Draw(r.Deck)
		if errors.Is(err, ErrEmptyDeck) {
			break
		}
		if err != nil {
			return drawn, err
		}
		drawn = append(drawn, c)
	}
	r.Phase = PhaseResolution
	return drawn, nil
}

// Resolve settles the bet. The dealer takes every tie.
func (r *Round) Resolve() (Result, error) {
	if err := r.expect(PhaseResolution); err != nil {
		return Result{}, err
	}
	ps, ds := r.Player.Score(), r.Dealer.Score()
	res := Result{
		RoundID:     r.ID,
		Bet:         r.Bet,
		PlayerScore: ps,
		DealerScore: ds,
		PlayerBust:  r.Busted,
		DealerBust:  IsBust(r.Dealer.Hand()),
		PlayerHand:  r.Player.Hand(),
		DealerHand:  r.Dealer.Hand(),
	}
	switch {
	case r.Busted:
		res.Winner = DealerSide
	case res.DealerBust || ps > ds:
		res.Winner = PlayerSide
	default:
		res.Winner = DealerSide
	}
	if res.Winner == PlayerSide {
		r.Player.WinBet(r.Bet)
	} else {
		r.Player.LoseBet()
	}
	res.Balance = r.Player.Balance()
	r.Phase = PhaseSettled
	return res, nil
}

// Clear empties both hands after settlement.
func (r *Round) Clear() error {
	if err := r.expect(PhaseSettled); err != nil {
		return err
	}
	r.Player.ClearHand()
	r.Dealer.ClearHand()
	return nil
}

// Abort ends an unresolved round, handing any stake back. It returns the
// refunded amount.
func (r *Round) Abort() int {
	refund := 0
	if r.Phase != PhaseBetPending && r.Phase != PhaseSettled {
		refund = r.Bet
		r.Player.Refund(refund)
	}
	r.Player.ClearHand()
	r.Dealer.ClearHand()
	r.Phase = PhaseSettled
	return refund
}
