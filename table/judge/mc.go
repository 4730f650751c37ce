package judge

import (
	"context"
	"errors"
	"math/rand"

	"blackjack-table/table/engine"
)

// DefaultTrials is the simulation count used when callers pass zero.
const DefaultTrials = 2000

// Epsilon is the win-probability gap under which a decision still counts as
// the top action.
const Epsilon = 0.02

var ErrNoCards = errors.New("judge needs the player's hand and the dealer's up card")

// Estimate holds simulated win probabilities for each decision.
type Estimate struct {
	Stand  float64
	Hit    float64
	Trials int
}

// Best is the decision with the higher win probability; ties favour standing.
func (e Estimate) Best() engine.Action {
	if e.Hit > e.Stand {
		return engine.Hit
	}
	return engine.Stand
}

// EV converts a win probability to the expected chip result of a bet,
// given that the dealer wins every tie.
func EV(winProb float64, bet int) float64 {
	return (2*winProb - 1) * float64(bet)
}

// Grade compares a chosen action to the estimate. gap is the win-probability
// given up versus the best action; top reports gap <= Epsilon.
func Grade(e Estimate, chosen engine.Action) (gap float64, top bool) {
	best := e.Stand
	if e.Hit > best {
		best = e.Hit
	}
	got := e.Stand
	if chosen == engine.Hit {
		got = e.Hit
	}
	gap = best - got
	return gap, gap <= Epsilon
}

// Unseen returns the standard cards minus those the player can see.
func Unseen(visible ...engine.Card) []engine.Card {
	used := map[engine.Card]bool{}
	for _, c := range visible {
		used[c] = true
	}
	out := make([]engine.Card, 0, 52)
	for _, c := range engine.StandardCards() {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}

// Evaluate estimates the chance of winning the round if the player stands now
// or hits exactly once and then stands. The dealer's hole card and every
// later draw come from the cards the player has not seen.
func Evaluate(ctx context.Context, player []engine.Card, dealerUp engine.Card, trials int, rng *rand.Rand) (Estimate, error) {
	if len(player) == 0 || dealerUp.Rank == 0 {
		return Estimate{}, ErrNoCards
	}
	if trials <= 0 {
		trials = DefaultTrials
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	unseen := Unseen(append(append([]engine.Card{}, player...), dealerUp)...)
	pile := make([]engine.Card, len(unseen))

	var standWins, hitWins int
	for t := 0; t < trials; t++ {
		if t%256 == 0 {
			if err := ctx.Err(); err != nil {
				return Estimate{}, err
			}
		}
		copy(pile, unseen)
		rng.Shuffle(len(pile), func(i, j int) { pile[i], pile[j] = pile[j], pile[i] })

		// Stand and hit share the same shuffle so the comparison is paired.
		if playerWins(engine.Score(player), dealerUp, pile) {
			standWins++
		}
		hitHand := append(append([]engine.Card{}, player...), pile[0])
		hs := engine.Score(hitHand)
		if hs <= 21 && playerWins(hs, dealerUp, pile[1:]) {
			hitWins++
		}
	}
	return Estimate{
		Stand:  float64(standWins) / float64(trials),
		Hit:    float64(hitWins) / float64(trials),
		Trials: trials,
	}, nil
}

// playerWins plays the dealer out from dealerUp using pile and applies the
// round's resolution rule.
func playerWins(playerScore int, dealerUp engine.Card, pile []engine.Card) bool {
	if playerScore > 21 {
		return false
	}
	dealer := []engine.Card{dealerUp}
	for i := 0; engine.Score(dealer) < engine.DealerStandsOn && i < len(pile); i++ {
		dealer = append(dealer, pile[i])
	}
	ds := engine.Score(dealer)
	return ds > 21 || playerScore > ds
}
