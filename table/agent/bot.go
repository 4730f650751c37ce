package agent

import (
	"context"
	"math/rand"

	"blackjack-table/table/engine"
	"blackjack-table/table/judge"
)

// Bot plays without a terminal: a flat bet, then the judge's best action.
// With Trials <= 0 it falls back to hitting below 17.
type Bot struct {
	FlatBet int
	Trials  int
	rng     *rand.Rand
}

func NewBot(flatBet, trials int, rng *rand.Rand) *Bot {
	if flatBet <= 0 {
		flatBet = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Bot{FlatBet: flatBet, Trials: trials, rng: rng}
}

// Bet stakes the flat amount, or everything left when that is less.
func (b *Bot) Bet(ctx context.Context, balance int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return min(b.FlatBet, balance), nil
}

func (b *Bot) Decide(ctx context.Context, obs Observation) (engine.Action, error) {
	if b.Trials <= 0 || len(obs.Cards) == 0 {
		if obs.Score < engine.DealerStandsOn {
			return engine.Hit, nil
		}
		return engine.Stand, nil
	}
	est, err := judge.Evaluate(ctx, obs.Cards, obs.DealerCard, b.Trials, b.rng)
	if err != nil {
		return "", err
	}
	return est.Best(), nil
}

var _ Agent = (*Bot)(nil)
