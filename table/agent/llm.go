package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"blackjack-table/table/engine"
)

const llmSystem = `
You are playing single-deck blackjack against a dealer, one hand at a time.

Table rules:
- The dealer draws until reaching 17 or more and stands on every 17, soft or hard.
- Ties go to the dealer. There is no push, no split, no double, no insurance.
- A win pays the stake back plus an equal amount.

Decision policy:
- Reason from your total, whether it is soft, and the dealer's single exposed card.
- Estimate the chance of busting on a hit against the chance the dealer beats your current total.

Output format:
- Return exactly one option from legal as JSON: {"action":"hit"} or {"action":"stand"}.
`

// ActionChooser is a model that picks one of the legal actions.
type ActionChooser interface {
	ChooseAction(ctx context.Context, system, user string, legal []string) (action, raw string, err error)
}

// LLM is a seat played by a language model. Bets are flat; a failed or
// unusable reply falls back to Fallback for that decision.
type LLM struct {
	Model    ActionChooser
	FlatBet  int
	Fallback Decider

	Calls     int
	Fallbacks int
}

func NewLLM(model ActionChooser, flatBet int, fallback Decider) *LLM {
	if flatBet <= 0 {
		flatBet = 1
	}
	return &LLM{Model: model, FlatBet: flatBet, Fallback: fallback}
}

func (l *LLM) Bet(ctx context.Context, balance int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return min(l.FlatBet, balance), nil
}

func (l *LLM) Decide(ctx context.Context, obs Observation) (engine.Action, error) {
	obsRaw, err := json.Marshal(obs)
	if err != nil {
		return "", err
	}
	user := fmt.Sprintf("Observation:\n%s\nChoose your action.", obsRaw)
	l.Calls++
	act, raw, err := l.Model.ChooseAction(ctx, llmSystem, user, obs.Legal)
	if err == nil {
		if err = Validate(obs, engine.Action(act)); err == nil {
			return engine.Action(act), nil
		}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	l.Fallbacks++
	log.Printf("llm %s: %v (raw %q), using fallback", obs.RoundID, err, raw)
	if l.Fallback == nil {
		return engine.Stand, nil
	}
	return l.Fallback.Decide(ctx, obs)
}

var _ Agent = (*LLM)(nil)
