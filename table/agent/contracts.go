package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"blackjack-table/table/engine"
)

var (
	ErrBetFormat         = errors.New("bet must be a whole number")
	ErrBetNotPositive    = errors.New("bet must be greater than zero")
	ErrBetExceedsBalance = errors.New("bet exceeds your chips")
	ErrUnknownAction     = errors.New("choose h to hit or s to stand")
)

// Observation is what the player may see when deciding.
type Observation struct {
	RoundID    string   `json:"round_id"`
	Hand       []string `json:"hand"`        // e.g. ["A♠","K♥"]
	Score      int      `json:"score"`       // best total
	Soft       bool     `json:"soft"`        // an ace still counts 11
	DealerUp   string   `json:"dealer_up"`   // the single exposed card
	Balance    int      `json:"balance"`     // chips behind
	Bet        int      `json:"bet"`         // stake this round
	Legal      []string `json:"legal"`       // subset of hit/stand
	HistoryLen int      `json:"history_len"` // decisions so far this round

	// Cards as engine values, for evaluators.
	Cards      []engine.Card `json:"-"`
	DealerCard engine.Card   `json:"-"`
}

// Bettor supplies a stake for the next round.
type Bettor interface {
	Bet(ctx context.Context, balance int) (int, error)
}

// Decider chooses hit or stand.
type Decider interface {
	Decide(ctx context.Context, obs Observation) (engine.Action, error)
}

// Agent is the full seat: it bets and then plays its hand.
type Agent interface {
	Bettor
	Decider
}

// BuildObservation converts engine state into the player's view.
func BuildObservation(r *engine.Round) Observation {
	hand := r.Player.Hand()
	obs := Observation{
		RoundID:    r.ID,
		Hand:       cardsToStr(hand),
		Score:      engine.Score(hand),
		Soft:       engine.IsSoft(hand),
		Balance:    r.Player.Balance(),
		Bet:        r.Bet,
		HistoryLen: len(r.History),
		Cards:      hand,
	}
	if up, ok := r.Dealer.UpCard(); ok {
		obs.DealerUp = up.Short()
		obs.DealerCard = up
	}
	for _, a := range r.Legal() {
		obs.Legal = append(obs.Legal, string(a))
	}
	return obs
}

func cardsToStr(cs []engine.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Short()
	}
	return out
}

// Validate checks a decision against the observation.
func Validate(o Observation, a engine.Action) error {
	for _, la := range o.Legal {
		if la == string(a) {
			return nil
		}
	}
	return fmt.Errorf("illegal action %q (legals: %v)", a, o.Legal)
}

// ParseBet reads a typed bet. Errors are meant to be shown and re-prompted.
func ParseBet(s string, balance int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrBetFormat
	}
	if n <= 0 {
		return 0, ErrBetNotPositive
	}
	if n > balance {
		return 0, fmt.Errorf("%w (you have %d)", ErrBetExceedsBalance, balance)
	}
	return n, nil
}

// ParseAction accepts h/s and the full words, in any case.
func ParseAction(s string) (engine.Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h", "hit":
		return engine.Hit, nil
	case "s", "stand":
		return engine.Stand, nil
	}
	return "", ErrUnknownAction
}
