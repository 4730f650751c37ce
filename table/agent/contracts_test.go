package agent

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"blackjack-table/table/engine"
)

func TestParseBet(t *testing.T) {
	tests := []struct {
		in      string
		balance int
		want    int
		err     error
	}{
		{in: "10", balance: 100, want: 10},
		{in: "  100\n", balance: 100, want: 100},
		{in: "ten", balance: 100, err: ErrBetFormat},
		{in: "", balance: 100, err: ErrBetFormat},
		{in: "2.5", balance: 100, err: ErrBetFormat},
		{in: "0", balance: 100, err: ErrBetNotPositive},
		{in: "-4", balance: 100, err: ErrBetNotPositive},
		{in: "101", balance: 100, err: ErrBetExceedsBalance},
	}
	for _, tt := range tests {
		got, err := ParseBet(tt.in, tt.balance)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Fatalf("ParseBet(%q) err = %v, want %v", tt.in, err, tt.err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseBet(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestParseAction(t *testing.T) {
	for in, want := range map[string]engine.Action{"h": engine.Hit, "H": engine.Hit, "hit": engine.Hit, " s ": engine.Stand, "Stand": engine.Stand} {
		got, err := ParseAction(in)
		if err != nil || got != want {
			t.Fatalf("ParseAction(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "x", "double"} {
		if _, err := ParseAction(in); !errors.Is(err, ErrUnknownAction) {
			t.Fatalf("ParseAction(%q) err = %v", in, err)
		}
	}
}

func dealtRound(t *testing.T, cards ...engine.Card) *engine.Round {
	t.Helper()
	r := engine.NewRound("r7", engine.NewStackedDeck(cards...), engine.NewPlayer(100), engine.NewDealer())
	if err := r.PlaceBet(10); err != nil {
		t.Fatalf("bet: %v", err)
	}
	if err := r.Deal(); err != nil {
		t.Fatalf("deal: %v", err)
	}
	return r
}

func TestBuildObservation(t *testing.T) {
	r := dealtRound(t,
		engine.Card{Rank: engine.Ace, Suit: engine.Spades}, engine.Card{Rank: engine.Six, Suit: engine.Hearts},
		engine.Card{Rank: engine.Nine, Suit: engine.Clubs}, engine.Card{Rank: engine.King, Suit: engine.Diamonds},
	)
	obs := BuildObservation(r)
	if obs.RoundID != "r7" || obs.Score != 17 || !obs.Soft {
		t.Fatalf("unexpected observation: %+v", obs)
	}
	if obs.DealerUp != "9♣" {
		t.Fatalf("dealer up = %q, want only the first dealer card", obs.DealerUp)
	}
	if obs.Balance != 90 || obs.Bet != 10 {
		t.Fatalf("balance/bet = %d/%d, want 90/10", obs.Balance, obs.Bet)
	}
	if len(obs.Legal) != 2 {
		t.Fatalf("legal = %v", obs.Legal)
	}
	if err := Validate(obs, engine.Hit); err != nil {
		t.Fatalf("hit should be legal: %v", err)
	}
	r.Stand()
	if err := Validate(BuildObservation(r), engine.Hit); err == nil {
		t.Fatalf("hit after stand should be illegal")
	}
}

func TestBotBetsFlatCappedByBalance(t *testing.T) {
	b := NewBot(25, 0, nil)
	if got, _ := b.Bet(context.Background(), 100); got != 25 {
		t.Fatalf("bet = %d, want 25", got)
	}
	if got, _ := b.Bet(context.Background(), 7); got != 7 {
		t.Fatalf("bet = %d, want 7", got)
	}
}

func TestBotThresholdDecisions(t *testing.T) {
	b := NewBot(10, 0, nil)
	for score, want := range map[int]engine.Action{12: engine.Hit, 16: engine.Hit, 17: engine.Stand, 20: engine.Stand} {
		got, err := b.Decide(context.Background(), Observation{Score: score})
		if err != nil || got != want {
			t.Fatalf("score %d: got %s, %v; want %s", score, got, err, want)
		}
	}
}

func TestBotUsesJudge(t *testing.T) {
	r := dealtRound(t,
		engine.Card{Rank: engine.King, Suit: engine.Spades}, engine.Card{Rank: engine.Queen, Suit: engine.Hearts},
		engine.Card{Rank: engine.Six, Suit: engine.Clubs}, engine.Card{Rank: engine.Two, Suit: engine.Diamonds},
	)
	b := NewBot(10, 1000, rand.New(rand.NewSource(4)))
	got, err := b.Decide(context.Background(), BuildObservation(r))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if got != engine.Stand {
		t.Fatalf("bot hit on 20")
	}
}
