package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"blackjack-table/table/agent"
	"blackjack-table/table/engine"
	"blackjack-table/table/store"
)

func card(r engine.Rank, s engine.Suit) engine.Card { return engine.Card{Rank: r, Suit: s} }

// scriptedAgent replays fixed bets and decisions, then reports io.EOF.
type scriptedAgent struct {
	bets    []int
	actions []engine.Action
}

func (a *scriptedAgent) Bet(ctx context.Context, balance int) (int, error) {
	if len(a.bets) == 0 {
		return 0, io.EOF
	}
	n := a.bets[0]
	a.bets = a.bets[1:]
	return n, nil
}

func (a *scriptedAgent) Decide(ctx context.Context, obs agent.Observation) (engine.Action, error) {
	if len(a.actions) == 0 {
		return "", io.EOF
	}
	act := a.actions[0]
	a.actions = a.actions[1:]
	return act, nil
}

type memSink struct {
	recs []store.Record
	err  error
}

func (m *memSink) Append(ctx context.Context, rec store.Record) error {
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, rec)
	return nil
}

func newTestTable(balance int, seat agent.Agent, deck ...engine.Card) (*Table, *memSink, *bytes.Buffer) {
	out := &bytes.Buffer{}
	sink := &memSink{}
	tbl := newTable(engine.NewStackedDeck(deck...), engine.NewPlayer(balance), seat, sink, newConsole(out), rand.New(rand.NewSource(1)), nil)
	tbl.MaxRounds = 1
	return tbl, sink, out
}

func TestTableNaturalWins(t *testing.T) {
	seat := &scriptedAgent{bets: []int{10}, actions: []engine.Action{engine.Stand}}
	tbl, sink, out := newTestTable(100, seat,
		card(engine.Ace, engine.Spades), card(engine.King, engine.Hearts),
		card(engine.Nine, engine.Clubs), card(engine.Eight, engine.Diamonds),
	)
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := tbl.Player.Balance(); got != 110 {
		t.Fatalf("balance = %d, want 110", got)
	}
	want := store.Record{PlayerScore: 21, DealerScore: 17, PlayerChips: 110}
	if len(sink.recs) != 1 || sink.recs[0] != want {
		t.Fatalf("records = %+v, want [%+v]", sink.recs, want)
	}
	if tbl.Stats.Naturals != 1 || tbl.Stats.Wins != 1 {
		t.Fatalf("stats = %+v", tbl.Stats)
	}
	s := out.String()
	for _, frag := range []string{"Your hand: A♠ K♥ (21)", "Dealer shows: 9♣", "Blackjack!", "Chips: 110"} {
		if !strings.Contains(s, frag) {
			t.Fatalf("output missing %q:\n%s", frag, s)
		}
	}
	if strings.Contains(s, "8♦") && strings.Index(s, "8♦") < strings.Index(s, "Dealer's hand") {
		t.Fatalf("dealer hole card shown before the dealer's turn:\n%s", s)
	}
	if len(tbl.Player.Hand()) != 0 || len(tbl.Dealer.Hand()) != 0 {
		t.Fatalf("hands not cleared after the round")
	}
}

func TestTableBustSkipsDealer(t *testing.T) {
	seat := &scriptedAgent{bets: []int{10}, actions: []engine.Action{engine.Hit}}
	tbl, sink, out := newTestTable(100, seat,
		card(engine.Ten, engine.Spades), card(engine.Three, engine.Hearts),
		card(engine.Ten, engine.Clubs), card(engine.Two, engine.Diamonds),
		card(engine.King, engine.Clubs), card(engine.Five, engine.Diamonds),
	)
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := tbl.Player.Balance(); got != 90 {
		t.Fatalf("balance = %d, want 90", got)
	}
	if tbl.Deck.Remaining() != 1 {
		t.Fatalf("dealer drew after a player bust, %d cards left", tbl.Deck.Remaining())
	}
	// The log compares raw scores, so 23 over 12 is written as a player win.
	want := store.Record{PlayerScore: 23, DealerScore: 12, PlayerChips: 90}
	if len(sink.recs) != 1 || sink.recs[0] != want {
		t.Fatalf("records = %+v, want [%+v]", sink.recs, want)
	}
	if sink.recs[0].Winner() != "Player wins." {
		t.Fatalf("log winner = %q", sink.recs[0].Winner())
	}
	if !strings.Contains(out.String(), "Bust!") || tbl.Stats.Busts != 1 {
		t.Fatalf("bust not reported:\n%s", out.String())
	}
}

func TestTableTieGoesToDealer(t *testing.T) {
	seat := &scriptedAgent{bets: []int{10}, actions: []engine.Action{engine.Stand}}
	tbl, sink, out := newTestTable(100, seat,
		card(engine.Ten, engine.Spades), card(engine.Nine, engine.Hearts),
		card(engine.Ten, engine.Clubs), card(engine.Nine, engine.Diamonds),
	)
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := tbl.Player.Balance(); got != 90 {
		t.Fatalf("balance = %d, want 90", got)
	}
	if sink.recs[0].Winner() != "Dealer wins." {
		t.Fatalf("log winner = %q", sink.recs[0].Winner())
	}
	if !strings.Contains(out.String(), "Tie.") {
		t.Fatalf("tie not announced:\n%s", out.String())
	}
}

func TestTableDealerDrawsShown(t *testing.T) {
	seat := &scriptedAgent{bets: []int{20}, actions: []engine.Action{engine.Stand}}
	tbl, _, out := newTestTable(100, seat,
		card(engine.Ten, engine.Spades), card(engine.Eight, engine.Hearts),
		card(engine.Six, engine.Clubs), card(engine.Six, engine.Diamonds),
		card(engine.King, engine.Clubs),
	)
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Dealer draws K♣.") {
		t.Fatalf("dealer draw not shown:\n%s", out.String())
	}
	if got := tbl.Player.Balance(); got != 120 {
		t.Fatalf("balance = %d, want 120 after a dealer bust", got)
	}
	if tbl.Stats.DealerBusts != 1 {
		t.Fatalf("stats = %+v", tbl.Stats)
	}
}

func TestTableConsoleRepromptsBadBets(t *testing.T) {
	out := &bytes.Buffer{}
	con := newConsole(out)
	seat := newConsoleAgent(strings.NewReader("abc\n0\n500\n10\nx\ns\n"), con)
	tbl := newTable(engine.NewStackedDeck(
		card(engine.Ten, engine.Spades), card(engine.Nine, engine.Hearts),
		card(engine.Ten, engine.Clubs), card(engine.Seven, engine.Diamonds),
	), engine.NewPlayer(100), seat, &memSink{}, con, nil, nil)
	tbl.MaxRounds = 1
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	s := out.String()
	for _, e := range []error{agent.ErrBetFormat, agent.ErrBetNotPositive, agent.ErrBetExceedsBalance, agent.ErrUnknownAction} {
		if !strings.Contains(s, e.Error()) {
			t.Fatalf("output missing %q:\n%s", e, s)
		}
	}
	if got := strings.Count(s, "Place your bet:"); got != 4 {
		t.Fatalf("bet prompted %d times, want 4", got)
	}
	if tbl.Player.Balance() != 110 {
		t.Fatalf("balance = %d, want 110", tbl.Player.Balance())
	}
}

func TestTableEOFEndsSession(t *testing.T) {
	out := &bytes.Buffer{}
	con := newConsole(out)
	tbl := newTable(engine.NewSeededDeck(5), engine.NewPlayer(100), newConsoleAgent(strings.NewReader(""), con), &memSink{}, con, nil, nil)
	if err := tbl.Run(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if tbl.Player.Balance() != 100 {
		t.Fatalf("balance changed without a bet")
	}
}

func TestTableRunsUntilBroke(t *testing.T) {
	seat := &scriptedAgent{bets: []int{10, 10}, actions: []engine.Action{engine.Stand}}
	tbl, sink, _ := newTestTable(10, seat,
		card(engine.Ten, engine.Spades), card(engine.Seven, engine.Hearts),
		card(engine.Ten, engine.Clubs), card(engine.Nine, engine.Diamonds),
	)
	tbl.MaxRounds = 0
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if tbl.Player.Balance() != 0 || tbl.Rounds() != 1 || len(sink.recs) != 1 {
		t.Fatalf("balance %d after %d rounds, %d records", tbl.Player.Balance(), tbl.Rounds(), len(sink.recs))
	}
}

func TestTableShortDeckAbortsRound(t *testing.T) {
	seat := &scriptedAgent{bets: []int{10}}
	tbl, sink, _ := newTestTable(100, seat,
		card(engine.Ten, engine.Spades), card(engine.Seven, engine.Hearts), card(engine.Ten, engine.Clubs),
	)
	err := tbl.Run(context.Background())
	if !errors.Is(err, engine.ErrEmptyDeck) {
		t.Fatalf("err = %v, want ErrEmptyDeck", err)
	}
	if tbl.Player.Balance() != 100 {
		t.Fatalf("stake not refunded, balance %d", tbl.Player.Balance())
	}
	if len(sink.recs) != 0 {
		t.Fatalf("aborted round was logged: %+v", sink.recs)
	}
}

func TestTableEmptyDeckOnHitStands(t *testing.T) {
	seat := &scriptedAgent{bets: []int{10}, actions: []engine.Action{engine.Hit}}
	tbl, sink, out := newTestTable(100, seat,
		card(engine.Ten, engine.Spades), card(engine.Nine, engine.Hearts),
		card(engine.Ten, engine.Clubs), card(engine.Seven, engine.Diamonds),
	)
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "The deck is empty. You stand.") {
		t.Fatalf("forced stand not shown:\n%s", out.String())
	}
	if sink.recs[0].PlayerChips != 110 {
		t.Fatalf("19 over 17 should win, got %+v", sink.recs[0])
	}
}

func TestTableEmptyDeckHitIsNotGraded(t *testing.T) {
	seat := &scriptedAgent{bets: []int{10}, actions: []engine.Action{engine.Hit}}
	tbl, _, _ := newTestTable(100, seat,
		card(engine.Ten, engine.Spades), card(engine.Nine, engine.Hearts),
		card(engine.Ten, engine.Clubs), card(engine.Seven, engine.Diamonds),
	)
	tbl.JudgeTrials = 200
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if tbl.Stats.Decisions != 0 {
		t.Fatalf("a hit that drew nothing was graded: %+v", tbl.Stats)
	}
}

func TestTableEOFAtDecisionRefunds(t *testing.T) {
	seat := &scriptedAgent{bets: []int{10}}
	tbl, sink, _ := newTestTable(100, seat,
		card(engine.Ten, engine.Spades), card(engine.Six, engine.Hearts),
		card(engine.Ten, engine.Clubs), card(engine.Seven, engine.Diamonds),
	)
	if err := tbl.Run(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if tbl.Player.Balance() != 100 {
		t.Fatalf("stake not refunded, balance %d", tbl.Player.Balance())
	}
	if len(sink.recs) != 0 {
		t.Fatalf("unfinished round was logged: %+v", sink.recs)
	}
	if n, m := len(tbl.Player.Hand()), len(tbl.Dealer.Hand()); n != 0 || m != 0 {
		t.Fatalf("hands not cleared: player %d cards, dealer %d", n, m)
	}
}

func TestTableReshufflesLowDeck(t *testing.T) {
	seat := &scriptedAgent{bets: []int{5}, actions: []engine.Action{engine.Stand, engine.Stand, engine.Stand}}
	tbl, sink, out := newTestTable(100, seat, card(engine.Two, engine.Spades))
	tbl.ReshuffleAt = 15
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Shuffling a fresh deck.") {
		t.Fatalf("reshuffle not announced:\n%s", out.String())
	}
	if len(sink.recs) != 1 || tbl.Deck.Remaining() < 40 {
		t.Fatalf("records %d, %d cards left", len(sink.recs), tbl.Deck.Remaining())
	}
}

func TestTableReshuffleCoversDeal(t *testing.T) {
	seat := &scriptedAgent{bets: []int{5}, actions: []engine.Action{engine.Stand, engine.Stand, engine.Stand}}
	tbl, sink, out := newTestTable(100, seat,
		card(engine.Two, engine.Spades), card(engine.Three, engine.Hearts), card(engine.Four, engine.Clubs),
	)
	tbl.ReshuffleAt = 3
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Shuffling a fresh deck.") {
		t.Fatalf("three cards cannot cover the deal but no reshuffle:\n%s", out.String())
	}
	if len(sink.recs) != 1 {
		t.Fatalf("records %d, want 1", len(sink.recs))
	}
}

func TestTableHintsAndGrading(t *testing.T) {
	seat := &scriptedAgent{bets: []int{10}, actions: []engine.Action{engine.Stand}}
	tbl, _, out := newTestTable(100, seat,
		card(engine.King, engine.Spades), card(engine.Queen, engine.Hearts),
		card(engine.Six, engine.Clubs), card(engine.Ten, engine.Diamonds),
		card(engine.Nine, engine.Clubs),
	)
	tbl.Hints = true
	tbl.JudgeTrials = 500
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Hint: stand") || !strings.Contains(out.String(), " EV ") {
		t.Fatalf("hint missing:\n%s", out.String())
	}
	if tbl.Stats.Decisions != 1 || tbl.Stats.TopDecisions != 1 {
		t.Fatalf("standing on 20 should grade as top: %+v", tbl.Stats)
	}
}

func TestTableLogFailureStopsSession(t *testing.T) {
	seat := &scriptedAgent{bets: []int{10, 10}, actions: []engine.Action{engine.Stand, engine.Stand}}
	tbl, sink, _ := newTestTable(100, seat,
		card(engine.Ten, engine.Spades), card(engine.Nine, engine.Hearts),
		card(engine.Ten, engine.Clubs), card(engine.Seven, engine.Diamonds),
	)
	tbl.MaxRounds = 0
	sink.err = errors.New("disk full")
	if err := tbl.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("err = %v, want the log failure", err)
	}
	if tbl.Rounds() != 1 {
		t.Fatalf("played %d rounds after a log failure", tbl.Rounds())
	}
}

func TestTableWritesResultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	rl, err := store.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seat := &scriptedAgent{bets: []int{10}, actions: []engine.Action{engine.Stand}}
	tbl := newTable(engine.NewStackedDeck(
		card(engine.Ace, engine.Spades), card(engine.King, engine.Hearts),
		card(engine.Nine, engine.Clubs), card(engine.Eight, engine.Diamonds),
	), engine.NewPlayer(100), seat, rl, newConsole(io.Discard), nil, nil)
	tbl.MaxRounds = 1
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	var buf bytes.Buffer
	tbl.con = newConsole(&buf)
	tbl.summary()
	if !strings.Contains(buf.String(), "rounds 1  wins 1") {
		t.Fatalf("summary:\n%s", buf.String())
	}
}

func TestTableStopsOnCancel(t *testing.T) {
	seat := &scriptedAgent{bets: []int{10}}
	tbl, _, _ := newTestTable(100, seat)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tbl.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
