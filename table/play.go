package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"blackjack-table/table/agent"
	"blackjack-table/table/engine"
	"blackjack-table/table/judge"
	"blackjack-table/table/store"
)

// resultSink receives one record per settled round.
type resultSink interface {
	Append(ctx context.Context, rec store.Record) error
}

// Table runs rounds for a single seat until the chips run out.
type Table struct {
	Deck   *engine.Deck
	Player *engine.Player
	Dealer *engine.Dealer
	Agent  agent.Agent
	Log    resultSink
	Stats  *SessionStats

	SessionID   string
	ReshuffleAt int // 0 keeps one deck for the whole session
	MaxRounds   int // 0 = until broke
	Hints       bool
	JudgeTrials int // 0 disables hints and grading

	con    *console
	rng    *rand.Rand
	tracer trace.Tracer
	rounds int
}

// newTable wires a table. A nil tracer records nothing.
func newTable(deck *engine.Deck, player *engine.Player, seat agent.Agent, sink resultSink, con *console, rng *rand.Rand, tracer trace.Tracer) *Table {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Table{
		Deck:   deck,
		Player: player,
		Dealer: engine.NewDealer(),
		Agent:  seat,
		Log:    sink,
		Stats:  &SessionStats{},
		con:    con,
		rng:    rng,
		tracer: tracer,
	}
}

func (t *Table) Rounds() int { return t.rounds }

// Run plays rounds while the player has chips. It returns nil when the
// chips or the round limit run out, and the first error otherwise.
func (t *Table) Run(ctx context.Context) error {
	for t.Player.Balance() > 0 {
		if t.MaxRounds > 0 && t.rounds >= t.MaxRounds {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		t.rounds++
		if err := t.playRound(ctx, fmt.Sprintf("r%d", t.rounds)); err != nil {
			return err
		}
	}
	return nil
}

// maybeReshuffle replaces a low deck before the bet. A threshold below the
// initial deal still refills a deck that cannot cover it.
func (t *Table) maybeReshuffle() {
	if t.ReshuffleAt <= 0 {
		return
	}
	threshold := max(t.ReshuffleAt, engine.InitialDealCards)
	if t.Deck.Remaining() >= threshold {
		return
	}
	log.Printf("reshuffle: %d cards left (threshold %d)", t.Deck.Remaining(), threshold)
	t.Deck.Reset()
	t.con.printf("%s\n", dim("Shuffling a fresh deck."))
}

func (t *Table) playRound(ctx context.Context, id string) (err error) {
	ctx, span := t.tracer.Start(ctx, "round", trace.WithAttributes(
		attribute.String("session.id", t.SessionID),
		attribute.String("round.id", id),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	t.maybeReshuffle()
	t.con.section(fmt.Sprintf("Round %d", t.rounds))
	r := engine.NewRound(id, t.Deck, t.Player, t.Dealer)
	// A round that stops before settling hands back its stake and both hands.
	defer func() {
		if err != nil && r.Phase != engine.PhaseSettled {
			refund := r.Abort()
			log.Printf("round %s aborted, %d chips refunded: %v", id, refund, err)
		}
	}()

	for {
		amount, err := t.Agent.Bet(ctx, t.Player.Balance())
		if err != nil {
			return err
		}
		err = r.PlaceBet(amount)
		if errors.Is(err, engine.ErrInvalidBet) || errors.Is(err, engine.ErrInsufficientChips) {
			t.con.printf("%s\n", bad(err.Error()))
			continue
		}
		if err != nil {
			return err
		}
		break
	}
	span.SetAttributes(attribute.Int("round.bet", r.Bet))

	if err := r.Deal(); err != nil {
		return fmt.Errorf("round %s aborted: %w", id, err)
	}
	natural := r.Player.HasBlackjack()
	t.con.printf("Your hand: %s\n", blue(handLine(r.Player.Hand())))
	if up, ok := r.Dealer.UpCard(); ok {
		t.con.printf("Dealer shows: %s\n", cyan(up.Short()))
	}
	if natural {
		t.con.printf("%s\n", good("Blackjack!"))
	}

	if err := t.playerTurn(ctx, r); err != nil {
		return err
	}

	if r.Phase == engine.PhaseDealerTurn {
		t.con.printf("Dealer's hand: %s\n", cyan(handLine(r.Dealer.Hand())))
		drawn, err := r.PlayDealer()
		if err != nil {
			return err
		}
		for _, card := range drawn {
			t.con.printf("Dealer draws %s.\n", cyan(card.Short()))
		}
		if r.Dealer.Score() < engine.DealerStandsOn {
			log.Printf("round %s: deck ran out during the dealer's turn", id)
		}
		t.con.printf("Dealer's hand: %s\n", cyan(handLine(r.Dealer.Hand())))
	}

	res, err := r.Resolve()
	if err != nil {
		return err
	}
	t.announce(res)
	t.Stats.Record(res, natural)
	span.SetAttributes(
		attribute.Int("round.player_score", res.PlayerScore),
		attribute.Int("round.dealer_score", res.DealerScore),
		attribute.String("round.winner", string(res.Winner)),
		attribute.Int("round.balance", res.Balance),
	)

	rec := store.Record{PlayerScore: res.PlayerScore, DealerScore: res.DealerScore, PlayerChips: res.Balance}
	if err := t.Log.Append(ctx, rec); err != nil {
		return fmt.Errorf("round %s: %w", id, err)
	}
	return r.Clear()
}

func (t *Table) playerTurn(ctx context.Context, r *engine.Round) error {
	for r.Phase == engine.PhasePlayerTurn {
		obs := agent.BuildObservation(r)
		est, judged := t.estimate(ctx, obs)
		if judged && t.Hints {
			t.con.printf("%s\n", mag(fmt.Sprintf("Hint: %s (stand %.0f%% EV %+.1f, hit %.0f%% EV %+.1f)",
				est.Best(), 100*est.Stand, judge.EV(est.Stand, obs.Bet), 100*est.Hit, judge.EV(est.Hit, obs.Bet))))
		}

		act, err := t.Agent.Decide(ctx, obs)
		if err != nil {
			return err
		}
		if err := agent.Validate(obs, act); err != nil {
			t.con.printf("%s\n", bad(err.Error()))
			continue
		}
		card, err := r.Apply(act)
		if errors.Is(err, engine.ErrEmptyDeck) {
			log.Printf("round %s: deck is empty, player stands", r.ID)
			t.con.printf("%s\n", warn("The deck is empty. You stand."))
			if err := r.Stand(); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if judged {
			t.Stats.Grade(judge.Grade(est, act))
		}
		if act != engine.Hit {
			continue
		}
		t.con.printf("You draw %s. Your hand: %s\n", blue(card.Short()), blue(handLine(r.Player.Hand())))
		if r.Busted {
			t.con.printf("%s\n", bad("Bust!"))
		}
	}
	return nil
}

// estimate asks the judge about the current decision. The second result is
// false when judging is off or failed.
func (t *Table) estimate(ctx context.Context, obs agent.Observation) (judge.Estimate, bool) {
	if t.JudgeTrials <= 0 {
		return judge.Estimate{}, false
	}
	est, err := judge.Evaluate(ctx, obs.Cards, obs.DealerCard, t.JudgeTrials, t.rng)
	if err != nil {
		log.Printf("judge: %v", err)
		return judge.Estimate{}, false
	}
	return est, true
}

func (t *Table) announce(res engine.Result) {
	switch {
	case res.PlayerBust:
		t.con.printf("%s You lose %s chips.\n", bad("You busted."), t.con.chips(res.Bet))
	case res.Winner == engine.PlayerSide && res.DealerBust:
		t.con.printf("%s You win %s chips.\n", good("Dealer busts."), t.con.chips(res.Bet))
	case res.Winner == engine.PlayerSide:
		t.con.printf("%s %d to %d. You win %s chips.\n", good("You win!"), res.PlayerScore, res.DealerScore, t.con.chips(res.Bet))
	case res.PlayerScore == res.DealerScore:
		t.con.printf("%s %d all, the dealer takes ties.\n", warn("Tie."), res.PlayerScore)
	default:
		t.con.printf("%s %d to %d.\n", bad("Dealer wins."), res.DealerScore, res.PlayerScore)
	}
	t.con.printf("Chips: %s\n", bold(t.con.chips(res.Balance)))
}

// summary prints the session statistics.
func (t *Table) summary() {
	s := t.Stats
	t.con.section("Session")
	if s.Rounds == 0 {
		t.con.printf("No rounds played.\n")
		return
	}
	lo, hi := s.WinCI95()
	t.con.sub("Results")
	t.con.printf("  rounds %d  wins %d  busts %d  dealer busts %d  blackjacks %d\n",
		s.Rounds, s.Wins, s.Busts, s.DealerBusts, s.Naturals)
	t.con.printf("  win rate %.1f%% (95%% CI %.1f%%-%.1f%%)\n", 100*s.WinRate(), 100*lo, 100*hi)
	net := t.con.chips(s.NetChips)
	if s.NetChips > 0 {
		net = "+" + net
	}
	nlo, nhi := s.NetPerRoundCI95(t.rng, 1000)
	t.con.printf("  net chips %s (per round 95%% CI %.1f to %.1f)\n", net, nlo, nhi)
	if s.Decisions > 0 {
		t.con.sub("Decisions")
		t.con.printf("  %d judged, %.0f%% matched the best action, mean gap %.3f\n",
			s.Decisions, 100*s.Accuracy(), s.GapSum/float64(s.Decisions))
	}
	if id := strings.TrimSpace(t.SessionID); id != "" {
		t.con.printf("%s\n", dim("session "+id))
	}
}
