package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	mrand "math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"

	"blackjack-table/table/agent"
	"blackjack-table/table/config"
	"blackjack-table/table/engine"
	"blackjack-table/table/llm"
	"blackjack-table/table/store"
	"blackjack-table/table/telemetry"
)

var debugState bool

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("[TABLE] ")
	config.Load()

	useColor = (os.Getenv("NO_COLOR") == "") && (strings.TrimSpace(os.Getenv("USE_COLOR")) != "0")

	cfg, err := config.Parse(flag.NewFlagSet(os.Args[0], flag.ExitOnError), os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	debugState = cfg.Debug

	if err := run(cfg, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel)

	results, err := store.Open(cfg.ResultLog)
	if err != nil {
		return err
	}

	base := uint64(cfg.Seed)
	if base == 0 {
		base = secureBaseSeed()
	}
	seeds := newSeedStream(base)
	deck := engine.NewSeededDeck(int64(seeds.next()))
	judgeRNG := mrand.New(mrand.NewSource(int64(seeds.next())))

	session := uuid.NewString()
	log.Printf("session %s: seed=%d chips=%d log=%s reshuffle-at=%d auto=%v",
		session, base, cfg.StartingChips, results.Path(), cfg.ReshuffleAt, cfg.Auto)

	traces, err := telemetry.Setup(ctx, telemetry.Settings{
		Service:     "blackjack-table",
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
		SessionID:   session,
	})
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else if traces.Enabled() {
		log.Printf("tracing rounds to %s (sample ratio %g)", cfg.OTelEndpoint, cfg.OTelSampleRatio)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := traces.Shutdown(sctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	con := newConsole(out)
	var seat agent.Agent = newConsoleAgent(in, con)
	bot := agent.NewBot(cfg.AutoBet, cfg.JudgeTrials, mrand.New(mrand.NewSource(int64(seeds.next()))))
	var llmSeat *agent.LLM
	switch {
	case cfg.Auto:
		seat = bot
	case cfg.LLMModel != "":
		client, err := llm.New(cfg.LLMModel)
		if err != nil {
			return fmt.Errorf("llm seat: %w", err)
		}
		log.Printf("llm seat: %s via %s", client.Model(), client.Provider())
		llmSeat = agent.NewLLM(client, cfg.AutoBet, bot)
		seat = llmSeat
	}

	t := newTable(deck, engine.NewPlayer(cfg.StartingChips), seat, results, con, judgeRNG, traces.Tracer())
	t.SessionID = session
	t.ReshuffleAt = cfg.ReshuffleAt
	t.MaxRounds = cfg.MaxRounds
	t.Hints = cfg.Hints
	t.JudgeTrials = cfg.JudgeTrials

	con.section("Blackjack")
	con.printf("Starting with %s chips. Dealer stands on %d; ties go to the dealer.\n",
		bold(con.chips(cfg.StartingChips)), engine.DealerStandsOn)

	runErr := t.Run(ctx)
	if debugState {
		log.Printf("session %s: %d rounds, %d cards left in the deck", session, t.Rounds(), deck.Remaining())
	}
	switch {
	case runErr == nil && t.Player.Balance() <= 0:
		con.printf("\n%s\n", bad("You're out of chips. Game over."))
	case runErr == nil:
		con.printf("\n%s\n", dim(fmt.Sprintf("Stopping after %d rounds.", t.Rounds())))
	case errors.Is(runErr, io.EOF):
		con.printf("\n%s\n", dim("No more input. Leaving the table."))
		runErr = nil
	case errors.Is(runErr, context.Canceled):
		con.printf("\n%s\n", warn("Interrupted."))
		runErr = nil
	case errors.Is(runErr, engine.ErrEmptyDeck):
		con.printf("\n%s\n", bad("The deck ran out mid-deal. Your stake was returned."))
	}
	t.summary()
	if llmSeat != nil {
		con.printf("%s\n", dim(fmt.Sprintf("llm: %d calls, %d fallbacks", llmSeat.Calls, llmSeat.Fallbacks)))
	}
	return runErr
}

func watchSignals(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	cancel()
	// A second interrupt kills the process even while a prompt is waiting.
	signal.Stop(c)
}

//
// ===== randomness =====
//

type seedStream struct{ state uint64 }

func newSeedStream(base uint64) seedStream { return seedStream{state: base} }
func (s *seedStream) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z ^= z >> 30
	z *= 0xBF58476D1CE4E5B9
	z ^= z >> 27
	z *= 0x94D049BB133111EB
	z ^= z >> 31
	return z
}
func secureBaseSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err == nil {
		return binary.LittleEndian.Uint64(b[:]) ^ uint64(time.Now().UnixNano()) ^ uint64(os.Getpid())
	}
	return uint64(time.Now().UnixNano()) ^ 0xA5A5A5A5A5A5A5A5
}
