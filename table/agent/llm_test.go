package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"blackjack-table/table/engine"
)

type fakeChooser struct {
	reply string
	err   error
	users []string
}

func (f *fakeChooser) ChooseAction(ctx context.Context, system, user string, legal []string) (string, string, error) {
	f.users = append(f.users, user)
	return f.reply, f.reply, f.err
}

func TestLLMDecides(t *testing.T) {
	m := &fakeChooser{reply: "hit"}
	seat := NewLLM(m, 15, NewBot(15, 0, nil))
	obs := Observation{RoundID: "r3", Score: 12, DealerUp: "10♠", Legal: []string{"hit", "stand"}}
	got, err := seat.Decide(context.Background(), obs)
	if err != nil || got != engine.Hit {
		t.Fatalf("got %s, %v", got, err)
	}
	if seat.Calls != 1 || seat.Fallbacks != 0 {
		t.Fatalf("calls=%d fallbacks=%d", seat.Calls, seat.Fallbacks)
	}
	if !strings.Contains(m.users[0], `"dealer_up":"10♠"`) {
		t.Fatalf("observation not sent as json: %s", m.users[0])
	}
	if bet, _ := seat.Bet(context.Background(), 9); bet != 9 {
		t.Fatalf("bet = %d, want balance cap 9", bet)
	}
}

func TestLLMFallsBack(t *testing.T) {
	obs := Observation{Score: 19, Legal: []string{"hit", "stand"}}
	for _, m := range []*fakeChooser{{err: errors.New("timeout")}, {reply: "double"}} {
		seat := NewLLM(m, 10, NewBot(10, 0, nil))
		got, err := seat.Decide(context.Background(), obs)
		if err != nil || got != engine.Stand {
			t.Fatalf("fallback got %s, %v", got, err)
		}
		if seat.Fallbacks != 1 {
			t.Fatalf("fallbacks = %d", seat.Fallbacks)
		}
	}
}

func TestLLMCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	seat := NewLLM(&fakeChooser{err: context.Canceled}, 10, nil)
	if _, err := seat.Decide(ctx, Observation{Legal: []string{"hit", "stand"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
