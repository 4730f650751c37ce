package main

import (
	"math"
	"math/rand"
	"sort"

	"blackjack-table/table/engine"
)

// SessionStats accumulates per-round outcomes for the summary printed at the
// end of a session.
type SessionStats struct {
	Rounds      int
	Wins        int
	Busts       int
	DealerBusts int
	Naturals    int
	NetChips    int

	Decisions    int
	TopDecisions int
	GapSum       float64

	deltas []float64
}

// Record adds a settled round. natural reports a two-card 21 at the deal.
func (s *SessionStats) Record(res engine.Result, natural bool) {
	s.Rounds++
	if natural {
		s.Naturals++
	}
	if res.PlayerBust {
		s.Busts++
	}
	if res.DealerBust && !res.PlayerBust {
		s.DealerBusts++
	}
	delta := -res.Bet
	if res.Winner == engine.PlayerSide {
		s.Wins++
		delta = res.Bet
	}
	s.NetChips += delta
	s.deltas = append(s.deltas, float64(delta))
}

// Grade adds one judged decision.
func (s *SessionStats) Grade(gap float64, top bool) {
	s.Decisions++
	s.GapSum += gap
	if top {
		s.TopDecisions++
	}
}

func (s *SessionStats) WinRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Rounds)
}

// Accuracy is the share of judged decisions that matched the best action.
func (s *SessionStats) Accuracy() float64 {
	if s.Decisions == 0 {
		return 0
	}
	return float64(s.TopDecisions) / float64(s.Decisions)
}

// WinCI95 is the Wilson interval of the win rate. Ties count as losses.
func (s *SessionStats) WinCI95() (low, hi float64) {
	return WilsonCI95(s.Wins, s.Rounds)
}

// NetPerRoundCI95 bootstraps the mean chip result per round.
func (s *SessionStats) NetPerRoundCI95(rng *rand.Rand, resamples int) (low, hi float64) {
	return BootstrapCI95(s.deltas, resamples, rng)
}

// WilsonCI95 for a Bernoulli rate of wins out of total.
func WilsonCI95(wins, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	z := 1.96
	n := float64(total)
	p := float64(wins) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt((p*(1-p))/n+(z*z)/(4*n*n))
	return (center - half) / den, (center + half) / den
}

// BootstrapCI95 for the mean of vals.
func BootstrapCI95(vals []float64, B int, rng *rand.Rand) (low, hi float64) {
	n := len(vals)
	if n == 0 || B <= 1 {
		return 0, 0
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	res := make([]float64, B)
	for b := 0; b < B; b++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += vals[rng.Intn(n)]
		}
		res[b] = sum / float64(n)
	}
	sort.Float64s(res)
	l := int(0.025 * float64(B-1))
	h := int(0.975 * float64(B-1))
	return res[l], res[h]
}
