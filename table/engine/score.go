package engine

const blackjack = 21

// score returns the best total and how many Aces are still counted as 11.
func score(cards []Card) (total, softAces int) {
	for _, c := range cards {
		total += c.Rank.Points()
		if c.Rank == Ace {
			softAces++
		}
	}
	for total > blackjack && softAces > 0 {
		total -= 10
		softAces--
	}
	return total, softAces
}

// Score is the best blackjack total of cards. Each Ace counts 11 and is
// reduced to 1, one at a time, while the total is over 21.
func Score(cards []Card) int {
	total, _ := score(cards)
	return total
}

// HasBlackjack reports a total of exactly 21, however many cards it took.
func HasBlackjack(cards []Card) bool { return Score(cards) == blackjack }

func IsBust(cards []Card) bool { return Score(cards) > blackjack }

// IsSoft reports whether an Ace is still being counted as 11.
func IsSoft(cards []Card) bool {
	_, soft := score(cards)
	return soft > 0
}
