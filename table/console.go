package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"blackjack-table/table/agent"
	"blackjack-table/table/engine"
)

//
// ===== pretty printing =====
//

var useColor bool

const (
	colReset  = "\033[0m"
	colBold   = "\033[1m"
	colDim    = "\033[2m"
	colGreen  = "\033[32m"
	colRed    = "\033[31m"
	colYellow = "\033[33m"
	colBlue   = "\033[34m"
	colMag    = "\033[35m"
	colCyan   = "\033[36m"
)

func c(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colReset
}

func bold(s string) string { return c(colBold, s) }
func dim(s string) string  { return c(colDim, s) }
func good(s string) string { return c(colGreen, s) }
func warn(s string) string { return c(colYellow, s) }
func bad(s string) string  { return c(colRed, s) }
func cyan(s string) string { return c(colCyan, s) }
func mag(s string) string  { return c(colMag, s) }
func blue(s string) string { return c(colBlue, s) }

// handLine renders cards with their best total, e.g. "A♠ K♥ (21)".
func handLine(cards []engine.Card) string {
	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = card.Short()
	}
	return fmt.Sprintf("%s (%d)", strings.Join(parts, " "), engine.Score(cards))
}

// console writes player-facing text. Operational events go to the log.
type console struct {
	out io.Writer
	p   *message.Printer
}

func newConsole(out io.Writer) *console {
	return &console{out: out, p: message.NewPrinter(language.English)}
}

func (con *console) printf(format string, args ...any) {
	fmt.Fprintf(con.out, format, args...)
}

func (con *console) section(title string) {
	con.printf("\n%s %s %s\n", dim("──"), bold(title), dim("──"))
}

func (con *console) sub(title string) { con.printf("%s %s\n", dim("•"), bold(title)) }

// chips groups thousands: 12500 -> "12,500".
func (con *console) chips(n int) string { return con.p.Sprintf("%d", n) }

// consoleAgent is the interactive seat. It re-prompts until the input
// parses; end of input ends the session with io.EOF.
type consoleAgent struct {
	in  *bufio.Scanner
	con *console
}

func newConsoleAgent(in io.Reader, con *console) *consoleAgent {
	return &consoleAgent{in: bufio.NewScanner(in), con: con}
}

func (a *consoleAgent) readLine(ctx context.Context) (string, error) {
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.in.Text(), nil
}

func (a *consoleAgent) Bet(ctx context.Context, balance int) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		a.con.printf("You have %s chips. Place your bet: ", bold(a.con.chips(balance)))
		line, err := a.readLine(ctx)
		if err != nil {
			return 0, err
		}
		n, err := agent.ParseBet(line, balance)
		if err != nil {
			a.con.printf("%s\n", bad(err.Error()))
			continue
		}
		return n, nil
	}
}

func (a *consoleAgent) Decide(ctx context.Context, obs agent.Observation) (engine.Action, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		a.con.printf("Hit or stand? (h/s): ")
		line, err := a.readLine(ctx)
		if err != nil {
			return "", err
		}
		act, err := agent.ParseAction(line)
		if err == nil {
			err = agent.Validate(obs, act)
		}
		if err != nil {
			a.con.printf("%s\n", bad(err.Error()))
			continue
		}
		return act, nil
	}
}

var _ agent.Agent = (*consoleAgent)(nil)
