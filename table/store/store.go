package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNoPath = errors.New("result log path is required")

// Record is one round as written to the result log.
type Record struct {
	PlayerScore int
	DealerScore int
	PlayerChips int
}

// Winner compares the two scores and nothing else, so a busted player with
// the higher total is logged as the winner.
func (r Record) Winner() string {
	if r.PlayerScore > r.DealerScore {
		return "Player wins."
	}
	return "Dealer wins."
}

// Format renders the three-line block appended per round.
func (r Record) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Player Score: %d, Dealer Score: %d, Player Chips: %d\n", r.PlayerScore, r.DealerScore, r.PlayerChips)
	b.WriteString(r.Winner())
	b.WriteString("\n\n")
	return b.String()
}

// ResultLog appends round records to a plain text file. No handle is kept
// between writes.
type ResultLog struct {
	path string
}

// Open checks that path can be appended to and returns the log.
func Open(path string) (*ResultLog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrNoPath
	}
	l := &ResultLog{path: filepath.Clean(path)}
	f, err := l.open()
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close result log: %w", err)
	}
	return l, nil
}

func (l *ResultLog) Path() string { return l.path }

func (l *ResultLog) open() (*os.File, error) {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open result log: %w", err)
	}
	return f, nil
}

// Append writes one record with a scoped open-append-close.
func (l *ResultLog) Append(ctx context.Context, rec Record) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := l.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close result log: %w", cerr)
		}
	}()
	if _, err := f.WriteString(rec.Format()); err != nil {
		return fmt.Errorf("write result log: %w", err)
	}
	return nil
}
