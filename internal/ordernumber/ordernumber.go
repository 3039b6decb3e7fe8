// Package ordernumber mints human readable order numbers of the form
// SPS-YYMMDD-NNNNN from an atomic per-day sequence.
package ordernumber

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

const (
	Prefix    = "SPS"
	dayLayout = "060102"
	// MaxSequence is the largest sequence that fits five digits.
	MaxSequence = 99999
)

var (
	ErrSequenceExhausted = errors.New("daily order sequence exhausted")

	pattern = regexp.MustCompile(`^SPS-\d{6}-\d{5}$`)
)

// Sequencer reserves the next sequence value for a day key (YYMMDD).
// Values start at 1 and must never repeat for the same day.
type Sequencer interface {
	Next(ctx context.Context, day string) (int64, error)
}

// DayKey formats t as the YYMMDD day key.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

func Format(day string, seq int64) string {
	return fmt.Sprintf("%s-%s-%05d", Prefix, day, seq)
}

// Valid reports whether s is a well formed order number.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

type Generator struct {
	seq Sequencer
	loc *time.Location
	now func() time.Time
}

// NewGenerator builds a generator whose calendar day is taken in loc.
func NewGenerator(seq Sequencer, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{seq: seq, loc: loc, now: time.Now}
}

// WithClock replaces the time source, used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Today returns the current day key.
func (g *Generator) Today() string {
	return DayKey(g.now().In(g.loc))
}

// Next reserves and formats the next order number for today.
func (g *Generator) Next(ctx context.Context) (string, error) {
	day := g.Today()
	n, err := g.seq.Next(ctx, day)
	if err != nil {
		return "", fmt.Errorf("reserve order sequence for %s: %w", day, err)
	}
	if n > MaxSequence {
		return "", ErrSequenceExhausted
	}
	return Format(day, n), nil
}
