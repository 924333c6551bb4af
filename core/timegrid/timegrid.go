// Package timegrid owns the canonical full-period time index of a case study
// and the active sub-window sliced out of it.
package timegrid

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/karimcy/SEMDR/core/logger"
)

// ErrConfig indicates an invalid year or frequency at construction.
var ErrConfig = errors.New("timegrid: invalid configuration")

// ErrRange indicates a window request outside the full index.
var ErrRange = errors.New("timegrid: window out of range")

// Freq is the step width of the time index in minutes.
type Freq int

const (
	Freq1  Freq = 1
	Freq5  Freq = 5
	Freq15 Freq = 15
	Freq30 Freq = 30
	Freq60 Freq = 60
)

// ParseFreq parses strings like "15min" into a Freq.
func ParseFreq(s string) (Freq, error) {
	switch s {
	case "1min":
		return Freq1, nil
	case "5min":
		return Freq5, nil
	case "15min":
		return Freq15, nil
	case "30min":
		return Freq30, nil
	case "60min":
		return Freq60, nil
	}
	return 0, fmt.Errorf("%w: frequency %q not in {1min,5min,15min,30min,60min}", ErrConfig, s)
}

func (f Freq) String() string { return fmt.Sprintf("%dmin", int(f)) }

// Valid reports whether f is one of the enumerated step widths.
func (f Freq) Valid() bool {
	switch f {
	case Freq1, Freq5, Freq15, Freq30, Freq60:
		return true
	}
	return false
}

// StepWidthHours returns the step width in hours, e.g. 0.25 for 15min.
func (f Freq) StepWidthHours() float64 { return float64(f) / 60 }

// Bound addresses a position in the full index, either as an integer offset
// or as a date substring like "May1 00:00" or "05-01". The zero value is an
// open bound.
type Bound struct {
	offset int
	date   string
	isSet  bool
	isDate bool
}

// At returns a Bound addressing the given integer offset.
func At(offset int) Bound { return Bound{offset: offset, isSet: true} }

// On returns a Bound addressing a date substring, resolved against the index.
func On(date string) Bound { return Bound{date: date, isSet: true, isDate: true} }

// Grid holds the full-year time index and the active window (t1, t2).
type Grid struct {
	year int
	freq Freq
	full []time.Time
	t1   int
	t2   int
	log  logger.Logger
}

// New builds the full index for the given calendar year at the given
// frequency. The window initially spans the whole index.
func New(year int, freq Freq, log logger.Logger) (*Grid, error) {
	if year < 1980 || year >= 2100 {
		return nil, fmt.Errorf("%w: year %d outside [1980, 2100)", ErrConfig, year)
	}
	if !freq.Valid() {
		return nil, fmt.Errorf("%w: frequency %d not in {1,5,15,30,60} minutes", ErrConfig, int(freq))
	}
	step := time.Duration(freq) * time.Minute
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	full := make([]time.Time, 0, int(end.Sub(start)/step))
	for ts := start; ts.Before(end); ts = ts.Add(step) {
		full = append(full, ts)
	}
	return &Grid{
		year: year,
		freq: freq,
		full: full,
		t1:   0,
		t2:   len(full) - 1,
		log:  logger.OrNop(log),
	}, nil
}

func (g *Grid) Year() int  { return g.year }
func (g *Grid) Freq() Freq { return g.freq }

// Len is the number of steps in the full index.
func (g *Grid) Len() int { return len(g.full) }

// T1 and T2 are the inclusive offsets of the active window.
func (g *Grid) T1() int { return g.t1 }
func (g *Grid) T2() int { return g.t2 }

// Steps is the number of steps in the active window.
func (g *Grid) Steps() int { return g.t2 - g.t1 + 1 }

// FullIndex returns the full time index. The slice must not be mutated.
func (g *Grid) FullIndex() []time.Time { return g.full }

// CustomIndex returns the active window slice of the full index.
func (g *Grid) CustomIndex() []time.Time { return g.full[g.t1 : g.t2+1] }

// At returns the timestamp of window step t (0 = start of window).
func (g *Grid) At(t int) time.Time { return g.full[g.t1+t] }

// WindowHours is the total duration of the active window in hours.
func (g *Grid) WindowHours() float64 {
	return float64(g.Steps()) * g.freq.StepWidthHours()
}

// YearHours is the total duration of the full index in hours.
func (g *Grid) YearHours() float64 {
	return float64(len(g.full)) * g.freq.StepWidthHours()
}

// PartYearComp compensates part-year windows so that annual sums keep their
// magnitude, e.g. 8760/24 for a one-day window at 60min in a non-leap year.
func (g *Grid) PartYearComp() float64 { return g.YearHours() / g.WindowHours() }

// SetWindow sets the active window from a start bound and an end bound.
func (g *Grid) SetWindow(start, end Bound) error {
	return g.setWindow(start, 0, end)
}

// SetWindowSteps sets the active window from a start bound and a step count.
func (g *Grid) SetWindowSteps(start Bound, steps int) error {
	return g.setWindow(start, steps, Bound{})
}

func (g *Grid) setWindow(start Bound, steps int, end Bound) error {
	t1 := 0
	if start.isSet {
		var err error
		if t1, err = g.resolveFirst(start); err != nil {
			return err
		}
	}
	var t2 int
	switch {
	case steps > 0 && end.isSet:
		return fmt.Errorf("%w: give either steps or an end bound, not both", ErrRange)
	case steps > 0:
		if t1+steps > len(g.full) {
			return fmt.Errorf("%w: %d steps from offset %d exceed index length %d", ErrRange, steps, t1, len(g.full))
		}
		t2 = t1 + steps - 1
	case end.isSet:
		var err error
		if t2, err = g.resolveLast(end); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: either steps or an end bound must be given", ErrRange)
	}
	if t1 < 0 || t2 < t1 || t2 >= len(g.full) {
		return fmt.Errorf("%w: resolved window (%d, %d) invalid for index length %d", ErrRange, t1, t2, len(g.full))
	}
	g.t1, g.t2 = t1, t2
	return nil
}

// RollingHorizon recomputes t2 so that the window covers the given look-ahead
// in hours from the unchanged t1. A horizon that exceeds the available data
// degrades to the full remaining range and is logged as a warning.
func (g *Grid) RollingHorizon(hours int) {
	steps := int(float64(hours) / g.freq.StepWidthHours())
	if g.t1+steps > len(g.full) {
		g.log.Warnf("horizon of %dh exceeds available data, using full remaining range", hours)
		steps = len(g.full) - g.t1
	}
	g.t2 = g.t1 + steps - 1
}

// Timeslice resolves two optional date substrings into inclusive offsets into
// the full index, usable for display slicing. Either bound may be empty.
func (g *Grid) Timeslice(start, stop string) (int, int, error) {
	from, to := 0, len(g.full)-1
	if start != "" {
		var err error
		if from, err = g.resolveFirst(On(start)); err != nil {
			return 0, 0, err
		}
	}
	if stop != "" {
		var err error
		if to, err = g.resolveLast(On(stop)); err != nil {
			return 0, 0, err
		}
	}
	if from > to {
		return 0, 0, fmt.Errorf("%w: timeslice start %d after stop %d", ErrRange, from, to)
	}
	return from, to, nil
}

var dateLayouts = []struct {
	layout  string
	hasTime bool
}{
	{"Jan2 15:04", true},
	{"Jan2", false},
	{"01-02 15:04", true},
	{"01-02", false},
}

func (g *Grid) parseDate(s string) (time.Time, bool, error) {
	for _, l := range dateLayouts {
		parsed, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		target := time.Date(g.year, parsed.Month(), parsed.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
		return target, l.hasTime, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: cannot resolve date substring %q", ErrRange, s)
}

func (g *Grid) resolveFirst(b Bound) (int, error) {
	if !b.isDate {
		if b.offset < 0 || b.offset >= len(g.full) {
			return 0, fmt.Errorf("%w: offset %d outside index length %d", ErrRange, b.offset, len(g.full))
		}
		return b.offset, nil
	}
	target, _, err := g.parseDate(b.date)
	if err != nil {
		return 0, err
	}
	i := sort.Search(len(g.full), func(i int) bool { return !g.full[i].Before(target) })
	if i == len(g.full) {
		return 0, fmt.Errorf("%w: %q is past the end of the index", ErrRange, b.date)
	}
	return i, nil
}

func (g *Grid) resolveLast(b Bound) (int, error) {
	if !b.isDate {
		if b.offset < 0 || b.offset >= len(g.full) {
			return 0, fmt.Errorf("%w: offset %d outside index length %d", ErrRange, b.offset, len(g.full))
		}
		return b.offset, nil
	}
	target, hasTime, err := g.parseDate(b.date)
	if err != nil {
		return 0, err
	}
	limit := target
	if !hasTime {
		limit = target.Add(24 * time.Hour)
	} else {
		limit = limit.Add(time.Nanosecond)
	}
	i := sort.Search(len(g.full), func(i int) bool { return !g.full[i].Before(limit) })
	if i == 0 {
		return 0, fmt.Errorf("%w: %q is before the start of the index", ErrRange, b.date)
	}
	return i - 1, nil
}
