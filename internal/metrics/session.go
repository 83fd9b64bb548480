package metrics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidDelta is returned when an input change is not a single glyph
	// appended or removed at the end.
	ErrInvalidDelta = errors.New("input changed by more than one glyph")
	// ErrPastTarget is returned when input would grow beyond the target.
	ErrPastTarget = errors.New("input longer than target")
)

// Live is the on-screen snapshot exposed while typing.
type Live struct {
	WPM      int
	Accuracy int
	Errors   int
}

// Goal describes when a session ends besides typing the whole target.
// Zero fields are disabled.
type Goal struct {
	Seconds float64
	Words   int
}

// Option configures a Session.
type Option func(*Session)

// WithRuneSegmentation compares text by code point instead of grapheme cluster.
// Code points never merge, so a typed glyph cannot grow in place.
func WithRuneSegmentation() Option {
	return func(s *Session) {
		s.segment = Runes
		s.clusters = false
	}
}

// Session ties the metric components together for one typing test. It is not
// safe for concurrent use; the controller feeds it one event at a time.
type Session struct {
	segment  Segmenter
	clusters bool

	target  []string
	typed   []string
	keys    *Accumulator
	errors  ErrorTypeCounts
	sampler *Sampler
	ticks   int
}

// NewSession starts a session for target.
func NewSession(target string, opts ...Option) *Session {
	s := &Session{
		segment:  Graphemes,
		clusters: true,
		keys:     NewAccumulator(),
		sampler:  NewSampler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset(target)
	return s
}

// Reset replaces the target and clears all state.
func (s *Session) Reset(target string) {
	s.target = s.segment(target)
	s.typed = nil
	s.keys.Reset()
	s.errors = ErrorTypeCounts{}
	s.sampler.Reset()
	s.ticks = 0
}

// Target returns the target glyphs.
func (s *Session) Target() []string {
	return s.target
}

// Typed returns the typed glyphs.
func (s *Session) Typed() []string {
	return s.typed
}

// Apply feeds the new content of the input buffer. Only a single glyph added
// or removed at the end is accepted, plus, with grapheme segmentation, the last
// glyph growing in place (a combining mark joining it). Anything else returns
// ErrInvalidDelta and leaves the session unchanged.
func (s *Session) Apply(newTyped string, elapsedSeconds float64) (Live, error) {
	next := s.segment(newTyped)
	switch {
	case len(next) == len(s.typed) && hasPrefix(next, s.typed):
		// Nothing changed.
	case len(next) == len(s.typed)+1 && hasPrefix(next, s.typed):
		if err := s.appendGlyph(next[len(next)-1]); err != nil {
			return s.Live(elapsedSeconds), err
		}
	case len(next)+1 == len(s.typed) && hasPrefix(s.typed, next):
		s.deleteGlyph()
	case s.grewInPlace(next):
		s.deleteGlyph()
		if err := s.appendGlyph(next[len(next)-1]); err != nil {
			return s.Live(elapsedSeconds), err
		}
	default:
		return s.Live(elapsedSeconds), fmt.Errorf("%w: %d -> %d glyphs", ErrInvalidDelta, len(s.typed), len(next))
	}
	return s.Live(elapsedSeconds), nil
}

// Type appends a single glyph.
func (s *Session) Type(g string, elapsedSeconds float64) (Live, error) {
	err := s.appendGlyph(g)
	return s.Live(elapsedSeconds), err
}

// Backspace removes the last glyph, if any.
func (s *Session) Backspace(elapsedSeconds float64) Live {
	if len(s.typed) > 0 {
		s.deleteGlyph()
	}
	return s.Live(elapsedSeconds)
}

// grewInPlace reports whether next equals the typed glyphs except that the last
// one was extended, e.g. "e" becoming "e\u0301".
func (s *Session) grewInPlace(next []string) bool {
	if !s.clusters || len(next) == 0 || len(next) != len(s.typed) {
		return false
	}
	last := len(next) - 1
	if !hasPrefix(next, s.typed[:last]) {
		return false
	}
	return len(next[last]) > len(s.typed[last]) && strings.HasPrefix(next[last], s.typed[last])
}

func (s *Session) appendGlyph(g string) error {
	pos := len(s.typed)
	if pos >= len(s.target) {
		return ErrPastTarget
	}
	expected := s.target[pos]
	s.keys.RecordKeystroke(g, expected)
	if g != expected {
		s.errors.Add(Classify(expected, g))
	}
	s.typed = append(s.typed, g)
	return nil
}

func (s *Session) deleteGlyph() {
	s.typed = s.typed[:len(s.typed)-1]
	s.keys.RecordDeletion()
}

// Live computes WPM, accuracy and error count for the current buffer.
func (s *Session) Live(elapsedSeconds float64) Live {
	correct := CountCorrect(s.target, s.typed)
	return Live{
		WPM:      WPM(correct, elapsedSeconds),
		Accuracy: Accuracy(correct, len(s.typed)),
		Errors:   len(s.typed) - correct,
	}
}

// Tick records the once-per-second sample and reports whether it was kept.
func (s *Session) Tick(elapsedSeconds float64) bool {
	s.ticks++
	return s.sampler.Tick(s.ticks, len(s.typed), elapsedSeconds)
}

// Sample records a keystroke-driven point for the current buffer.
func (s *Session) Sample(elapsedSeconds float64) {
	live := s.Live(elapsedSeconds)
	s.sampler.Sample(len(s.typed), live.WPM, live.Accuracy)
}

// Keystrokes returns a copy of the keystroke counters.
func (s *Session) Keystrokes() KeystrokeStats {
	return s.keys.Stats()
}

// ErrorTypes returns the mismatch categories recorded so far.
func (s *Session) ErrorTypes() ErrorTypeCounts {
	return s.errors
}

// Series returns a copy of the time series.
func (s *Session) Series() []Point {
	return s.sampler.Points()
}

// WordsTyped counts target words whose last glyph has been typed.
func (s *Session) WordsTyped() int {
	words := 0
	for i := 0; i < len(s.typed) && i < len(s.target); i++ {
		if isSpace(s.target[i]) {
			continue
		}
		if i+1 == len(s.target) || isSpace(s.target[i+1]) {
			words++
		}
	}
	return words
}

// Done reports whether any completion condition holds.
func (s *Session) Done(goal Goal, elapsedSeconds float64) bool {
	if len(s.target) > 0 && len(s.typed) >= len(s.target) {
		return true
	}
	if goal.Seconds > 0 && elapsedSeconds >= goal.Seconds {
		return true
	}
	return goal.Words > 0 && s.WordsTyped() >= goal.Words
}

// Finish closes the series and freezes the session into a Result.
func (s *Session) Finish(elapsedSeconds float64) Result {
	live := s.Live(elapsedSeconds)
	s.sampler.Finish(len(s.typed), live.WPM, live.Accuracy)
	return BuildResult(SummaryInput{
		Target:         s.target,
		Typed:          s.typed,
		ElapsedSeconds: elapsedSeconds,
		Keystrokes:     s.keys.Stats(),
		ErrorTypes:     s.errors,
		Series:         s.sampler.Points(),
	})
}

func hasPrefix(s, prefix []string) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}

func isSpace(g string) bool {
	return g == " " || g == "\n" || g == "\t"
}
