package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyAll(t *testing.T, s *Session, inputs []string, seconds float64) {
	t.Helper()
	for _, in := range inputs {
		_, err := s.Apply(in, seconds)
		require.NoError(t, err, "input %q", in)
	}
}

func TestCompare(t *testing.T) {
	target := Graphemes("cat")
	assert.Equal(t, []bool{true, false}, Compare(target, Graphemes("cx")))
	assert.Equal(t, []bool{true, true, true, false}, Compare(target, Graphemes("cats")))
	assert.Empty(t, Compare(target, nil))
	assert.Equal(t, []bool{true, false, true}, Compare(Graphemes("a b"), Graphemes("axb")))
	assert.Equal(t, 2, CountCorrect(target, Graphemes("cxt!")))
	assert.Equal(t, []int{1, 3}, Mismatches(target, Graphemes("cxt!")))
}

func TestSessionCleanRun(t *testing.T) {
	s := NewSession("cat")
	applyAll(t, s, []string{"c", "ca", "cat"}, 6)
	require.True(t, s.Done(Goal{}, 6))

	res := s.Finish(6)
	assert.Equal(t, 6, res.WPM)
	assert.Equal(t, 30, res.CPM)
	assert.Equal(t, 100, res.Accuracy)
	assert.Equal(t, 0, res.Errors)
	assert.Equal(t, map[string]int{"C": 1, "A": 1, "T": 1}, res.Keystrokes.KeyCounts)
	assert.Equal(t, ErrorTypeCounts{}, res.ErrorTypes)
	assert.Equal(t, 3, res.Keystrokes.Total)
	assert.Equal(t, 3, res.Keystrokes.Correct)
	require.NotEmpty(t, res.Series)
	assert.Equal(t, 3, res.Series[len(res.Series)-1].X)
	require.NotNil(t, res.Consistency)
}

func TestSessionWithErrors(t *testing.T) {
	s := NewSession("Hi!")
	applyAll(t, s, []string{"h", "hi", "hi?"}, 3)

	res := s.Finish(3)
	assert.Equal(t, ErrorTypeCounts{Case: 1, Punctuation: 1}, res.ErrorTypes)
	assert.Equal(t, 33, res.Accuracy)
	assert.Equal(t, 2, res.Errors)
	assert.Equal(t, 1, res.Keystrokes.Correct)
	assert.Equal(t, 2, res.Keystrokes.Incorrect)
}

func TestSessionErrorsNotRecountedOnBackspace(t *testing.T) {
	s := NewSession("ab")
	applyAll(t, s, []string{"x", "", "a", "ab"}, 2)

	res := s.Finish(2)
	assert.Equal(t, ErrorTypeCounts{Other: 1}, res.ErrorTypes)
	assert.Equal(t, 100, res.Accuracy)
	assert.Equal(t, 0, res.Errors)
	assert.Equal(t, 3, res.Keystrokes.Total)
	assert.Equal(t, 1, res.Keystrokes.Extra)
	assert.Equal(t, res.Keystrokes.Correct+res.Keystrokes.Incorrect, res.Keystrokes.Total)
}

func TestSessionRejectsMultiGlyphDelta(t *testing.T) {
	s := NewSession("hello")
	_, err := s.Apply("hel", 1)
	assert.True(t, errors.Is(err, ErrInvalidDelta))
	assert.Empty(t, s.Typed())
	assert.Equal(t, 0, s.Keystrokes().Total)

	applyAll(t, s, []string{"h", "he"}, 1)
	_, err = s.Apply("xe", 1)
	assert.True(t, errors.Is(err, ErrInvalidDelta))
	assert.Equal(t, []string{"h", "e"}, s.Typed())
}

func TestSessionRejectsInputPastTarget(t *testing.T) {
	s := NewSession("a")
	applyAll(t, s, []string{"a"}, 1)
	_, err := s.Apply("ab", 1)
	assert.True(t, errors.Is(err, ErrPastTarget))
	assert.Len(t, s.Typed(), 1)
}

func TestSessionNoChangeIsAccepted(t *testing.T) {
	s := NewSession("ab")
	_, err := s.Apply("", 0)
	require.NoError(t, err)
	applyAll(t, s, []string{"a", "a"}, 1)
	assert.Equal(t, 1, s.Keystrokes().Total)
}

func TestSessionReplayIsDeterministic(t *testing.T) {
	events := []string{"T", "Th", "T", "Th", "The", "The ", "The q", "The qu", "The q", "The qi", "The qic"}
	run := func() KeystrokeStats {
		s := NewSession("The quick")
		for _, ev := range events {
			_, err := s.Apply(ev, 4)
			require.NoError(t, err)
		}
		return s.Keystrokes()
	}
	assert.Equal(t, run(), run())
}

func TestSessionGraphemeClusters(t *testing.T) {
	target := "e\u0301x"
	s := NewSession(target)
	assert.Len(t, s.Target(), 2)

	_, err := s.Apply("e", 1)
	require.NoError(t, err)
	_, err = s.Apply("e\u0301", 1)
	require.NoError(t, err)
	live, err := s.Apply("e\u0301x", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, live.Errors)

	stats := s.Keystrokes()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Incorrect)
	assert.Equal(t, 1, stats.Extra)
	assert.Equal(t, ErrorTypeCounts{Other: 1}, s.ErrorTypes())

	runes := NewSession(target, WithRuneSegmentation())
	assert.Len(t, runes.Target(), 3)
}

func TestSessionRejectsLastGlyphSubstitution(t *testing.T) {
	for name, opts := range map[string][]Option{
		"graphemes": nil,
		"runes":     {WithRuneSegmentation()},
	} {
		t.Run(name, func(t *testing.T) {
			s := NewSession("abc", opts...)
			applyAll(t, s, []string{"a", "ab"}, 1)
			before := s.Keystrokes()

			_, err := s.Apply("ax", 1)
			assert.True(t, errors.Is(err, ErrInvalidDelta))
			assert.Equal(t, []string{"a", "b"}, s.Typed())
			assert.Equal(t, before, s.Keystrokes())
			assert.Equal(t, ErrorTypeCounts{}, s.ErrorTypes())
		})
	}
}

func TestSessionRuneModeRejectsCombiningRewrite(t *testing.T) {
	s := NewSession("e\u0301x", WithRuneSegmentation())
	applyAll(t, s, []string{"e"}, 1)
	// Under code points the mark is a glyph of its own, so it simply appends.
	applyAll(t, s, []string{"e\u0301"}, 1)
	assert.Len(t, s.Typed(), 2)

	_, err := s.Apply("a\u0301", 1)
	assert.True(t, errors.Is(err, ErrInvalidDelta))
	assert.Equal(t, []string{"e", "\u0301"}, s.Typed())
}

func TestSessionCompletionGoals(t *testing.T) {
	s := NewSession("ab cd ef")
	assert.False(t, s.Done(Goal{}, 1))
	assert.True(t, s.Done(Goal{Seconds: 30}, 30))

	applyAll(t, s, []string{"a", "ab"}, 2)
	assert.Equal(t, 1, s.WordsTyped())
	assert.True(t, s.Done(Goal{Words: 1}, 2))
	assert.False(t, s.Done(Goal{Words: 2}, 2))
}

func TestSessionTickAndSample(t *testing.T) {
	s := NewSession("abcdefghij")
	applyAll(t, s, []string{"a", "ab", "abc", "abcd", "abcde"}, 1)
	assert.True(t, s.Tick(1))
	s.Sample(1)
	points := s.Series()
	require.Len(t, points, 3)
	assert.Equal(t, Point{X: 1, WPM: 60, Accuracy: 100}, points[1])
	assert.Equal(t, Point{X: 5, WPM: 60, Accuracy: 100}, points[2])

	s.Reset("xyz")
	assert.Len(t, s.Series(), 1)
	assert.Empty(t, s.Typed())
}

func TestBuildResultConsistencyOverride(t *testing.T) {
	override := 77
	res := BuildResult(SummaryInput{
		Target:              Graphemes("a"),
		Typed:               Graphemes("a"),
		ElapsedSeconds:      1,
		ConsistencyOverride: &override,
	})
	require.NotNil(t, res.Consistency)
	assert.Equal(t, 77, *res.Consistency)
}

func TestSessionKeyAPIMatchesApply(t *testing.T) {
	viaKeys := NewSession("ab")
	_, err := viaKeys.Type("x", 1)
	require.NoError(t, err)
	viaKeys.Backspace(1)
	_, err = viaKeys.Type("a", 1)
	require.NoError(t, err)
	_, err = viaKeys.Type("b", 1)
	require.NoError(t, err)
	_, err = viaKeys.Type("c", 1)
	assert.True(t, errors.Is(err, ErrPastTarget))

	viaApply := NewSession("ab")
	applyAll(t, viaApply, []string{"x", "", "a", "ab"}, 1)

	assert.Equal(t, viaApply.Keystrokes(), viaKeys.Keystrokes())
	assert.Equal(t, viaApply.Typed(), viaKeys.Typed())
	assert.Equal(t, 0, viaKeys.Backspace(1).Errors)
}

func TestBuildResultIsDetached(t *testing.T) {
	keys := NewAccumulator()
	keys.RecordKeystroke("a", "a")
	stats := keys.Stats()
	series := []Point{{X: 0, WPM: 0, Accuracy: 100}}

	res := BuildResult(SummaryInput{
		Target:         Graphemes("a"),
		Typed:          Graphemes("a"),
		ElapsedSeconds: 12,
		Keystrokes:     stats,
		Series:         series,
	})
	stats.KeyCounts["A"] = 50
	series[0].WPM = 99

	assert.Equal(t, 1, res.Keystrokes.KeyCounts["A"])
	assert.Equal(t, float64(0), res.Series[0].WPM)
	require.Len(t, res.Series, 2)
	assert.Equal(t, 1, res.Series[1].X)
	assert.Equal(t, 12*time.Second, res.Duration())
}
