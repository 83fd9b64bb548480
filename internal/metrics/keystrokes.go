package metrics

import "strings"

// KeystrokeStats holds lifetime keystroke counters for a session.
//
// Counters are event counts: a deletion bumps Extra and never rolls back Total,
// Correct or Incorrect. Total always equals Correct + Incorrect.
type KeystrokeStats struct {
	Total     int            `json:"total" yaml:"total"`
	Correct   int            `json:"correct" yaml:"correct"`
	Incorrect int            `json:"incorrect" yaml:"incorrect"`
	Extra     int            `json:"extra" yaml:"extra"`
	KeyCounts map[string]int `json:"keyCounts" yaml:"keyCounts"`
	// Misses counts incorrect keystrokes by the glyph that was expected.
	Misses map[string]int `json:"misses,omitempty" yaml:"misses,omitempty"`
}

// Clone returns a deep copy of s.
func (s KeystrokeStats) Clone() KeystrokeStats {
	out := s
	out.KeyCounts = cloneCounts(s.KeyCounts)
	out.Misses = cloneCounts(s.Misses)
	return out
}

// Accumulator maintains KeystrokeStats as input arrives one glyph at a time.
type Accumulator struct {
	stats KeystrokeStats
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	a := &Accumulator{}
	a.Reset()
	return a
}

// Reset clears all counters.
func (a *Accumulator) Reset() {
	a.stats = KeystrokeStats{
		KeyCounts: map[string]int{},
		Misses:    map[string]int{},
	}
}

// RecordKeystroke counts one net-new typed glyph against the glyph expected at
// its position. The comparison is case-sensitive; the key count is not.
func (a *Accumulator) RecordKeystroke(typed, expected string) {
	a.stats.KeyCounts[KeyName(typed)]++
	a.stats.Total++
	if typed == expected {
		a.stats.Correct++
		return
	}
	a.stats.Incorrect++
	a.stats.Misses[KeyName(expected)]++
}

// RecordDeletion counts one removed glyph.
func (a *Accumulator) RecordDeletion() {
	a.stats.Extra++
}

// Stats returns a copy of the current counters.
func (a *Accumulator) Stats() KeystrokeStats {
	return a.stats.Clone()
}

// KeyName normalizes a glyph for use as a key-count key: ASCII letters are
// upper-cased, everything else is kept as is.
func KeyName(g string) string {
	if isASCIILetter(g) {
		return strings.ToUpper(g)
	}
	return g
}

func cloneCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
