// Package metrics computes typing-session metrics: per-glyph correctness, error
// categories, keystroke counters, WPM and accuracy, the WPM-over-time series and
// the consistency score derived from it.
//
// Text is compared glyph by glyph. A glyph is a user-perceived character
// (extended grapheme cluster), so combining marks and emoji sequences are never
// split across two positions.
package metrics

import (
	"github.com/rivo/uniseg"
)

// Segmenter splits text into comparable glyphs.
type Segmenter func(s string) []string

// Graphemes splits s into extended grapheme clusters.
func Graphemes(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, len(s))
	state := -1
	rest := s
	var cluster string
	for len(rest) > 0 {
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		out = append(out, cluster)
	}
	return out
}

// Runes splits s into single code points.
func Runes(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
