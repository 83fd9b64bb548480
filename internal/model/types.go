// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/verte-zerg/typemeter/internal/metrics"
)

// Test modes.
const (
	ModeTime  = "time"
	ModeWords = "words"
	ModeText  = "text"
)

// Content kinds.
const (
	ContentWords       = "words"
	ContentPunctuation = "punctuation"
	ContentNumbers     = "numbers"
	ContentQuotes      = "quotes"
)

// Config defines practice settings.
type Config struct {
	Mode       string
	Seconds    int
	Words      int
	Content    string
	Lang       string
	CapsPct    float64
	PunctPct   float64
	PunctSet   string
	FocusWeak  bool
	WeakTop    int
	WeakFactor float64
	WeakWindow int
	Graphemes  bool
}

// Goal returns the completion goal implied by the mode.
func (c Config) Goal() metrics.Goal {
	switch c.Mode {
	case ModeTime:
		return metrics.Goal{Seconds: float64(c.Seconds)}
	case ModeWords:
		return metrics.Goal{Words: c.Words}
	default:
		return metrics.Goal{}
	}
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Lang        string
	Mode        string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionRecord is a completed session as persisted.
type SessionRecord struct {
	ID        int64
	UUID      string
	StartedAt time.Time
	EndedAt   time.Time
	Mode      string
	Lang      string
	Content   string
	TargetLen int
	XP        int
	Result    metrics.Result
}

// KeyAggregate aggregates key counts across sessions.
type KeyAggregate struct {
	Key     string
	Presses int
	Misses  int
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID   int64
	EndedAt     time.Time
	Mode        string
	WPM         int
	Accuracy    int
	Consistency *int
	Errors      int
	DurationMs  int64
	XP          int
}
