// Package progress converts finished sessions into experience points and levels.
package progress

import (
	"math"

	"github.com/verte-zerg/typemeter/internal/metrics"
)

const (
	// xpSecondsUnit is the session length that earns the base multiplier.
	xpSecondsUnit = 15.0
	levelStep     = 100
)

// XP returns the experience earned by a finished session.
func XP(res metrics.Result) int {
	if res.WPM <= 0 || res.Seconds <= 0 {
		return 0
	}
	mult := math.Max(1, res.Seconds/xpSecondsUnit)
	xp := int(math.Round(float64(res.WPM) * float64(res.Accuracy) / 100 * mult))
	if res.Consistency != nil {
		xp += *res.Consistency / 10
	}
	return xp
}

// Level returns the level reached with total experience. Level 0 starts at 0 XP.
func Level(total int) int {
	level := 0
	for total >= NextLevelXP(level) {
		level++
	}
	return level
}

// NextLevelXP returns the total experience needed to leave level.
func NextLevelXP(level int) int {
	n := level + 1
	return levelStep * n * (n + 1) / 2
}

// Progress reports the position within the current level as a fraction in [0, 1].
func Progress(total int) float64 {
	level := Level(total)
	floor := 0
	if level > 0 {
		floor = NextLevelXP(level - 1)
	}
	span := NextLevelXP(level) - floor
	return float64(total-floor) / float64(span)
}
