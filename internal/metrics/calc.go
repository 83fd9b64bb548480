package metrics

import "math"

const (
	// CharsPerWord is the standard word length used by WPM.
	CharsPerWord = 5
	// MaxWPM caps reported speeds; anything above is treated as noise.
	MaxWPM = 300
)

// WPM returns words per minute for correctChars typed over elapsedSeconds,
// rounded and clamped to [0, MaxWPM]. Zero or negative time yields 0.
func WPM(correctChars int, elapsedSeconds float64) int {
	return perMinute(float64(correctChars)/CharsPerWord, elapsedSeconds, MaxWPM)
}

// RawWPM is the live estimate used by the periodic tick: every typed glyph
// counts, right or wrong.
func RawWPM(typedChars int, elapsedSeconds float64) int {
	return perMinute(float64(typedChars)/CharsPerWord, elapsedSeconds, MaxWPM)
}

// CPM returns correct characters per minute.
func CPM(correctChars int, elapsedSeconds float64) int {
	return perMinute(float64(correctChars), elapsedSeconds, MaxWPM*CharsPerWord)
}

// Accuracy returns the percentage of correct characters, rounded and clamped to
// [0, 100]. With nothing typed the accuracy is 100.
func Accuracy(correctChars, totalChars int) int {
	if totalChars <= 0 {
		return 100
	}
	return clampInt(int(math.Round(float64(correctChars)/float64(totalChars)*100)), 0, 100)
}

func perMinute(amount, elapsedSeconds float64, limit int) int {
	if elapsedSeconds <= 0 || math.IsNaN(elapsedSeconds) || math.IsInf(elapsedSeconds, 0) {
		return 0
	}
	v := math.Round(amount / (elapsedSeconds / 60))
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > float64(limit) {
		return limit
	}
	return int(v)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
