package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWPM(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		seconds float64
		want    int
	}{
		{name: "zero time", correct: 50, seconds: 0, want: 0},
		{name: "negative time", correct: 50, seconds: -3, want: 0},
		{name: "nan time", correct: 50, seconds: math.NaN(), want: 0},
		{name: "half minute", correct: 25, seconds: 30, want: 10},
		{name: "rounds", correct: 3, seconds: 6, want: 6},
		{name: "nothing typed", correct: 0, seconds: 12, want: 0},
		{name: "capped", correct: 100000, seconds: 1, want: MaxWPM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WPM(tt.correct, tt.seconds))
		})
	}
}

func TestWPMNeverExceedsCap(t *testing.T) {
	for _, seconds := range []float64{0.001, 0.5, 1, 2} {
		assert.LessOrEqual(t, WPM(100000, seconds), MaxWPM)
	}
}

func TestRawWPMCountsEveryGlyph(t *testing.T) {
	assert.Equal(t, 60, RawWPM(5, 1))
	assert.Equal(t, 0, RawWPM(5, 0))
}

func TestCPM(t *testing.T) {
	assert.Equal(t, 50, CPM(25, 30))
	assert.Equal(t, 0, CPM(25, 0))
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name           string
		correct, total int
		want           int
	}{
		{name: "no attempt", correct: 0, total: 0, want: 100},
		{name: "all wrong", correct: 0, total: 20, want: 0},
		{name: "exact", correct: 18, total: 20, want: 90},
		{name: "rounds down", correct: 1, total: 3, want: 33},
		{name: "rounds up", correct: 2, total: 3, want: 67},
		{name: "clamped high", correct: 30, total: 20, want: 100},
		{name: "clamped low", correct: -5, total: 20, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accuracy(tt.correct, tt.total))
		})
	}
}
