package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/typemeter/internal/metrics"
)

func TestXP(t *testing.T) {
	cons := 85
	tests := []struct {
		name string
		res  metrics.Result
		want int
	}{
		{name: "empty", res: metrics.Result{}, want: 0},
		{name: "short run uses base multiplier", res: metrics.Result{WPM: 60, Accuracy: 90, Seconds: 10}, want: 54},
		{name: "long run scales", res: metrics.Result{WPM: 60, Accuracy: 100, Seconds: 30}, want: 120},
		{name: "consistency bonus", res: metrics.Result{WPM: 60, Accuracy: 100, Seconds: 15, Consistency: &cons}, want: 68},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, XP(tt.res))
		})
	}
}

func TestLevel(t *testing.T) {
	assert.Equal(t, 100, NextLevelXP(0))
	assert.Equal(t, 300, NextLevelXP(1))
	assert.Equal(t, 600, NextLevelXP(2))

	assert.Equal(t, 0, Level(0))
	assert.Equal(t, 0, Level(99))
	assert.Equal(t, 1, Level(100))
	assert.Equal(t, 1, Level(299))
	assert.Equal(t, 2, Level(300))

	assert.InDelta(t, 0.5, Progress(50), 1e-9)
	assert.InDelta(t, 0.5, Progress(200), 1e-9)
}
