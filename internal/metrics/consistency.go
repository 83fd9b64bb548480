package metrics

import "math"

// Consistency scores how stable WPM stayed across the series, from 0 to 100,
// as one minus the coefficient of variation. It returns false when fewer than
// two finite samples exist.
func Consistency(points []Point) (int, bool) {
	values := make([]float64, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.WPM) || math.IsInf(p.WPM, 0) {
			continue
		}
		values = append(values, p.WPM)
	}
	if len(values) < 2 {
		return 0, false
	}
	mean, stddev := meanStddev(values)
	if mean == 0 {
		return 0, true
	}
	score := math.Round((1 - stddev/mean) * 100)
	if math.IsNaN(score) {
		return 0, true
	}
	return clampInt(int(score), 0, 100), true
}

// ResolveConsistency returns override when set, otherwise the computed score.
// A nil result means there was not enough data.
func ResolveConsistency(override *int, points []Point) *int {
	if override != nil {
		v := *override
		return &v
	}
	v, ok := Consistency(points)
	if !ok {
		return nil
	}
	return &v
}

// meanStddev returns the mean and population standard deviation of values.
func meanStddev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
