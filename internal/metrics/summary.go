package metrics

import "time"

// Result is the frozen outcome of a completed session.
type Result struct {
	WPM         int             `json:"wpm" yaml:"wpm"`
	Accuracy    int             `json:"accuracy" yaml:"accuracy"`
	Errors      int             `json:"errors" yaml:"errors"`
	Seconds     float64         `json:"time" yaml:"time"`
	CPM         int             `json:"cpm" yaml:"cpm"`
	Consistency *int            `json:"consistency" yaml:"consistency"`
	Keystrokes  KeystrokeStats  `json:"keystrokeStats" yaml:"keystrokeStats"`
	ErrorTypes  ErrorTypeCounts `json:"errorTypes" yaml:"errorTypes"`
	Series      []Point         `json:"timeGraphData" yaml:"timeGraphData"`
}

// Duration returns the elapsed session time.
func (r Result) Duration() time.Duration {
	return time.Duration(r.Seconds * float64(time.Second))
}

// SummaryInput carries the final session state into BuildResult.
type SummaryInput struct {
	Target         []string
	Typed          []string
	ElapsedSeconds float64
	Keystrokes     KeystrokeStats
	ErrorTypes     ErrorTypeCounts
	Series         []Point
	// ConsistencyOverride skips the computation when set.
	ConsistencyOverride *int
}

// BuildResult assembles the final result. Correctness is rescanned over the
// whole typed text rather than taken from the last live estimate.
func BuildResult(in SummaryInput) Result {
	correct := CountCorrect(in.Target, in.Typed)
	wpm := WPM(correct, in.ElapsedSeconds)
	acc := Accuracy(correct, len(in.Typed))

	series := make([]Point, len(in.Series), len(in.Series)+1)
	copy(series, in.Series)
	if len(series) == 0 || series[len(series)-1].X != len(in.Typed) {
		series = append(series, Point{X: len(in.Typed), WPM: float64(wpm), Accuracy: float64(acc)})
	}

	seconds := in.ElapsedSeconds
	if seconds < 0 {
		seconds = 0
	}
	return Result{
		WPM:         wpm,
		Accuracy:    acc,
		Errors:      len(Mismatches(in.Target, in.Typed)),
		Seconds:     seconds,
		CPM:         CPM(correct, in.ElapsedSeconds),
		Consistency: ResolveConsistency(in.ConsistencyOverride, series),
		Keystrokes:  in.Keystrokes.Clone(),
		ErrorTypes:  in.ErrorTypes,
		Series:      series,
	}
}
