package metrics

// Point is one sample of the WPM-over-time series. X is either a tick count
// (seconds) or a typed length depending on which path recorded it.
type Point struct {
	X        int     `json:"x" yaml:"x"`
	WPM      float64 `json:"y" yaml:"y"`
	Accuracy float64 `json:"acc" yaml:"acc"`
}

// Sampler records an append-only series of points. Ticks and keystroke
// samples may arrive in any order.
type Sampler struct {
	points []Point
}

// NewSampler returns a sampler seeded with the zero point.
func NewSampler() *Sampler {
	s := &Sampler{}
	s.Reset()
	return s
}

// Reset discards the series and seeds it with {0, 0, 100}.
func (s *Sampler) Reset() {
	s.points = []Point{{X: 0, WPM: 0, Accuracy: 100}}
}

// Tick records the periodic sample for the given second. The point is skipped
// when its WPM equals the last recorded WPM. It reports whether a point was added.
func (s *Sampler) Tick(tick, typedLen int, elapsedSeconds float64) bool {
	wpm := float64(RawWPM(typedLen, elapsedSeconds))
	if last, ok := s.last(); ok && last.WPM == wpm {
		return false
	}
	s.points = append(s.points, Point{X: tick, WPM: wpm, Accuracy: 100})
	return true
}

// Sample records a keystroke-driven point at the current typed length.
func (s *Sampler) Sample(typedLen, wpm, accuracy int) {
	s.points = append(s.points, Point{X: typedLen, WPM: float64(wpm), Accuracy: float64(accuracy)})
}

// Finish closes the series so it ends at the final typed length.
func (s *Sampler) Finish(typedLen, wpm, accuracy int) {
	if last, ok := s.last(); ok && last.X == typedLen {
		return
	}
	s.Sample(typedLen, wpm, accuracy)
}

// Points returns a copy of the series.
func (s *Sampler) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Len returns the number of recorded points.
func (s *Sampler) Len() int {
	return len(s.points)
}

func (s *Sampler) last() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}
