package aggregate

// extremum tracks a running maximum or minimum. The first offered value seeds it,
// so no ±Inf sentinel ever leaks into a result.
type extremum struct {
	value float64
	set   bool
}

func (e extremum) max(v float64) extremum {
	if !e.set || v > e.value {
		return extremum{value: v, set: true}
	}
	return e
}

func (e extremum) min(v float64) extremum {
	if !e.set || v < e.value {
		return extremum{value: v, set: true}
	}
	return e
}

// ptr returns a pointer to the tracked value, or nil if nothing was offered.
func (e extremum) ptr() *float64 {
	if !e.set {
		return nil
	}
	v := e.value
	return &v
}

// gustTracker keeps the strongest gust seen so far along with its direction.
// Ties keep the earlier gust.
type gustTracker struct {
	speed     float64
	direction *string
	set       bool
}

func (g gustTracker) offer(speed *float64, direction *string) gustTracker {
	if speed == nil {
		return g
	}
	if !g.set || *speed > g.speed {
		return gustTracker{speed: *speed, direction: copyString(direction), set: true}
	}
	return g
}

func (g gustTracker) result() (*float64, *string) {
	if !g.set {
		return nil, nil
	}
	s := g.speed
	return &s, copyString(g.direction)
}

// runningMean accumulates a sum and the number of values that contributed to it.
type runningMean struct {
	sum   float64
	count int
}

func (m runningMean) add(v *float64) runningMean {
	if v == nil {
		return m
	}
	return runningMean{sum: m.sum + *v, count: m.count + 1}
}

// value divides by the contributing count, treating zero contributions as one.
func (m runningMean) value() float64 {
	if m.count == 0 {
		return m.sum
	}
	return m.sum / float64(m.count)
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
