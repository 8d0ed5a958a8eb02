package curve

import (
	"time"

	"github.com/meenmo/ratecurve/interpolation"
)

// nodes is the curve's node store. Node 0 sits at the reference date.
//
// The interpolation spans the first count nodes: during a cold bootstrap it
// grows one node at a time, afterwards it covers every node. Values are
// mutated in place by the bootstrap, which calls interp.Update after each change.
type nodes struct {
	dates  []time.Time
	times  []float64
	data   []float64
	interp interpolation.Interpolation
	count  int
}

// resize allocates storage for size nodes. It reports whether existing values were kept.
func (n *nodes) resize(size int) bool {
	if len(n.data) == size {
		return true
	}
	n.dates = make([]time.Time, size)
	n.times = make([]float64, size)
	n.data = make([]float64, size)
	n.interp = nil
	n.count = 0
	return false
}

// interpolate rebuilds the interpolation over the first count nodes.
func (n *nodes) interpolate(i interpolation.Interpolator, count int) {
	n.interp = i.New(n.times[:count], n.data[:count])
	n.count = count
}

func (n *nodes) lastTime() float64  { return n.times[n.count-1] }
func (n *nodes) lastValue() float64 { return n.data[n.count-1] }

// snapshot copies the node data for readers.
func (n *nodes) snapshot() (dates []time.Time, times, data []float64) {
	dates = append([]time.Time(nil), n.dates...)
	times = append([]float64(nil), n.times...)
	data = append([]float64(nil), n.data...)
	return dates, times, data
}
