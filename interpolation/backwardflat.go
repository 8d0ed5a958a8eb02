package interpolation

import "sort"

// BackwardFlat holds each ordinate constant on the interval that ends at its abscissa.
// Used over instantaneous forwards it gives a piecewise-flat forward curve.
type BackwardFlat struct{}

func (BackwardFlat) New(xs, ys []float64) Interpolation {
	b := &backwardFlat{grid: grid{xs: xs, ys: ys}}
	b.Update()
	return b
}

func (BackwardFlat) Global() bool        { return false }
func (BackwardFlat) RequiredPoints() int { return 2 }
func (BackwardFlat) Name() string        { return "backwardflat" }

type backwardFlat struct {
	grid
	primitive []float64
}

func (b *backwardFlat) Update() {
	n := len(b.xs)
	b.primitive = resize(b.primitive, n)
	b.primitive[0] = 0
	for i := 1; i < n; i++ {
		b.primitive[i] = b.primitive[i-1] + b.ys[i]*(b.xs[i]-b.xs[i-1])
	}
}

// segment returns the index whose ordinate applies at x.
func (b *backwardFlat) segment(x float64) int {
	n := len(b.xs)
	if x <= b.xs[0] {
		return 0
	}
	if x >= b.xs[n-1] {
		return n - 1
	}
	return sort.SearchFloat64s(b.xs, x)
}

func (b *backwardFlat) Value(x float64) float64 {
	return b.ys[b.segment(x)]
}

func (b *backwardFlat) Derivative(float64) float64 {
	return 0
}

func (b *backwardFlat) Primitive(x float64) float64 {
	n := len(b.xs)
	switch {
	case x <= b.xs[0]:
		return b.ys[0] * (x - b.xs[0])
	case x >= b.xs[n-1]:
		return b.primitive[n-1] + b.ys[n-1]*(x-b.xs[n-1])
	}
	i := sort.SearchFloat64s(b.xs, x)
	return b.primitive[i-1] + b.ys[i]*(x-b.xs[i-1])
}
