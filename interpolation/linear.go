package interpolation

import "math"

// Linear is piecewise linear interpolation.
type Linear struct{}

func (Linear) New(xs, ys []float64) Interpolation {
	l := &linear{grid: grid{xs: xs, ys: ys}}
	l.Update()
	return l
}

func (Linear) Global() bool        { return false }
func (Linear) RequiredPoints() int { return 2 }
func (Linear) Name() string        { return "linear" }

type linear struct {
	grid
	slopes    []float64
	primitive []float64
}

func (l *linear) Update() {
	n := len(l.xs)
	l.slopes = resize(l.slopes, n-1)
	l.primitive = resize(l.primitive, n)
	l.primitive[0] = 0
	for i := 0; i < n-1; i++ {
		dx := l.xs[i+1] - l.xs[i]
		l.slopes[i] = (l.ys[i+1] - l.ys[i]) / dx
		l.primitive[i+1] = l.primitive[i] + dx*(l.ys[i]+0.5*dx*l.slopes[i])
	}
}

func (l *linear) Value(x float64) float64 {
	i := locate(l.xs, x)
	return l.ys[i] + (x-l.xs[i])*l.slopes[i]
}

func (l *linear) Derivative(x float64) float64 {
	return l.slopes[locate(l.xs, x)]
}

func (l *linear) Primitive(x float64) float64 {
	i := locate(l.xs, x)
	dx := x - l.xs[i]
	return l.primitive[i] + dx*(l.ys[i]+0.5*dx*l.slopes[i])
}

// LogLinear interpolates the logarithm of the ordinates linearly. Ordinates must be positive.
type LogLinear struct{}

func (LogLinear) New(xs, ys []float64) Interpolation {
	l := &logLinear{grid: grid{xs: xs, ys: ys}}
	l.Update()
	return l
}

func (LogLinear) Global() bool        { return false }
func (LogLinear) RequiredPoints() int { return 2 }
func (LogLinear) Name() string        { return "loglinear" }

type logLinear struct {
	grid
	logSlopes []float64
	primitive []float64
}

func (l *logLinear) Update() {
	n := len(l.xs)
	l.logSlopes = resize(l.logSlopes, n-1)
	l.primitive = resize(l.primitive, n)
	l.primitive[0] = 0
	for i := 0; i < n-1; i++ {
		dx := l.xs[i+1] - l.xs[i]
		l.logSlopes[i] = (math.Log(l.ys[i+1]) - math.Log(l.ys[i])) / dx
		l.primitive[i+1] = l.primitive[i] + expIntegral(l.ys[i], l.logSlopes[i], dx)
	}
}

func (l *logLinear) Value(x float64) float64 {
	i := locate(l.xs, x)
	return l.ys[i] * math.Exp((x-l.xs[i])*l.logSlopes[i])
}

func (l *logLinear) Derivative(x float64) float64 {
	i := locate(l.xs, x)
	return l.logSlopes[i] * l.ys[i] * math.Exp((x-l.xs[i])*l.logSlopes[i])
}

func (l *logLinear) Primitive(x float64) float64 {
	i := locate(l.xs, x)
	return l.primitive[i] + expIntegral(l.ys[i], l.logSlopes[i], x-l.xs[i])
}

// expIntegral is the integral of y0*exp(b*u) for u in [0, dx].
func expIntegral(y0, b, dx float64) float64 {
	if math.Abs(b*dx) < 1e-12 {
		return y0 * dx
	}
	return y0 * math.Expm1(b*dx) / b
}

func resize(s []float64, n int) []float64 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]float64, n)
}
