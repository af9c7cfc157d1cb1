package analysis

import (
	"math"
	"slices"
)

// Summary describes one numeric column.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
}

// Summarize computes descriptive statistics. xs must not be empty.
func Summarize(xs []float64) Summary {
	s := Summary{Count: len(xs), Min: xs[0], Max: xs[0]}

	for _, x := range xs {
		s.Sum += x
		s.Min = math.Min(s.Min, x)
		s.Max = math.Max(s.Max, x)
	}
	s.Mean = s.Sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		sq += (x - s.Mean) * (x - s.Mean)
	}
	s.StdDev = math.Sqrt(sq / float64(len(xs)))

	sorted := slices.Sorted(slices.Values(xs))
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		s.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		s.Median = sorted[mid]
	}

	return s
}

// LinearFit fits y = Intercept + Slope*i over the sample index i.
type LinearFit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Fit returns the least squares line through (i, ys[i]). With fewer than two
// points the slope is zero.
func Fit(ys []float64) LinearFit {
	xs := make([]float64, len(ys))
	for i := range ys {
		xs[i] = float64(i)
	}
	return FitXY(xs, ys)
}

// FitXY returns the least squares line through (xs[i], ys[i]). xs and ys
// must have the same length.
func FitXY(xs, ys []float64) LinearFit {
	n := float64(len(ys))
	if len(ys) < 2 {
		if len(ys) == 1 {
			return LinearFit{Intercept: ys[0]}
		}
		return LinearFit{}
	}

	var sx, sy, sxy, sxx float64
	for i, y := range ys {
		x := xs[i]
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
	}

	d := n*sxx - sx*sx
	if d == 0 {
		return LinearFit{Intercept: sy / n}
	}

	slope := (n*sxy - sx*sy) / d
	return LinearFit{Slope: slope, Intercept: (sy - slope*sx) / n}
}

// At evaluates the line at index i.
func (f LinearFit) At(i int) float64 { return f.Intercept + f.Slope*float64(i) }

// Pearson returns the correlation coefficient of xs and ys over their common
// length. ok is false when either series is constant or shorter than two.
func Pearson(xs, ys []float64) (r float64, ok bool) {
	n := min(len(xs), len(ys))
	if n < 2 {
		return 0, false
	}

	mx := Summarize(xs[:n]).Mean
	my := Summarize(ys[:n]).Mean

	var cov, vx, vy float64
	for i := range n {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}

	if vx == 0 || vy == 0 {
		return 0, false
	}

	return cov / math.Sqrt(vx*vy), true
}

func round(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
