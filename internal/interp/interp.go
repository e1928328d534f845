// Package interp implements piecewise-linear lookup over small sample tables.
package interp

import "sort"

// Point is a single (x, y) sample on a curve.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sorted returns a copy of pts ordered ascending by X. Points sharing an X keep
// their input order, so the first one wins during lookup.
func Sorted(pts []Point) []Point {
	out := make([]Point, len(pts))
	copy(out, pts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// Interpolate returns the linearly interpolated y for v. Values outside the
// sampled domain are clamped flat to the first or last y.
//
// The input does not need to be sorted; a sorted copy is used. An empty curve
// yields 0 and a single point yields a constant.
func Interpolate(v float64, pts []Point) float64 {
	if len(pts) == 0 {
		return 0
	}
	if !sort.SliceIsSorted(pts, func(i, j int) bool { return pts[i].X < pts[j].X }) {
		pts = Sorted(pts)
	}
	return interpolateSorted(v, pts)
}

func interpolateSorted(v float64, pts []Point) float64 {
	first, last := pts[0], pts[len(pts)-1]
	if v <= first.X {
		return first.Y
	}
	if v >= last.X {
		return last.Y
	}
	for i := 1; i < len(pts); i++ {
		x0, y0 := pts[i-1].X, pts[i-1].Y
		x1, y1 := pts[i].X, pts[i].Y
		if v <= x1 {
			span := x1 - x0
			weight := 0.0
			if span != 0 {
				weight = (v - x0) / span
			}
			return y0 + weight*(y1-y0)
		}
	}
	return last.Y
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
