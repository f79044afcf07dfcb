package main

import (
	"fmt"
	"sort"
)

// ScoreVector holds the raw per-class model scores (long, short, flat).
// Shape is the only contract; the model producing it is opaque to the core.
type ScoreVector struct {
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
	Flat  float64 `json:"flat"`
}

// Probs are calibrated, mutually exclusive class probabilities.
// Each component is in [0,1] and they sum to 1.
type Probs struct {
	Long  float64 `json:"p_long"`
	Short float64 `json:"p_short"`
	Flat  float64 `json:"p_flat"`
}

// IsotonicCurve is a fitted monotonic non-decreasing step/interpolation
// curve mapping an uncalibrated score to a probability. Out-of-range
// inputs clip to the boundary values (the sklearn out_of_bounds="clip"
// behavior the training side uses).
type IsotonicCurve struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Predict evaluates the curve at s with linear interpolation between
// knots and clipping outside the fitted range. An empty curve is the
// identity clipped to [0,1], so an unfitted calibrator degrades sanely.
func (c IsotonicCurve) Predict(s float64) float64 {
	if len(c.X) == 0 {
		return clamp01(s)
	}
	if s <= c.X[0] {
		return clamp01(c.Y[0])
	}
	n := len(c.X)
	if s >= c.X[n-1] {
		return clamp01(c.Y[n-1])
	}
	// First knot strictly greater than s.
	hi := sort.SearchFloat64s(c.X, s)
	if c.X[hi] == s {
		return clamp01(c.Y[hi])
	}
	lo := hi - 1
	t := (s - c.X[lo]) / (c.X[hi] - c.X[lo])
	return clamp01(c.Y[lo] + t*(c.Y[hi]-c.Y[lo]))
}

// FitIsotonic fits a non-decreasing curve to (x, y) pairs using
// pool-adjacent-violators. Duplicate x values are averaged first.
func FitIsotonic(x, y []float64) (IsotonicCurve, error) {
	if len(x) != len(y) {
		return IsotonicCurve{}, fmt.Errorf("isotonic fit: len(x)=%d != len(y)=%d", len(x), len(y))
	}
	if len(x) == 0 {
		return IsotonicCurve{}, fmt.Errorf("isotonic fit: empty input")
	}

	type block struct{ lx, rx, y, w float64 }
	pts := make([]block, len(x))
	for i := range x {
		pts[i] = block{x[i], x[i], y[i], 1}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].lx < pts[j].lx })

	// Merge ties on x.
	merged := pts[:1]
	for _, p := range pts[1:] {
		last := &merged[len(merged)-1]
		if p.lx == last.rx {
			last.y = (last.y*last.w + p.y*p.w) / (last.w + p.w)
			last.w += p.w
		} else {
			merged = append(merged, p)
		}
	}

	// PAVA: pool adjacent blocks while the monotonicity constraint is violated.
	blocks := make([]block, 0, len(merged))
	for _, p := range merged {
		blocks = append(blocks, p)
		for len(blocks) > 1 && blocks[len(blocks)-2].y > blocks[len(blocks)-1].y {
			a := blocks[len(blocks)-2]
			b := blocks[len(blocks)-1]
			pooled := block{
				lx: a.lx,
				rx: b.rx,
				y:  (a.y*a.w + b.y*b.w) / (a.w + b.w),
				w:  a.w + b.w,
			}
			blocks = blocks[:len(blocks)-2]
			blocks = append(blocks, pooled)
		}
	}

	// Two knots per pooled block so interpolation stays flat inside a block.
	curve := IsotonicCurve{}
	for _, b := range blocks {
		curve.X = append(curve.X, b.lx)
		curve.Y = append(curve.Y, b.y)
		if b.rx > b.lx {
			curve.X = append(curve.X, b.rx)
			curve.Y = append(curve.Y, b.y)
		}
	}
	return curve, nil
}

// Calibrator maps raw score vectors to normalized class probabilities via
// two independently fitted monotonic curves. Long and short get separate
// curves because their base rates differ.
type Calibrator struct {
	LongCurve  IsotonicCurve `json:"long_curve"`
	ShortCurve IsotonicCurve `json:"short_curve"`
}

// Calibrate computes the two calibration inputs
//
//	s_long  = long  - max(short, flat)
//	s_short = short - max(long, flat)
//
// passes each through its curve clipped to [0,1], derives
// p_flat = max(0, 1 - max(p_long, p_short)), and normalizes the three to
// sum to exactly 1. A score vector carrying no information at all (all
// zero) and a zero probability sum both yield the uniform (1/3, 1/3, 1/3);
// that is the documented degenerate-calibration policy, not an error.
func (c Calibrator) Calibrate(q ScoreVector) Probs {
	if q.Long == 0 && q.Short == 0 && q.Flat == 0 {
		return Probs{Long: 1.0 / 3, Short: 1.0 / 3, Flat: 1.0 / 3}
	}

	sLong := q.Long - maxf(q.Short, q.Flat)
	sShort := q.Short - maxf(q.Long, q.Flat)

	pLong := clamp01(c.LongCurve.Predict(sLong))
	pShort := clamp01(c.ShortCurve.Predict(sShort))
	pFlat := maxf(0, 1-maxf(pLong, pShort))

	sum := pLong + pShort + pFlat
	if sum == 0 {
		return Probs{Long: 1.0 / 3, Short: 1.0 / 3, Flat: 1.0 / 3}
	}
	return Probs{
		Long:  pLong / sum,
		Short: pShort / sum,
		Flat:  pFlat / sum,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
