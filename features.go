package main

import (
	"fmt"
	"math"
)

// featureLookback is the number of trailing close-to-close returns fed to
// the scorer for each bar.
const featureLookback = 5

// ReturnFeatureNames lists the canonical feature order produced by
// BuildReturnFeatures. Index 0 is the most recent return.
func ReturnFeatureNames() []string {
	names := make([]string, 0, featureLookback+2)
	for k := 0; k < featureLookback; k++ {
		names = append(names, fmt.Sprintf("ret_lag_%d", k))
	}
	return append(names, "ret_mean", "ret_vol")
}

// BuildReturnFeatures derives one row per usable bar: the trailing
// featureLookback returns plus their rolling mean and volatility, with the
// next-bar return as target. Row j describes bar firstBar+j and uses only
// closes up to and including that bar, so nothing leaks from the future.
func BuildReturnFeatures(bars []PriceBar) (X [][]float64, y []float64, firstBar int) {
	firstBar = featureLookback
	if len(bars) < featureLookback+2 {
		return nil, nil, firstBar
	}

	rets := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev != 0 {
			rets[i] = (bars[i].Close - prev) / prev
		}
	}

	for i := firstBar; i < len(bars)-1; i++ {
		row := make([]float64, featureLookback+2)
		var mean float64
		for k := 0; k < featureLookback; k++ {
			row[k] = rets[i-k]
			mean += rets[i-k]
		}
		mean /= featureLookback

		var variance float64
		for k := 0; k < featureLookback; k++ {
			d := rets[i-k] - mean
			variance += d * d
		}
		row[featureLookback] = mean
		row[featureLookback+1] = math.Sqrt(variance / featureLookback)

		X = append(X, row)
		y = append(y, rets[i+1])
	}
	return X, y, firstBar
}
