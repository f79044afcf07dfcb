package main

// SignalKind is the discrete trading action for one time step.
type SignalKind int

const (
	Flat SignalKind = iota
	Long
	Short
)

func (k SignalKind) String() string {
	switch k {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// Signal is a decided action plus the probability mass behind it.
type Signal struct {
	Kind       SignalKind
	Confidence float64
	Probs      Probs
}

// Confidence buckets used by callers for position sizing.
const (
	BucketHigh    = "high"     // [0.8, 1.0]
	BucketMedium  = "medium"   // [0.6, 0.8)
	BucketLow     = "low"      // [0.4, 0.6)
	BucketVeryLow = "very_low" // [0.0, 0.4)
)

// ConfidenceBucket maps a confidence value to its sizing bucket.
func ConfidenceBucket(conf float64) string {
	switch {
	case conf >= 0.8:
		return BucketHigh
	case conf >= 0.6:
		return BucketMedium
	case conf >= 0.4:
		return BucketLow
	default:
		return BucketVeryLow
	}
}

// minDecisionHistory is the observation count below which the policy
// refuses to commit to a direction.
const minDecisionHistory = 4

// fallbackConfidence is the confidence reported with the insufficient-
// history fallback. Slightly above uniform so it is distinguishable from
// a genuinely uniform calibration.
const fallbackConfidence = 0.34

// Decide picks the class with the highest calibrated probability.
// Confidence is that maximum. Ties resolve Flat before Long before Short,
// keeping the no-trade bias deterministic.
func Decide(p Probs) Signal {
	kind := Flat
	conf := p.Flat
	if p.Long > conf {
		kind = Long
		conf = p.Long
	}
	if p.Short > conf {
		kind = Short
		conf = p.Short
	}
	return Signal{Kind: kind, Confidence: conf, Probs: p}
}

// FallbackSignal is the defined boundary behavior when fewer than
// minDecisionHistory observations exist: Flat with near-uniform probs.
// Not an error.
func FallbackSignal() Signal {
	return Signal{
		Kind:       Flat,
		Confidence: fallbackConfidence,
		Probs:      Probs{Long: 0.33, Short: 0.33, Flat: 0.34},
	}
}
