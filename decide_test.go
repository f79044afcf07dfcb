package main

import "testing"

func TestDecideArgmax(t *testing.T) {
	cases := []struct {
		probs Probs
		want  SignalKind
	}{
		{Probs{Long: 0.7, Short: 0.2, Flat: 0.1}, Long},
		{Probs{Long: 0.1, Short: 0.6, Flat: 0.3}, Short},
		{Probs{Long: 0.2, Short: 0.2, Flat: 0.6}, Flat},
	}
	for _, c := range cases {
		sig := Decide(c.probs)
		if sig.Kind != c.want {
			t.Errorf("Decide(%+v).Kind = %s, want %s", c.probs, sig.Kind, c.want)
		}
		max := maxf(c.probs.Long, maxf(c.probs.Short, c.probs.Flat))
		if sig.Confidence != max {
			t.Errorf("confidence = %v, want %v", sig.Confidence, max)
		}
	}
}

// Exact ties resolve to Flat: with no edge either way, stay out.
func TestDecideTieKeepsFlat(t *testing.T) {
	sig := Decide(Probs{Long: 1.0 / 3, Short: 1.0 / 3, Flat: 1.0 / 3})
	if sig.Kind != Flat {
		t.Fatalf("uniform probs decided %s, want flat", sig.Kind)
	}
}

func TestFallbackSignal(t *testing.T) {
	sig := FallbackSignal()
	if sig.Kind != Flat {
		t.Fatalf("fallback kind = %s, want flat", sig.Kind)
	}
	approx(t, "fallback confidence", sig.Confidence, 0.34, 1e-12)
	approx(t, "fallback p_flat", sig.Probs.Flat, 0.34, 1e-12)
	approx(t, "fallback p_long", sig.Probs.Long, 0.33, 1e-12)
	approx(t, "fallback p_short", sig.Probs.Short, 0.33, 1e-12)
}

func TestConfidenceBucket(t *testing.T) {
	cases := []struct {
		conf float64
		want string
	}{
		{0.95, BucketHigh},
		{0.8, BucketHigh},
		{0.79, BucketMedium},
		{0.6, BucketMedium},
		{0.59, BucketLow},
		{0.4, BucketLow},
		{0.39, BucketVeryLow},
		{0, BucketVeryLow},
	}
	for _, c := range cases {
		if got := ConfidenceBucket(c.conf); got != c.want {
			t.Errorf("ConfidenceBucket(%v) = %s, want %s", c.conf, got, c.want)
		}
	}
}

// Under four buffered observations the session must return the fallback
// without ever invoking the model.
func TestSessionFallbackShortHistory(t *testing.T) {
	called := false
	score := func(win [][]float32) ScoreVector {
		called = true
		return ScoreVector{Long: 1}
	}
	sess := NewSession([]string{"a"}, IdentityScaler(1), 8, Calibrator{}, score)

	for i := 0; i < minDecisionHistory-1; i++ {
		sig := sess.Step(FeatureVector{"a": float64(i)})
		if sig.Kind != Flat || sig.Confidence != 0.34 {
			t.Fatalf("step %d: got %+v, want fallback", i, sig)
		}
	}
	if called {
		t.Fatal("model invoked before enough history was buffered")
	}

	sess.Step(FeatureVector{"a": 9})
	if !called {
		t.Fatal("model not invoked once history sufficed")
	}
}

func TestSessionPipeline(t *testing.T) {
	score := func(win [][]float32) ScoreVector {
		// Last row drives the score.
		last := win[len(win)-1]
		return ScoreVector{Long: float64(last[0])}
	}
	sess := NewSession([]string{"x"}, IdentityScaler(1), 8, Calibrator{}, score)

	var sig Signal
	for i := 0; i < 6; i++ {
		sig = sess.Step(FeatureVector{"x": 0.9})
	}
	if sig.Kind != Long {
		t.Fatalf("pipeline decided %s, want long", sig.Kind)
	}
}
