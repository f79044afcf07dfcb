package main

import (
	"errors"
	"testing"
)

// recordingScorer captures what it was trained and evaluated on.
type recordingScorer struct {
	trainRows int
	testRows  int
	lastTrain [][]float64
	predict   func(x []float64) float64
}

func (r *recordingScorer) Fit(X [][]float64, y []float64) error {
	r.trainRows = len(X)
	r.lastTrain = X
	return nil
}

func (r *recordingScorer) Predict(X [][]float64) []float64 {
	r.testRows = len(X)
	out := make([]float64, len(X))
	for i, x := range X {
		if r.predict != nil {
			out[i] = r.predict(x)
		}
	}
	return out
}

func rowsOf(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		X[i] = []float64{float64(i)}
		y[i] = float64(i % 7)
	}
	return X, y
}

// 33 rows at a 0.7 split leave a 10-row test segment, below the minimum;
// validation returns the neutral 0.5 without touching the scorer's output.
func TestWalkForwardSmallTestSegment(t *testing.T) {
	X, y := rowsOf(33)
	acc, err := WalkForwardValidate(X, y, 0.7, &recordingScorer{})
	if err != nil {
		t.Fatalf("WalkForwardValidate: %v", err)
	}
	if acc != 0.5 {
		t.Fatalf("accuracy = %v, want exactly 0.5", acc)
	}
}

// The split is strictly by index: the scorer trains on the leading rows
// only and never sees a test row during fitting.
func TestWalkForwardSplitsByIndex(t *testing.T) {
	X, y := rowsOf(100)
	sc := &recordingScorer{}
	if _, err := WalkForwardValidate(X, y, 0.7, sc); err != nil {
		t.Fatalf("WalkForwardValidate: %v", err)
	}

	if sc.trainRows != 70 || sc.testRows != 30 {
		t.Fatalf("split = %d/%d, want 70/30", sc.trainRows, sc.testRows)
	}
	for i, row := range sc.lastTrain {
		if row[0] != float64(i) {
			t.Fatalf("train row %d holds %v; training rows leaked or reordered", i, row[0])
		}
	}
}

// A perfect oracle scores 1; an anti-predictor is clamped at 0 rather than
// reported negative.
func TestWalkForwardAccuracyClamped(t *testing.T) {
	X, y := rowsOf(100)

	oracle := &recordingScorer{predict: func(x []float64) float64 {
		return float64(int(x[0]) % 7)
	}}
	acc, err := WalkForwardValidate(X, y, 0.7, oracle)
	if err != nil {
		t.Fatalf("oracle: %v", err)
	}
	approx(t, "oracle accuracy", acc, 1, 1e-12)

	awful := &recordingScorer{predict: func(x []float64) float64 { return 1e6 }}
	acc, err = WalkForwardValidate(X, y, 0.7, awful)
	if err != nil {
		t.Fatalf("anti-predictor: %v", err)
	}
	if acc != 0 {
		t.Fatalf("anti-predictor accuracy = %v, want clamped 0", acc)
	}
}

func TestWalkForwardInputErrors(t *testing.T) {
	X, y := rowsOf(10)
	if _, err := WalkForwardValidate(X, y[:5], 0.7, &recordingScorer{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("mismatched lengths: err = %v, want ErrInvalidInput", err)
	}
	if _, err := WalkForwardValidate(X, y, 1.2, &recordingScorer{}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("ratio >= 1: err = %v, want ErrConfiguration", err)
	}
}

func TestRSquared(t *testing.T) {
	y := []float64{1, 2, 3, 4}

	approx(t, "perfect fit", rSquared(y, []float64{1, 2, 3, 4}), 1, 1e-12)
	if rSquared([]float64{5, 5, 5}, []float64{5, 5, 5}) != 0 {
		t.Fatal("constant labels must degrade to 0")
	}
	if rSquared(y, []float64{100, 100, 100, 100}) >= 0 {
		t.Fatal("a terrible fit must come out negative before clamping")
	}
}

// The SGD ridge fit recovers an exact linear relationship closely enough
// that out-of-sample predictions land on the right side of zero.
func TestRidgeScorerLearnsLinear(t *testing.T) {
	n := 200
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		v := float64(i%21-10) / 10 // -1.0 .. 1.0
		X[i] = []float64{v}
		y[i] = 0.5 * v
	}

	m := NewRidgeScorer()
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	preds := m.Predict([][]float64{{-0.8}, {0.8}})
	if preds[0] >= 0 || preds[1] <= 0 {
		t.Fatalf("predictions %v do not track the target's sign", preds)
	}
	approx(t, "positive prediction", preds[1], 0.4, 0.1)
}

func TestRidgeScorerRejectsBadInput(t *testing.T) {
	m := NewRidgeScorer()
	if err := m.Fit(nil, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty fit: err = %v, want ErrInvalidInput", err)
	}
	if err := m.Fit([][]float64{{1}}, []float64{1, 2}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("mismatched fit: err = %v, want ErrInvalidInput", err)
	}
}
