package main

import (
	"fmt"
	"math"
)

// Scorer is a trainable scoring function: fit on a feature matrix and
// label vector, then predict one score per row. Any model satisfying this
// can be validated; the core never probes beyond these two capabilities.
type Scorer interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

// minTestRows is the test-segment size below which walk-forward validation
// returns the neutral default instead of an unstable statistic.
const minTestRows = 20

// neutralAccuracy is that default.
const neutralAccuracy = 0.5

// defaultTrainRatio is the leading train-segment share.
const defaultTrainRatio = 0.7

// WalkForwardValidate splits X/y strictly by index into a leading train
// segment and trailing test segment (no shuffling, so no future rows leak
// into training), fits the scorer on the head, predicts the tail and
// returns out-of-sample R-squared clamped to [0, 1].
//
// trainRatio <= 0 uses the default 0.7. A test segment under minTestRows
// rows returns neutralAccuracy regardless of data; that is the documented
// low-data policy, not an error.
func WalkForwardValidate(X [][]float64, y []float64, trainRatio float64, scorer Scorer) (float64, error) {
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d feature rows for %d labels", ErrInvalidInput, len(X), len(y))
	}
	if trainRatio <= 0 {
		trainRatio = defaultTrainRatio
	}
	if trainRatio >= 1 {
		return 0, fmt.Errorf("%w: train ratio %.4f must be < 1", ErrConfiguration, trainRatio)
	}

	n := len(X)
	trainSize := int(float64(n) * trainRatio)
	testSize := n - trainSize
	if testSize < minTestRows {
		return neutralAccuracy, nil
	}

	XTrain, XTest := X[:trainSize], X[trainSize:]
	yTrain, yTest := y[:trainSize], y[trainSize:]

	if err := scorer.Fit(XTrain, yTrain); err != nil {
		return 0, err
	}
	pred := scorer.Predict(XTest)

	acc := rSquared(yTest, pred)
	if acc < 0 {
		acc = 0
	}
	if acc > 1 {
		acc = 1
	}
	return acc, nil
}

// rSquared is the coefficient of determination 1 - SSres/SStot. A constant
// label vector has no variance to explain; that degenerates to 0.
func rSquared(y, pred []float64) float64 {
	if len(y) == 0 || len(y) != len(pred) {
		return 0
	}

	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i := range y {
		d := y[i] - pred[i]
		ssRes += d * d
		t := y[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// RidgeScorer is a linear model trained by SGD with L2 regularization and
// a Huber-style gradient clamp. It is the in-repo default Scorer; callers
// with a real model inject their own.
type RidgeScorer struct {
	w      []float64
	bias   float64
	lr     float64
	l2     float64
	epochs int
}

// NewRidgeScorer returns a scorer with the default training knobs.
func NewRidgeScorer() *RidgeScorer {
	return &RidgeScorer{
		lr:     0.02,
		l2:     1e-4,
		epochs: 50,
	}
}

func (m *RidgeScorer) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("%w: %d feature rows for %d labels", ErrInvalidInput, len(X), len(y))
	}

	dim := len(X[0])
	m.w = make([]float64, dim)
	m.bias = 0

	for epoch := 0; epoch < m.epochs; epoch++ {
		for i, x := range X {
			pred := m.bias
			for j := 0; j < dim && j < len(x); j++ {
				pred += m.w[j] * x[j]
			}

			// Clamp the error to avoid huge gradients from outlier labels.
			err := pred - y[i]
			if err > 5 {
				err = 5
			}
			if err < -5 {
				err = -5
			}

			for j := 0; j < dim && j < len(x); j++ {
				grad := err*x[j] + m.l2*m.w[j]
				m.w[j] -= m.lr * grad
			}
			m.bias -= m.lr * err
		}
	}

	for _, w := range m.w {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("ridge fit diverged; lower the learning rate or rescale inputs")
		}
	}
	return nil
}

func (m *RidgeScorer) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		s := m.bias
		for j := 0; j < len(m.w) && j < len(x); j++ {
			s += m.w[j] * x[j]
		}
		out[i] = s
	}
	return out
}
