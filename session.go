package main

// ScoringFunc maps the current feature window matrix to one raw score
// vector. This is the single explicit model capability the core depends
// on; any predict/predict_proba style dispatch lives in the caller's
// adapter, not here.
type ScoringFunc func(window [][]float32) ScoreVector

// Session is one inference pipeline: feature window, calibrator and
// decision policy wired to an injected scoring function. Each session owns
// its state exclusively; concurrent sessions never share anything, so no
// locking is needed.
type Session struct {
	window     *FeatureWindow
	calibrator Calibrator
	score      ScoringFunc
}

// NewSession wires a session from its fitted parts.
func NewSession(order []string, scaler Scaler, windowSize int, cal Calibrator, score ScoringFunc) *Session {
	return &Session{
		window:     NewFeatureWindow(order, scaler, windowSize),
		calibrator: cal,
		score:      score,
	}
}

// AppendFeature scales and buffers one feature vector, returning the full
// window matrix.
func (s *Session) AppendFeature(v FeatureVector) [][]float32 {
	return s.window.Append(v)
}

// Calibrate maps raw scores to normalized class probabilities.
func (s *Session) Calibrate(q ScoreVector) Probs {
	return s.calibrator.Calibrate(q)
}

// Decide maps calibrated probabilities to a signal.
func (s *Session) Decide(p Probs) Signal {
	return Decide(p)
}

// Step runs the full append -> score -> calibrate -> decide pipeline for
// one time step. With fewer than minDecisionHistory observations buffered
// it returns the documented Flat fallback without invoking the model.
func (s *Session) Step(v FeatureVector) Signal {
	matrix := s.window.Append(v)
	if len(matrix) < minDecisionHistory {
		return FallbackSignal()
	}
	q := s.score(matrix)
	return Decide(s.calibrator.Calibrate(q))
}
