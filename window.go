package main

// FeatureVector maps feature names to finite real values. Names missing
// from a vector are read as 0.0; extra names are ignored.
type FeatureVector map[string]float64

// Scaler is a pre-fitted per-feature affine transform (x - mean) / std,
// aligned with a canonical feature order. Fitted offline; only applied here.
type Scaler struct {
	Mean []float32 `json:"mean"`
	Std  []float32 `json:"std"`
}

// Apply scales one row in place-order. Zero or missing std falls back to 1
// so a constant feature passes through centered instead of exploding.
func (sc Scaler) Apply(row []float32) []float32 {
	out := make([]float32, len(row))
	for i, v := range row {
		var mean, std float32 = 0, 1
		if i < len(sc.Mean) {
			mean = sc.Mean[i]
		}
		if i < len(sc.Std) && sc.Std[i] > 0 {
			std = sc.Std[i]
		}
		out[i] = (v - mean) / std
	}
	return out
}

// IdentityScaler returns a no-op scaler for n features.
func IdentityScaler(n int) Scaler {
	mean := make([]float32, n)
	std := make([]float32, n)
	for i := range std {
		std[i] = 1
	}
	return Scaler{Mean: mean, Std: std}
}

// FeatureWindow is a fixed-capacity ring buffer of scaled feature rows.
// One window belongs to exactly one inference session; Append is the only
// mutation. Rows are stored in arrival order, oldest evicted first.
type FeatureWindow struct {
	order  []string
	scaler Scaler

	rows  [][]float32 // ring arena, len == capacity
	head  int         // index of oldest row
	count int
}

// NewFeatureWindow creates a window of capacity w over the given canonical
// feature order and pre-fitted scaler.
func NewFeatureWindow(order []string, scaler Scaler, w int) *FeatureWindow {
	if w < 1 {
		w = 1
	}
	return &FeatureWindow{
		order:  order,
		scaler: scaler,
		rows:   make([][]float32, w),
	}
}

// Len returns the number of rows currently buffered.
func (fw *FeatureWindow) Len() int { return fw.count }

// Cap returns the fixed window capacity.
func (fw *FeatureWindow) Cap() int { return len(fw.rows) }

// FeatureOrder returns the canonical feature order.
func (fw *FeatureWindow) FeatureOrder() []string { return fw.order }

// Append scales the incoming vector in canonical order, pushes it into the
// ring (evicting the oldest row at capacity) and returns the full buffer
// contents as an ordered matrix of shape (Len, len(order)). Missing feature
// names read as 0.0; this is never an error at this layer.
func (fw *FeatureWindow) Append(v FeatureVector) [][]float32 {
	row := make([]float32, len(fw.order))
	for i, name := range fw.order {
		row[i] = float32(v[name])
	}
	scaled := fw.scaler.Apply(row)

	if fw.count < len(fw.rows) {
		fw.rows[(fw.head+fw.count)%len(fw.rows)] = scaled
		fw.count++
	} else {
		fw.rows[fw.head] = scaled
		fw.head = (fw.head + 1) % len(fw.rows)
	}

	return fw.Matrix()
}

// Matrix returns the buffered rows oldest-first. The backing rows are
// shared with the window; callers must not mutate them.
func (fw *FeatureWindow) Matrix() [][]float32 {
	out := make([][]float32, fw.count)
	for i := 0; i < fw.count; i++ {
		out[i] = fw.rows[(fw.head+i)%len(fw.rows)]
	}
	return out
}
