package main

import "testing"

func TestFeatureWindowEvictsOldest(t *testing.T) {
	order := []string{"a"}
	fw := NewFeatureWindow(order, IdentityScaler(1), 3)

	for i := 1; i <= 4; i++ {
		fw.Append(FeatureVector{"a": float64(i)})
	}

	m := fw.Matrix()
	if len(m) != 3 {
		t.Fatalf("window holds %d rows, want 3", len(m))
	}
	// Oldest first: 2, 3, 4 after 1 was evicted.
	for i, want := range []float32{2, 3, 4} {
		if m[i][0] != want {
			t.Fatalf("row %d = %v, want %v", i, m[i][0], want)
		}
	}
	if fw.Len() != 3 || fw.Cap() != 3 {
		t.Fatalf("Len=%d Cap=%d, want 3/3", fw.Len(), fw.Cap())
	}
}

func TestFeatureWindowPartialFill(t *testing.T) {
	fw := NewFeatureWindow([]string{"a"}, IdentityScaler(1), 5)
	m := fw.Append(FeatureVector{"a": 7})
	if len(m) != 1 || m[0][0] != 7 {
		t.Fatalf("matrix = %v, want single row [7]", m)
	}
	if fw.Len() != 1 {
		t.Fatalf("Len = %d, want 1", fw.Len())
	}
}

// Missing feature names read as zero; extra names are ignored.
func TestFeatureWindowMissingAndExtraFeatures(t *testing.T) {
	fw := NewFeatureWindow([]string{"a", "b"}, IdentityScaler(2), 2)
	m := fw.Append(FeatureVector{"a": 3, "junk": 99})
	if m[0][0] != 3 || m[0][1] != 0 {
		t.Fatalf("row = %v, want [3 0]", m[0])
	}
}

func TestScalerApply(t *testing.T) {
	sc := Scaler{Mean: []float32{10, 5}, Std: []float32{2, 0}}
	out := sc.Apply([]float32{14, 8})

	if out[0] != 2 {
		t.Fatalf("scaled[0] = %v, want 2", out[0])
	}
	// Zero std falls back to 1: centered but not divided.
	if out[1] != 3 {
		t.Fatalf("scaled[1] = %v, want 3", out[1])
	}
}

func TestFeatureWindowAppliesScaler(t *testing.T) {
	sc := Scaler{Mean: []float32{100}, Std: []float32{10}}
	fw := NewFeatureWindow([]string{"price"}, sc, 2)
	m := fw.Append(FeatureVector{"price": 120})
	if m[0][0] != 2 {
		t.Fatalf("scaled row = %v, want [2]", m[0])
	}
}
