package testutil

import (
	"math"
	"testing"
)

func TestMaxRelDiff(t *testing.T) {
	a := []complex128{10, 2i, 3 + 1i}
	b := []complex128{10, 2i, 3}

	// Largest difference is 1, largest magnitude in want is 10.
	if d := MaxRelDiff(a, b); math.Abs(d-0.1) > 1e-15 {
		t.Fatalf("MaxRelDiff = %v, want 0.1", d)
	}
	if d := MaxRelDiff(a, a); d != 0 {
		t.Fatalf("MaxRelDiff = %v, want 0 for identical slices", d)
	}
}

func TestMaxRelDiffZeroScale(t *testing.T) {
	got := []complex128{0.25}
	want := []complex128{0}

	// An all-zero reference falls back to an absolute comparison.
	if d := MaxRelDiff(got, want); math.Abs(d-0.25) > 1e-15 {
		t.Fatalf("MaxRelDiff = %v, want 0.25", d)
	}
}

func TestRequireFinitePasses(t *testing.T) {
	RequireFinite(t, []float64{0, -1.5, math.MaxFloat64})
}
