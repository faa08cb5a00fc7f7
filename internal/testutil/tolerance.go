// Package testutil holds the numeric assertions and deterministic
// signal generators the transform and filtering tests share.
package testutil

import (
	"math"
	"math/cmplx"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireComplexNearlyEqual fails t if got and want differ in length or
// if any element pair differs by more than relTol relative to the
// largest magnitude in want.
func RequireComplexNearlyEqual(t *testing.T, got, want []complex128, relTol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	scale := scaleOf(want)
	for i := range got {
		if d := cmplx.Abs(got[i] - want[i]); d > relTol*scale {
			t.Fatalf("index %d: got %v, want %v (diff %v, relTol %v)", i, got[i], want[i], d, relTol)
		}
	}
}

// MaxRelDiff returns the largest elementwise difference between got and
// want, relative to the largest magnitude in want.
func MaxRelDiff(got, want []complex128) float64 {
	maxDiff := 0.0
	for i := range got {
		if d := cmplx.Abs(got[i] - want[i]); d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff / scaleOf(want)
}

func scaleOf(want []complex128) float64 {
	scale := 0.0
	for _, w := range want {
		if a := cmplx.Abs(w); a > scale {
			scale = a
		}
	}
	if scale == 0 {
		return 1
	}
	return scale
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}
