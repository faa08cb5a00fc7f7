package filter

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Correlate computes the pointwise conjugate product z[i] = conj(x[i]) * y[i].
//
// All three slices must have equal length. Callers filter band-limited
// sub-ranges of a larger workspace; only the given range is written, so
// the surrounding buffer must be zeroed by the caller before reuse.
func Correlate[C algofft.Complex](x, y, z []C) error {
	if len(x) != len(y) || len(x) != len(z) {
		return fmt.Errorf("%w: x=%d, y=%d, z=%d", ErrLengthMismatch, len(x), len(y), len(z))
	}

	switch xv := any(x).(type) {
	case []complex128:
		yv := any(y).([]complex128)
		zv := any(z).([]complex128)
		for i := range xv {
			a, b := xv[i], yv[i]
			zv[i] = complex(
				real(a)*real(b)+imag(a)*imag(b),
				real(a)*imag(b)-imag(a)*real(b),
			)
		}
	case []complex64:
		yv := any(y).([]complex64)
		zv := any(z).([]complex64)
		for i := range xv {
			a, b := xv[i], yv[i]
			zv[i] = complex(
				real(a)*real(b)+imag(a)*imag(b),
				real(a)*imag(b)-imag(a)*real(b),
			)
		}
	default:
		// Named complex types fall back to double-precision arithmetic.
		for i := range x {
			a := complex128(x[i])
			b := complex128(y[i])
			z[i] = C(complex(
				real(a)*real(b)+imag(a)*imag(b),
				real(a)*imag(b)-imag(a)*real(b),
			))
		}
	}
	return nil
}
