package fft

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// Errors specific to the pruned inverse transform.
var (
	ErrNotPowerOfTwo   = errors.New("fft: pruned transform requires a power-of-two length")
	ErrInvalidSplit    = errors.New("fft: invalid pruned decomposition split")
	ErrIndexOutOfRange = errors.New("fft: pruned index out of range")
)

// prunedSplit picks the decomposition N = N1*N2 for the pruned inverse.
// The heuristic N2 = 2^(log2(N)/2) balances the two phases; any split
// with N1*N2 = N produces identical values.
func prunedSplit(n int) (n1, n2 int) {
	n2 = 1 << ((bits.Len(uint(n)) - 1) / 2)
	return n / n2, n2
}

// PrunedInverseRaw evaluates the unnormalized inverse transform of src at
// the given time-domain indices only, writing one value per index into
// dst.
//
// The transform is decomposed Cooley-Tukey style into N1 sub-transforms
// of length N2 (run through the plan cache) followed by an explicit
// twiddle sum at each requested index. The values agree with InverseRaw
// at those indices to the numerical precision of the split.
//
// work must have the same length as src and must not alias it; it is
// overwritten. An empty index list is valid and leaves dst untouched.
func (e *Engine[C]) PrunedInverseRaw(dst []C, work, src []C, indices []int) error {
	n := len(src)
	if n == 0 {
		return ErrEmptyInput
	}
	if n&(n-1) != 0 {
		return fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}
	if len(work) != n {
		return fmt.Errorf("%w: work %d, src %d", ErrLengthMismatch, len(work), n)
	}
	if len(dst) < len(indices) {
		return fmt.Errorf("%w: dst %d, indices %d", ErrLengthMismatch, len(dst), len(indices))
	}
	for _, k := range indices {
		if k < 0 || k >= n {
			return fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, k, n)
		}
	}
	if len(indices) == 0 {
		return nil
	}

	n1, n2 := prunedSplit(n)
	return e.prunedInverseRawSplit(dst, work, src, indices, n1, n2)
}

// prunedInverseRawSplit is the split-explicit core of PrunedInverseRaw,
// separated so tests can exercise non-default decompositions.
func (e *Engine[C]) prunedInverseRawSplit(dst []C, work, src []C, indices []int, n1, n2 int) error {
	n := len(src)
	if n1 <= 0 || n2 <= 0 || n1*n2 != n {
		return fmt.Errorf("%w: %d * %d != %d", ErrInvalidSplit, n1, n2, n)
	}

	plan, err := e.plan(n2, KindComplexToComplex)
	if err != nil {
		return err
	}

	// First phase: for each residue r, the length-N2 unnormalized inverse
	// of the decimated sequence src[r], src[r+N1], ...
	scale := C(complex(float64(n2), 0))
	for r := 0; r < n1; r++ {
		seg := work[r*n2 : (r+1)*n2]
		for m := 0; m < n2; m++ {
			seg[m] = src[r+n1*m]
		}
		if err := plan.Inverse(seg, seg); err != nil {
			return err
		}
		for m := range seg {
			seg[m] *= scale
		}
	}

	// Second phase: explicit twiddle sum over the residues at each
	// requested index. x[k] = sum_r e^(2*pi*i*r*k/N) * G_r[k mod N2].
	for i, k := range indices {
		phaseInc := 2 * math.Pi * float64(k) / float64(n)
		k2 := k % n2
		var acc complex128
		for r := 0; r < n1; r++ {
			s, c := math.Sincos(phaseInc * float64(r))
			acc += complex(c, s) * complex128(work[r*n2+k2])
		}
		dst[i] = C(acc)
	}
	return nil
}
