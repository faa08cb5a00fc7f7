package filter

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-gw/gw/series"
)

// OverlapCplx returns the complex inner product between two waveforms
// over the analysis band, 4*DeltaF * sum conj(v1[k])*v2[k]/psd[k]. When
// normalized it is divided by both sigmas, ranging over the unit disk.
func OverlapCplx[F algofft.Float, C algofft.Complex](
	v1, v2 series.FrequencySeries[C],
	psd *series.FrequencySeries[F],
	fLow, fHigh float64,
	normalized bool,
) (complex128, error) {
	if len(v1.Data) != len(v2.Data) {
		return 0, fmt.Errorf("%w: v1=%d, v2=%d", ErrLengthMismatch, len(v1.Data), len(v2.Data))
	}
	if len(v1.Data) == 0 {
		return 0, ErrEmptyInput
	}

	n := 2 * (len(v2.Data) - 1)
	kmin, kmax, err := CutoffIndices(fLow, fHigh, v2.DeltaF, n)
	if err != nil {
		return 0, err
	}
	if kmax > len(v2.Data) {
		return 0, fmt.Errorf("%w: kmax=%d, bins=%d", ErrInvalidBand, kmax, len(v2.Data))
	}
	if err := checkPSD(psd, v2.DeltaF, kmax); err != nil {
		return 0, err
	}

	var inner complex128
	for k := kmin; k < kmax; k++ {
		a := complex128(v1.Data[k])
		b := complex128(v2.Data[k])
		term := complex(real(a)*real(b)+imag(a)*imag(b), real(a)*imag(b)-imag(a)*real(b))
		if psd != nil {
			term /= complex(float64(psd.Data[k]), 0)
		}
		inner += term
	}

	out := complex(4*v2.DeltaF, 0) * inner

	if normalized {
		sq1, err := Sigmasq(v1, psd, fLow, fHigh)
		if err != nil {
			return 0, err
		}
		sq2, err := Sigmasq(v2, psd, fLow, fHigh)
		if err != nil {
			return 0, err
		}
		if sq1 <= 0 || sq2 <= 0 {
			return 0, ErrZeroNorm
		}
		out /= complex(math.Sqrt(sq1)*math.Sqrt(sq2), 0)
	}
	return out, nil
}

// Overlap returns the real part of OverlapCplx.
func Overlap[F algofft.Float, C algofft.Complex](
	v1, v2 series.FrequencySeries[C],
	psd *series.FrequencySeries[F],
	fLow, fHigh float64,
	normalized bool,
) (float64, error) {
	c, err := OverlapCplx(v1, v2, psd, fLow, fHigh, normalized)
	if err != nil {
		return 0, err
	}
	return real(c), nil
}
