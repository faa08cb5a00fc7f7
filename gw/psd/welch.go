package psd

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-gw/gw/fft"
	"github.com/cwbudde/algo-gw/gw/series"
)

// Welch estimates the one-sided PSD of a real time series by averaging
// Hann-windowed overlapping periodograms.
//
// segLen sets the transform length (and so the output spacing,
// 1/(segLen*DeltaT)); stride is the hop between segment starts, so
// stride = segLen/2 gives the usual half-overlapping estimate. The
// input must cover at least one full segment. Interior bins carry the
// one-sided factor of two; DC and Nyquist do not.
func Welch[F algofft.Float, C algofft.Complex](
	e *fft.Engine[C], ts series.TimeSeries[F], segLen, stride int,
) (series.FrequencySeries[F], error) {
	n := len(ts.Data)
	if segLen <= 0 || segLen > n {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: segment %d of %d samples", ErrInvalidLength, segLen, n)
	}
	if stride <= 0 || stride > segLen {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: stride %d for segment %d", ErrInvalidLength, stride, segLen)
	}
	if ts.DeltaT <= 0 {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: delta_t=%v", ErrInvalidSpacing, ts.DeltaT)
	}

	window := make([]float64, segLen)
	wsum2 := 0.0
	for i := range window {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(segLen)))
		window[i] = w
		wsum2 += w * w
	}

	bins := segLen/2 + 1
	acc := make([]float64, bins)
	seg := make([]F, segLen)
	spec := make([]C, segLen)

	segments := 0
	for start := 0; start+segLen <= n; start += stride {
		for i := range seg {
			seg[i] = F(float64(ts.Data[start+i]) * window[i])
		}
		if err := fft.ForwardReal(e, spec, seg); err != nil {
			return series.FrequencySeries[F]{}, err
		}
		for k := 0; k < bins; k++ {
			z := complex128(spec[k])
			acc[k] += real(z)*real(z) + imag(z)*imag(z)
		}
		segments++
	}

	scale := 2 * ts.DeltaT / (wsum2 * float64(segments))
	out := make([]F, bins)
	for k := range out {
		s := acc[k] * scale
		if k == 0 || k == bins-1 {
			s /= 2
		}
		out[k] = F(s)
	}

	return series.FrequencySeries[F]{
		Data:   out,
		DeltaF: 1 / (float64(segLen) * ts.DeltaT),
		Epoch:  ts.Epoch,
	}, nil
}
