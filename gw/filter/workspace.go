package filter

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-gw/gw/fft"
	"github.com/cwbudde/algo-gw/gw/series"
)

// Workspace owns the scratch buffers of the matched filter: the
// frequency-domain correlation vector qtilde and the time-domain SNR
// vector q, plus their coarse two-stage counterparts. Buffers are sized
// lazily on first use and resized only when the transform length
// changes, so repeated (template x segment) calls allocate nothing.
//
// A Workspace must not be used by two goroutines at once. Parallel
// searches give each worker its own instance; the FFT engine (and its
// plan cache) can be shared.
type Workspace[F algofft.Float, C algofft.Complex] struct {
	engine *fft.Engine[C]

	q      []C
	qtilde []C

	q2      []C
	qtilde2 []C
}

// NewWorkspace returns an empty workspace bound to the given engine.
func NewWorkspace[F algofft.Float, C algofft.Complex](engine *fft.Engine[C]) *Workspace[F, C] {
	return &Workspace[F, C]{engine: engine}
}

// Engine returns the transform engine the workspace is bound to.
func (w *Workspace[F, C]) Engine() *fft.Engine[C] { return w.engine }

// ensure sizes q and qtilde to n and zeroes qtilde. q is fully
// overwritten by the inverse transform, so it is not cleared.
func (w *Workspace[F, C]) ensure(n int) {
	w.q = ensureLen(w.q, n)
	w.qtilde = ensureLen(w.qtilde, n)
	clear(w.qtilde)
}

// ensureCoarse sizes the two-stage coarse buffers to n and zeroes the
// coarse correlation vector.
func (w *Workspace[F, C]) ensureCoarse(n int) {
	w.q2 = ensureLen(w.q2, n)
	w.qtilde2 = ensureLen(w.qtilde2, n)
	clear(w.qtilde2)
}

// ensureLen returns a slice with the requested length, reusing capacity
// if possible.
func ensureLen[C any](buf []C, n int) []C {
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]C, n)
}

// MatchedFilterCore correlates the template against the data and returns
// the raw complex SNR time series, the frequency-domain correlation
// vector, and the normalization.
//
// Both inputs must be one-sided spectra of equal length. psd may be nil;
// when given, its spacing must equal the data's. hNorm is the template's
// sigma-squared; pass 0 to have it computed internally.
//
// The returned series alias workspace memory and stay valid only until
// the next call on this workspace. The true SNR is the raw series times
// norm. Time-domain sample i corresponds to trial arrival time
// epoch + i*DeltaT, wrapping cyclically at N.
func (w *Workspace[F, C]) MatchedFilterCore(
	tmpl, data series.FrequencySeries[C],
	psd *series.FrequencySeries[F],
	fLow, fHigh float64,
	hNorm float64,
) (snr series.TimeSeries[C], corr series.FrequencySeries[C], norm float64, err error) {
	if len(tmpl.Data) != len(data.Data) {
		err = fmt.Errorf("%w: template=%d, data=%d", ErrLengthMismatch, len(tmpl.Data), len(data.Data))
		return
	}
	if len(data.Data) == 0 {
		err = ErrEmptyInput
		return
	}

	n := 2 * (len(data.Data) - 1)
	kmin, kmax, cerr := CutoffIndices(fLow, fHigh, data.DeltaF, n)
	if cerr != nil {
		err = cerr
		return
	}
	if kmax > len(data.Data) {
		err = fmt.Errorf("%w: kmax=%d, bins=%d", ErrInvalidBand, kmax, len(data.Data))
		return
	}
	if err = checkPSD(psd, data.DeltaF, kmax); err != nil {
		return
	}

	w.ensure(n)

	if err = Correlate(tmpl.Data[kmin:kmax], data.Data[kmin:kmax], w.qtilde[kmin:kmax]); err != nil {
		return
	}
	if psd != nil {
		divideByPSD(w.qtilde[kmin:kmax], psd.Data[kmin:kmax])
	}

	if err = w.engine.InverseRaw(w.q, w.qtilde); err != nil {
		return
	}

	if hNorm == 0 {
		if hNorm, err = Sigmasq(tmpl, psd, fLow, fHigh); err != nil {
			return
		}
	}
	if hNorm <= 0 {
		err = ErrZeroNorm
		return
	}

	norm = 4 * data.DeltaF / math.Sqrt(hNorm)
	deltaT := 1 / (float64(n) * data.DeltaF)

	snr = series.TimeSeries[C]{Data: w.q, DeltaT: deltaT, Epoch: data.Epoch}
	corr = series.FrequencySeries[C]{Data: w.qtilde, DeltaF: data.DeltaF, Epoch: data.Epoch}
	return snr, corr, norm, nil
}

// MatchedFilter returns the normalized complex SNR time series in a
// freshly allocated buffer.
func (w *Workspace[F, C]) MatchedFilter(
	tmpl, data series.FrequencySeries[C],
	psd *series.FrequencySeries[F],
	fLow, fHigh float64,
) (series.TimeSeries[C], error) {
	raw, _, norm, err := w.MatchedFilterCore(tmpl, data, psd, fLow, fHigh, 0)
	if err != nil {
		return series.TimeSeries[C]{}, err
	}

	out := make([]C, len(raw.Data))
	scale := C(complex(norm, 0))
	for i, v := range raw.Data {
		out[i] = v * scale
	}
	return series.TimeSeries[C]{Data: out, DeltaT: raw.DeltaT, Epoch: raw.Epoch}, nil
}

// Match returns the overlap between two waveforms maximized over time
// and phase, together with the index of the maximizing time shift.
// v1Norm and v2Norm are the waveforms' sigma-squared values; pass 0 to
// compute them internally. Matching a waveform against itself yields 1.
func (w *Workspace[F, C]) Match(
	v1, v2 series.FrequencySeries[C],
	psd *series.FrequencySeries[F],
	fLow, fHigh float64,
	v1Norm, v2Norm float64,
) (match float64, maxIndex int, err error) {
	raw, _, norm, err := w.MatchedFilterCore(v1, v2, psd, fLow, fHigh, v1Norm)
	if err != nil {
		return 0, 0, err
	}

	maxAbs, maxIndex := maxAbsLoc(raw.Data)

	if v2Norm == 0 {
		if v2Norm, err = Sigmasq(v2, psd, fLow, fHigh); err != nil {
			return 0, 0, err
		}
	}
	if v2Norm <= 0 {
		return 0, 0, ErrZeroNorm
	}

	return maxAbs * norm / math.Sqrt(v2Norm), maxIndex, nil
}

// divideByPSD divides the correlation band elementwise by the PSD.
func divideByPSD[F algofft.Float, C algofft.Complex](band []C, psd []F) {
	if bv, ok := any(band).([]complex128); ok {
		pv := any(psd).([]float64)
		for i := range bv {
			bv[i] /= complex(pv[i], 0)
		}
		return
	}
	for i := range band {
		band[i] = C(complex128(band[i]) / complex(float64(psd[i]), 0))
	}
}

// maxAbsLoc returns the largest magnitude in v and its index. Exact ties
// keep the earliest index.
func maxAbsLoc[C algofft.Complex](v []C) (maxAbs float64, index int) {
	for i, c := range v {
		if a := cmplx.Abs(complex128(c)); a > maxAbs {
			maxAbs = a
			index = i
		}
	}
	return maxAbs, index
}
