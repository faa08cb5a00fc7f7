package filter

import (
	"errors"
	"fmt"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-gw/gw/fft"
	"github.com/cwbudde/algo-gw/gw/series"
)

// Errors returned by the filtering routines.
var (
	ErrLengthMismatch = errors.New("filter: template and data length mismatch")
	ErrDeltaFMismatch = errors.New("filter: psd frequency spacing does not match data")
	ErrInvalidBand    = errors.New("filter: invalid frequency band")
	ErrZeroNorm       = errors.New("filter: template has no power in analysis band")
	ErrEmptyInput     = errors.New("filter: empty input")
)

// CutoffIndices converts physical frequency bounds into integer bin
// indices for a one-sided spectrum of a length-n real time series.
//
// fLow <= 0 means unset and defaults to kmin=1 (skip DC); fHigh <= 0
// means unset and defaults to kmax = n/2+1 (one past Nyquist). The
// returned band is [kmin, kmax).
func CutoffIndices(fLow, fHigh, df float64, n int) (kmin, kmax int, err error) {
	if df <= 0 || n <= 0 {
		return 0, 0, fmt.Errorf("%w: df=%v, n=%d", ErrInvalidBand, df, n)
	}

	if fLow > 0 {
		kmin = int(fLow / df)
	} else {
		kmin = 1
	}
	if fHigh > 0 {
		kmax = int(fHigh / df)
	} else {
		kmax = n/2 + 1
	}

	if kmin >= kmax {
		return 0, 0, fmt.Errorf("%w: kmin=%d >= kmax=%d", ErrInvalidBand, kmin, kmax)
	}
	return kmin, kmax, nil
}

// ToFrequencySeries forward-transforms a real time series into its
// one-sided spectrum with DeltaF = 1/(N*DeltaT).
func ToFrequencySeries[F algofft.Float, C algofft.Complex](
	e *fft.Engine[C], ts series.TimeSeries[F],
) (series.FrequencySeries[C], error) {
	n := len(ts.Data)
	if n == 0 {
		return series.FrequencySeries[C]{}, ErrEmptyInput
	}
	if ts.DeltaT <= 0 {
		return series.FrequencySeries[C]{}, fmt.Errorf("%w: delta_t=%v", ErrInvalidBand, ts.DeltaT)
	}

	full := make([]C, n)
	if err := fft.ForwardReal(e, full, ts.Data); err != nil {
		return series.FrequencySeries[C]{}, err
	}

	out := make([]C, n/2+1)
	copy(out, full[:n/2+1])
	return series.FrequencySeries[C]{
		Data:   out,
		DeltaF: 1 / (float64(n) * ts.DeltaT),
		Epoch:  ts.Epoch,
	}, nil
}

// SigmasqSeries returns the cumulative power of the template up to each
// frequency bin: at bin k it holds 4*DeltaF * sum of |h[i]|^2/psd[i] for
// kmin <= i <= k, and is zero outside [kmin, kmax). psd may be nil for
// unweighted power.
//
// The value at kmax-1 is the template's sigma-squared; the series is also
// the input for equal-power chi-squared binning.
func SigmasqSeries[F algofft.Float, C algofft.Complex](
	h series.FrequencySeries[C], psd *series.FrequencySeries[F], fLow, fHigh float64,
) (series.FrequencySeries[F], error) {
	n := len(h.Data)
	if n == 0 {
		return series.FrequencySeries[F]{}, ErrEmptyInput
	}

	bigN := 2 * (n - 1)
	kmin, kmax, err := CutoffIndices(fLow, fHigh, h.DeltaF, bigN)
	if err != nil {
		return series.FrequencySeries[F]{}, err
	}
	if kmax > n {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: kmax=%d, bins=%d", ErrInvalidBand, kmax, n)
	}
	if err := checkPSD(psd, h.DeltaF, kmax); err != nil {
		return series.FrequencySeries[F]{}, err
	}

	out := make([]F, n)
	mag := make([]F, kmax-kmin)
	powerInto(mag, h.Data[kmin:kmax])

	norm := 4 * h.DeltaF
	acc := 0.0
	for i, p := range mag {
		v := float64(p)
		if psd != nil {
			v /= float64(psd.Data[kmin+i])
		}
		acc += v
		out[kmin+i] = F(acc * norm)
	}

	return series.FrequencySeries[F]{Data: out, DeltaF: h.DeltaF, Epoch: h.Epoch}, nil
}

// Sigmasq returns the total expected power of the template over the
// analysis band, 4*DeltaF * sum |h[k]|^2/psd[k] for k in [kmin, kmax).
func Sigmasq[F algofft.Float, C algofft.Complex](
	h series.FrequencySeries[C], psd *series.FrequencySeries[F], fLow, fHigh float64,
) (float64, error) {
	n := len(h.Data)
	if n == 0 {
		return 0, ErrEmptyInput
	}

	bigN := 2 * (n - 1)
	kmin, kmax, err := CutoffIndices(fLow, fHigh, h.DeltaF, bigN)
	if err != nil {
		return 0, err
	}
	if kmax > n {
		return 0, fmt.Errorf("%w: kmax=%d, bins=%d", ErrInvalidBand, kmax, n)
	}
	if err := checkPSD(psd, h.DeltaF, kmax); err != nil {
		return 0, err
	}

	mag := make([]F, kmax-kmin)
	powerInto(mag, h.Data[kmin:kmax])

	acc := 0.0
	for i, p := range mag {
		v := float64(p)
		if psd != nil {
			v /= float64(psd.Data[kmin+i])
		}
		acc += v
	}
	return acc * 4 * h.DeltaF, nil
}

// Sigma returns sqrt(Sigmasq), the loudness of the template.
func Sigma[F algofft.Float, C algofft.Complex](
	h series.FrequencySeries[C], psd *series.FrequencySeries[F], fLow, fHigh float64,
) (float64, error) {
	sq, err := Sigmasq(h, psd, fLow, fHigh)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(sq), nil
}

// checkPSD validates spacing and coverage of an optional PSD.
func checkPSD[F algofft.Float](psd *series.FrequencySeries[F], df float64, kmax int) error {
	if psd == nil {
		return nil
	}
	if psd.DeltaF != df {
		return fmt.Errorf("%w: psd=%v, data=%v", ErrDeltaFMismatch, psd.DeltaF, df)
	}
	if len(psd.Data) < kmax {
		return fmt.Errorf("%w: psd has %d bins, need %d", ErrLengthMismatch, len(psd.Data), kmax)
	}
	return nil
}

// scratchBuf holds pooled scratch memory for complex-to-real unpacking
// on the SIMD power path.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

// powerInto computes |src[i]|^2 into dst. The double-precision path
// unpacks into pooled scratch and uses the vectorized power kernel;
// other precisions fall back to a scalar loop.
func powerInto[F algofft.Float, C algofft.Complex](dst []F, src []C) {
	d64, okD := any(dst).([]float64)
	s128, okS := any(src).([]complex128)
	if okD && okS {
		buf := scratchPool.Get().(*scratchBuf)
		need := 2 * len(src)
		if cap(buf.data) < need {
			buf.data = make([]float64, need)
		} else {
			buf.data = buf.data[:need]
		}
		re, im := buf.data[:len(src)], buf.data[len(src):need]
		for i, c := range s128 {
			re[i] = real(c)
			im[i] = imag(c)
		}
		vecmath.Power(d64, re, im)
		scratchPool.Put(buf)
		return
	}

	for i, c := range src {
		v := complex128(c)
		re, im := real(v), imag(v)
		dst[i] = F(re*re + im*im)
	}
}
