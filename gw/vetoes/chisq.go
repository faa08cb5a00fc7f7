package vetoes

import (
	"errors"
	"fmt"
	"math"
	"sort"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-gw/gw/fft"
	"github.com/cwbudde/algo-gw/gw/filter"
	"github.com/cwbudde/algo-gw/gw/series"
)

// Errors returned by the veto computations.
var (
	ErrInvalidBins    = errors.New("vetoes: number of bins must be positive")
	ErrInvalidBand    = errors.New("vetoes: invalid frequency band")
	ErrNoPower        = errors.New("vetoes: template has no power in band")
	ErrLengthMismatch = errors.New("vetoes: length mismatch")
	ErrInvalidConfig  = errors.New("vetoes: invalid configuration")
)

// PowerChisqBinsFromSigmasqSeries splits the band [kmin, kmax) into
// numBins contiguous frequency intervals of equal template power, given
// the cumulative power series of the template. The returned slice holds
// numBins+1 bin edges starting at kmin and ending at kmax.
//
// Edges are found by binary search for the first bin whose cumulative
// power strictly exceeds each target j*sigmasq/numBins, matching a
// right-sided sorted insertion.
func PowerChisqBinsFromSigmasqSeries[F algofft.Float](
	cum series.FrequencySeries[F], numBins, kmin, kmax int,
) ([]int, error) {
	if numBins < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBins, numBins)
	}
	if kmin < 0 || kmax > len(cum.Data) || kmin >= kmax {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrInvalidBand, kmin, kmax, len(cum.Data))
	}

	total := float64(cum.Data[kmax-1])
	if total <= 0 {
		return nil, ErrNoPower
	}

	band := cum.Data[kmin:kmax]
	edges := make([]int, 0, numBins+1)
	edges = append(edges, kmin)
	for j := 1; j < numBins; j++ {
		target := total * float64(j) / float64(numBins)
		i := sort.Search(len(band), func(i int) bool {
			return float64(band[i]) > target
		})
		edges = append(edges, kmin+i)
	}
	edges = append(edges, kmax)
	return edges, nil
}

// PowerChisqBins computes equal-power bin edges for a template spectrum
// directly. psd may be nil for unweighted power.
func PowerChisqBins[F algofft.Float, C algofft.Complex](
	h series.FrequencySeries[C], psd *series.FrequencySeries[F],
	numBins int, fLow, fHigh float64,
) ([]int, error) {
	cum, err := filter.SigmasqSeries(h, psd, fLow, fHigh)
	if err != nil {
		return nil, err
	}
	n := 2 * (len(h.Data) - 1)
	kmin, kmax, err := filter.CutoffIndices(fLow, fHigh, h.DeltaF, n)
	if err != nil {
		return nil, err
	}
	return PowerChisqBinsFromSigmasqSeries(cum, numBins, kmin, kmax)
}

// ChisqKernel owns the scratch buffers of the per-band inverse
// transforms. Like the filter workspace it is single-goroutine; parallel
// searches give each worker its own kernel over a shared engine.
type ChisqKernel[C algofft.Complex] struct {
	engine *fft.Engine[C]

	q      []C
	qtilde []C
	acc    []float64
}

// NewChisqKernel returns an empty kernel bound to the given engine.
func NewChisqKernel[C algofft.Complex](engine *fft.Engine[C]) *ChisqKernel[C] {
	return &ChisqKernel[C]{engine: engine}
}

func (k *ChisqKernel[C]) ensure(n, points int) {
	if cap(k.q) < n {
		k.q = make([]C, n)
		k.qtilde = make([]C, n)
	}
	k.q = k.q[:n]
	k.qtilde = k.qtilde[:n]
	clear(k.qtilde)

	if cap(k.acc) < points {
		k.acc = make([]float64, points)
	}
	k.acc = k.acc[:points]
	clear(k.acc)
}

// PowerChisqFromPrecomputed computes the power chi-squared at the given
// sample indices from an existing correlation vector.
//
// corr is the full-length frequency-domain correlation produced by the
// matched filter, rawSNR the unnormalized complex SNR at each index, and
// norm the filter's normalization. edges are the equal-power bin edges.
// The statistic per point is
//
//	chisq = (numBins * sum_b |q_b|^2 - |snr|^2) * norm^2
//
// with 2*numBins-2 degrees of freedom; on Gaussian noise its expectation
// equals the degrees of freedom.
func (k *ChisqKernel[C]) PowerChisqFromPrecomputed(
	corr []C, rawSNR []C, indices []int, edges []int, norm float64,
) ([]float64, int, error) {
	numBins := len(edges) - 1
	if numBins < 1 {
		return nil, 0, fmt.Errorf("%w: %d edges", ErrInvalidBins, len(edges))
	}
	if len(rawSNR) != len(indices) {
		return nil, 0, fmt.Errorf("%w: %d snr values, %d indices", ErrLengthMismatch, len(rawSNR), len(indices))
	}
	n := len(corr)
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: empty correlation", ErrLengthMismatch)
	}
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, 0, fmt.Errorf("%w: index %d of %d", ErrInvalidBand, idx, n)
		}
	}
	if edges[0] < 0 || edges[numBins] > n {
		return nil, 0, fmt.Errorf("%w: edges [%d, %d) of %d", ErrInvalidBand, edges[0], edges[numBins], n)
	}

	k.ensure(n, len(indices))

	for b := 0; b < numBins; b++ {
		lo, hi := edges[b], edges[b+1]
		if lo > hi {
			return nil, 0, fmt.Errorf("%w: edge %d after %d", ErrInvalidBand, lo, hi)
		}
		copy(k.qtilde[lo:hi], corr[lo:hi])
		if err := k.engine.InverseRaw(k.q, k.qtilde); err != nil {
			return nil, 0, err
		}
		clear(k.qtilde[lo:hi])

		for pi, idx := range indices {
			z := complex128(k.q[idx])
			k.acc[pi] += real(z)*real(z) + imag(z)*imag(z)
		}
	}

	out := make([]float64, len(indices))
	for pi := range indices {
		z := complex128(rawSNR[pi])
		snr2 := real(z)*real(z) + imag(z)*imag(z)
		out[pi] = (k.acc[pi]*float64(numBins) - snr2) * norm * norm
	}
	return out, 2*numBins - 2, nil
}

// PowerChisq composes the whole veto in one call: equal-power bin edges
// for the template, a matched filter of the template against the data,
// and the statistic at the requested trigger samples. Callers that
// already hold the filter output should use PowerChisqFromPrecomputed
// instead of filtering twice.
func PowerChisq[F algofft.Float, C algofft.Complex](
	w *filter.Workspace[F, C],
	k *ChisqKernel[C],
	tmpl, data series.FrequencySeries[C],
	psd *series.FrequencySeries[F],
	numBins int,
	fLow, fHigh float64,
	indices []int,
) ([]float64, int, error) {
	edges, err := PowerChisqBins(tmpl, psd, numBins, fLow, fHigh)
	if err != nil {
		return nil, 0, err
	}

	raw, corr, norm, err := w.MatchedFilterCore(tmpl, data, psd, fLow, fHigh, 0)
	if err != nil {
		return nil, 0, err
	}

	rawSNR := make([]C, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(raw.Data) {
			return nil, 0, fmt.Errorf("%w: index %d of %d", ErrInvalidBand, idx, len(raw.Data))
		}
		rawSNR[i] = raw.Data[idx]
	}
	return k.PowerChisqFromPrecomputed(corr.Data, rawSNR, indices, edges, norm)
}

// PowerChisqAtPoints computes the same statistic without any inverse
// transform, evaluating each band's time-domain value at the requested
// samples by direct phasor summation. It wins when only a handful of
// triggers need vetting.
func PowerChisqAtPoints[C algofft.Complex](
	corr []C, rawSNR []C, indices []int, edges []int, norm float64,
) ([]float64, int, error) {
	numBins := len(edges) - 1
	if numBins < 1 {
		return nil, 0, fmt.Errorf("%w: %d edges", ErrInvalidBins, len(edges))
	}
	if len(rawSNR) != len(indices) {
		return nil, 0, fmt.Errorf("%w: %d snr values, %d indices", ErrLengthMismatch, len(rawSNR), len(indices))
	}
	n := len(corr)
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: empty correlation", ErrLengthMismatch)
	}
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, 0, fmt.Errorf("%w: index %d of %d", ErrInvalidBand, idx, n)
		}
	}
	if edges[0] < 0 || edges[numBins] > n {
		return nil, 0, fmt.Errorf("%w: edges [%d, %d) of %d", ErrInvalidBand, edges[0], edges[numBins], n)
	}

	acc := make([]float64, len(indices))
	for b := 0; b < numBins; b++ {
		vals := shiftSum(corr, indices, edges[b], edges[b+1], n)
		for pi, v := range vals {
			acc[pi] += real(v)*real(v) + imag(v)*imag(v)
		}
	}

	out := make([]float64, len(indices))
	for pi := range indices {
		z := complex128(rawSNR[pi])
		snr2 := real(z)*real(z) + imag(z)*imag(z)
		out[pi] = (acc[pi]*float64(numBins) - snr2) * norm * norm
	}
	return out, 2*numBins - 2, nil
}

// shiftSum evaluates the inverse transform of corr restricted to the
// band [kmin, kmax) at the given time samples only, walking the band
// with an incrementally rotated phasor instead of calling Sincos per
// term.
func shiftSum[C algofft.Complex](corr []C, points []int, kmin, kmax, n int) []complex128 {
	out := make([]complex128, len(points))
	for pi, t := range points {
		step := 2 * math.Pi * float64(t) / float64(n)

		s0, c0 := math.Sincos(step * float64(kmin))
		p := complex(c0, s0)
		sv, cv := math.Sincos(step)
		rot := complex(cv, sv)

		var acc complex128
		for k := kmin; k < kmax; k++ {
			acc += complex128(corr[k]) * p
			p *= rot
		}
		out[pi] = acc
	}
	return out
}
