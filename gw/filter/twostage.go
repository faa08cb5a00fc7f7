package filter

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-gw/gw/events"
	"github.com/cwbudde/algo-gw/gw/series"
)

// Errors specific to two-stage filtering.
var (
	ErrInvalidDownsample = errors.New("filter: invalid downsample factor")
	ErrInvalidSlice      = errors.New("filter: invalid analysis slice")
)

// TwoStageConfig controls the pruned two-stage matched filter.
//
// The coarse stage runs at 1/DownsampleFactor of the full rate and keeps
// samples whose raw SNR exceeds SNRThreshold/norm * DownsampleThreshold;
// DownsampleThreshold < 1 relaxes the coarse cut to protect against peaks
// that straddle coarse samples. AnalyzeStart/AnalyzeStop bound the valid
// region of the segment in full-rate samples.
type TwoStageConfig struct {
	DownsampleFactor    int
	DownsampleThreshold float64
	SNRThreshold        float64
	AnalyzeStart        int
	AnalyzeStop         int
}

// TwoStageResult carries the surviving candidates of a two-stage filter.
//
// SNR holds the raw (unnormalized) full-resolution complex SNR at each
// entry of Indices; the physical SNR is SNR[i] * Norm. Corr aliases
// workspace memory. An empty Indices slice means no sample crossed the
// coarse threshold.
type TwoStageResult[C algofft.Complex] struct {
	Indices []int
	SNR     []C
	Corr    series.FrequencySeries[C]
	Norm    float64
}

// TwoStageMatchedFilter locates threshold crossings with a cheap filter
// at a coarsened sample rate, then recomputes the exact full-resolution
// SNR at only those samples via the pruned inverse transform.
//
// The pruned second stage reproduces what the full inverse transform
// would produce at the selected indices, so no candidate the coarse
// stage keeps is ever mis-valued. The data is assumed to be already
// noise-weighted (over-whitened); hNorm is the template sigma-squared
// and must be positive.
func (w *Workspace[F, C]) TwoStageMatchedFilter(
	tmpl, data series.FrequencySeries[C],
	hNorm float64,
	cfg TwoStageConfig,
	fLow, fHigh float64,
) (TwoStageResult[C], error) {
	var res TwoStageResult[C]

	if len(tmpl.Data) != len(data.Data) {
		return res, fmt.Errorf("%w: template=%d, data=%d", ErrLengthMismatch, len(tmpl.Data), len(data.Data))
	}
	if len(data.Data) == 0 {
		return res, ErrEmptyInput
	}
	if hNorm <= 0 {
		return res, ErrZeroNorm
	}

	n := 2 * (len(data.Data) - 1)
	factor := cfg.DownsampleFactor
	if factor < 1 || n%factor != 0 {
		return res, fmt.Errorf("%w: %d does not divide N=%d", ErrInvalidDownsample, factor, n)
	}
	if cfg.AnalyzeStart < 0 || cfg.AnalyzeStop > n || cfg.AnalyzeStart >= cfg.AnalyzeStop {
		return res, fmt.Errorf("%w: [%d, %d) of %d", ErrInvalidSlice, cfg.AnalyzeStart, cfg.AnalyzeStop, n)
	}
	if cfg.AnalyzeStart%factor != 0 || cfg.AnalyzeStop%factor != 0 {
		return res, fmt.Errorf("%w: bounds [%d, %d) not aligned to factor %d",
			ErrInvalidSlice, cfg.AnalyzeStart, cfg.AnalyzeStop, factor)
	}

	kmin, kmax, err := CutoffIndices(fLow, fHigh, data.DeltaF, n)
	if err != nil {
		return res, err
	}
	if kmax > len(data.Data) {
		return res, fmt.Errorf("%w: kmax=%d, bins=%d", ErrInvalidBand, kmax, len(data.Data))
	}

	nCoarse := n / factor
	kmin2, kmax2, err := CutoffIndices(fLow, fHigh, data.DeltaF, nCoarse)
	if err != nil {
		return res, err
	}

	norm := 4 * data.DeltaF / math.Sqrt(hNorm)

	// Coarse stage: band-limited correlation at the reduced length.
	w.ensureCoarse(nCoarse)
	if err := Correlate(tmpl.Data[kmin2:kmax2], data.Data[kmin2:kmax2], w.qtilde2[kmin2:kmax2]); err != nil {
		return res, err
	}
	if err := w.engine.InverseRaw(w.q2, w.qtilde2); err != nil {
		return res, err
	}

	coarseStart := cfg.AnalyzeStart / factor
	coarseStop := cfg.AnalyzeStop / factor
	rawThreshold := cfg.SNRThreshold / norm * cfg.DownsampleThreshold
	coarseIdx, _ := events.Threshold(w.q2[coarseStart:coarseStop], rawThreshold)
	if len(coarseIdx) == 0 {
		res.Norm = norm
		return res, nil
	}

	indices := make([]int, len(coarseIdx))
	for i, ci := range coarseIdx {
		indices[i] = (ci + coarseStart) * factor
	}

	// Full-resolution stage: exact values at the surviving samples only.
	w.ensure(n)
	if err := Correlate(tmpl.Data[kmin:kmax], data.Data[kmin:kmax], w.qtilde[kmin:kmax]); err != nil {
		return res, err
	}

	snr := make([]C, len(indices))
	if err := w.engine.PrunedInverseRaw(snr, w.q, w.qtilde, indices); err != nil {
		return res, err
	}

	res.Indices = indices
	res.SNR = snr
	res.Corr = series.FrequencySeries[C]{Data: w.qtilde, DeltaF: data.DeltaF, Epoch: data.Epoch}
	res.Norm = norm
	return res, nil
}
