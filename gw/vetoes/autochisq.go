package vetoes

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-gw/gw/filter"
	"github.com/cwbudde/algo-gw/gw/series"
)

// AutoConfig fixes the shape of the autocorrelation veto.
type AutoConfig struct {
	// Points is the number of autocorrelation samples compared on each
	// side of the trigger.
	Points int
	// Stride is the spacing between compared samples.
	Stride int
	// OneSided restricts the comparison to samples after the trigger,
	// halving the degrees of freedom.
	OneSided bool
}

func (c AutoConfig) validate() error {
	if c.Points < 1 || c.Stride < 1 {
		return fmt.Errorf("%w: points=%d, stride=%d", ErrInvalidConfig, c.Points, c.Stride)
	}
	return nil
}

// DOF returns the degrees of freedom of the statistic.
func (c AutoConfig) DOF() int {
	if c.OneSided {
		return c.Points
	}
	return 2 * c.Points
}

// AutoVeto holds a template's precomputed autocorrelation and evaluates
// the autocorrelation chi-squared against SNR time series filtered with
// that template.
type AutoVeto struct {
	cfg  AutoConfig
	corr []float64
}

// NewAutoVeto precomputes the template's normalized autocorrelation by
// matched-filtering the template against itself. The real part at lag
// zero is one by construction.
func NewAutoVeto[F algofft.Float, C algofft.Complex](
	w *filter.Workspace[F, C],
	tmpl series.FrequencySeries[C],
	psd *series.FrequencySeries[F],
	fLow, fHigh float64,
	cfg AutoConfig,
) (*AutoVeto, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	raw, _, norm, err := w.MatchedFilterCore(tmpl, tmpl, psd, fLow, fHigh, 0)
	if err != nil {
		return nil, err
	}

	n := len(raw.Data)
	maxLag := cfg.Points * cfg.Stride
	if maxLag >= n {
		return nil, fmt.Errorf("%w: span %d reaches beyond segment length %d", ErrInvalidConfig, maxLag, n)
	}

	peak := real(complex128(raw.Data[0])) * norm
	sigma, err := filter.Sigmasq(tmpl, psd, fLow, fHigh)
	if err != nil {
		return nil, err
	}
	scale := math.Sqrt(sigma)
	if peak <= 0 || scale <= 0 {
		return nil, ErrNoPower
	}

	// Keep the real projection of the normalized autocorrelation out to
	// the largest lag the veto will touch.
	corr := make([]float64, maxLag+1)
	for lag := range corr {
		corr[lag] = real(complex128(raw.Data[lag])) * norm / scale
	}
	return &AutoVeto{cfg: cfg, corr: corr}, nil
}

// Config returns the veto's configuration.
func (v *AutoVeto) Config() AutoConfig { return v.cfg }

// Value computes the autocorrelation chi-squared for one trigger.
//
// rawSNR is the full unnormalized SNR series and norm its normalization;
// index is the trigger sample. The SNR at each probed lag is projected
// onto the trigger's phase, the template's expected falloff subtracted,
// and the residual squared and weighted by the remaining variance
// 1-rho^2. Lags past either end of the segment fold cyclically, matching
// the periodicity of the underlying transform.
func (v *AutoVeto) Value(rawSNR []complex128, norm float64, index int) (float64, error) {
	n := len(rawSNR)
	if n == 0 {
		return 0, fmt.Errorf("%w: empty snr series", ErrLengthMismatch)
	}
	if index < 0 || index >= n {
		return 0, fmt.Errorf("%w: index %d of %d", ErrInvalidBand, index, n)
	}

	z0 := rawSNR[index]
	mag0 := math.Hypot(real(z0), imag(z0)) * norm
	phi := math.Atan2(imag(z0), real(z0))
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	achisq := 0.0
	probe := func(idx int, rho float64) {
		z := rawSNR[idx]
		proj := (real(z)*cosPhi + imag(z)*sinPhi) * norm
		dz := proj - rho*mag0
		w := 1 - rho*rho
		if w < 1e-12 {
			w = 1e-12
		}
		achisq += dz * dz / w
	}

	for k := 1; k <= v.cfg.Points; k++ {
		lag := k * v.cfg.Stride
		rho := v.corr[lag]
		probe((index+lag)%n, rho)
		if !v.cfg.OneSided {
			probe(((index-lag)%n+n)%n, rho)
		}
	}
	return achisq, nil
}

// Values computes the statistic for a batch of triggers.
func (v *AutoVeto) Values(rawSNR []complex128, norm float64, indices []int) ([]float64, int, error) {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		val, err := v.Value(rawSNR, norm, idx)
		if err != nil {
			return nil, 0, err
		}
		out[i] = val
	}
	return out, v.cfg.DOF(), nil
}

// AutoChisq composes the whole veto in one call: the template
// autocorrelation precompute, a matched filter of the template against
// the data, and the statistic at the requested trigger samples.
//
// The precompute and the filter share the workspace, so the filter runs
// second. Callers that already hold the SNR series should build an
// AutoVeto once per template and call Values directly.
func AutoChisq[F algofft.Float, C algofft.Complex](
	w *filter.Workspace[F, C],
	tmpl, data series.FrequencySeries[C],
	psd *series.FrequencySeries[F],
	fLow, fHigh float64,
	cfg AutoConfig,
	indices []int,
) ([]float64, int, error) {
	veto, err := NewAutoVeto(w, tmpl, psd, fLow, fHigh, cfg)
	if err != nil {
		return nil, 0, err
	}

	raw, _, norm, err := w.MatchedFilterCore(tmpl, data, psd, fLow, fHigh, 0)
	if err != nil {
		return nil, 0, err
	}
	return veto.Values(asComplex128(raw.Data), norm, indices)
}

// asComplex128 views a double-precision SNR series directly and copies
// any other precision up.
func asComplex128[C algofft.Complex](v []C) []complex128 {
	if sv, ok := any(v).([]complex128); ok {
		return sv
	}
	out := make([]complex128, len(v))
	for i, c := range v {
		out[i] = complex128(c)
	}
	return out
}
