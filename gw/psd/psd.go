package psd

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-gw/gw/series"
)

// Errors returned by the PSD constructors.
var (
	ErrInvalidLength  = errors.New("psd: length must be positive")
	ErrInvalidSpacing = errors.New("psd: frequency spacing must be positive")
	ErrInvalidValue   = errors.New("psd: value must be positive")
)

// Flat returns a constant one-sided PSD with n bins.
func Flat[F algofft.Float](n int, df, value float64) (series.FrequencySeries[F], error) {
	if n <= 0 {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	if df <= 0 {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: %v", ErrInvalidSpacing, df)
	}
	if value <= 0 {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: %v", ErrInvalidValue, value)
	}

	out := make([]F, n)
	for i := range out {
		out[i] = F(value)
	}
	return series.FrequencySeries[F]{Data: out, DeltaF: df}, nil
}

// AnalyticGroundModel returns an initial-LIGO-shaped analytic PSD:
// seismic wall below the knee frequency, a flat thermal floor around it,
// and a shot-noise rise above,
//
//	S(f) = floor * ((f0/f)^4 + 2 + 2*(f/f0)^2) / 5
//
// normalized so S(f0) = floor. Bins below fLow (including DC) are set to
// the value at fLow so downstream divisions stay finite; the analysis
// band cutoffs keep them out of any physical sum.
func AnalyticGroundModel[F algofft.Float](n int, df, f0, floor, fLow float64) (series.FrequencySeries[F], error) {
	if n <= 0 {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	if df <= 0 {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: %v", ErrInvalidSpacing, df)
	}
	if f0 <= 0 || floor <= 0 {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: f0=%v, floor=%v", ErrInvalidValue, f0, floor)
	}
	if fLow <= 0 {
		fLow = df
	}

	shape := func(f float64) float64 {
		x := f / f0
		return floor * (math.Pow(x, -4) + 2 + 2*x*x) / 5
	}

	out := make([]F, n)
	low := shape(fLow)
	for k := range out {
		f := float64(k) * df
		if f < fLow {
			out[k] = F(low)
			continue
		}
		out[k] = F(shape(f))
	}
	return series.FrequencySeries[F]{Data: out, DeltaF: df}, nil
}

// Interpolate resamples a PSD onto a new frequency spacing by linear
// interpolation between neighboring bins, holding the boundary values
// flat past either end.
func Interpolate[F algofft.Float](p series.FrequencySeries[F], df float64) (series.FrequencySeries[F], error) {
	if len(p.Data) == 0 {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: empty input", ErrInvalidLength)
	}
	if df <= 0 || p.DeltaF <= 0 {
		return series.FrequencySeries[F]{}, fmt.Errorf("%w: df=%v, input=%v", ErrInvalidSpacing, df, p.DeltaF)
	}

	fMax := float64(len(p.Data)-1) * p.DeltaF
	n := int(fMax/df) + 1

	out := make([]F, n)
	for k := range out {
		pos := float64(k) * df / p.DeltaF
		i := int(pos)
		if i >= len(p.Data)-1 {
			out[k] = p.Data[len(p.Data)-1]
			continue
		}
		frac := pos - float64(i)
		a, b := float64(p.Data[i]), float64(p.Data[i+1])
		out[k] = F(a + frac*(b-a))
	}
	return series.FrequencySeries[F]{Data: out, DeltaF: df, Epoch: p.Epoch}, nil
}
