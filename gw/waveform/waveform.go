package waveform

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-gw/gw/series"
)

// Errors returned by the generators.
var (
	ErrInvalidParams = errors.New("waveform: invalid parameters")
	ErrInvalidShape  = errors.New("waveform: invalid output shape")
	ErrOutOfBand     = errors.New("waveform: frequency outside the spectrum")
)

// Solar mass in seconds (G*Msun/c^3).
const massSun = 4.925491025543576e-06

// Params are the physical parameters handed to a generator. The core
// passes them through untouched; which fields matter is up to the
// generator.
type Params struct {
	Mass1, Mass2   float64 // solar masses
	Spin1z, Spin2z float64 // dimensionless aligned spins
	Approximant    string
	FLower         float64 // Hz; <= 0 lets the generator choose
}

// ChirpMass returns the chirp mass in solar masses.
func (p Params) ChirpMass() float64 {
	m := p.Mass1 + p.Mass2
	if m <= 0 {
		return 0
	}
	return math.Pow(p.Mass1*p.Mass2, 0.6) / math.Pow(m, 0.2)
}

// Generator turns parameters into a one-sided template spectrum with
// the requested bin count and spacing.
type Generator interface {
	Generate(p Params, deltaF float64, bins int) (series.FrequencySeries[complex128], error)
}

// Sinusoid is a single-frequency test generator. It emits the exact
// spectrum of Amplitude*cos(2*pi*Frequency*t) over a segment matching
// the requested shape, so matched filtering it against the same tone
// recovers the analytic peak.
type Sinusoid struct {
	Frequency float64 // Hz
	Amplitude float64 // strain; zero means unit
}

// Generate places the tone on its frequency bin. Frequency must fall on
// a bin inside (0, Nyquist).
func (g Sinusoid) Generate(_ Params, deltaF float64, bins int) (series.FrequencySeries[complex128], error) {
	if deltaF <= 0 || bins < 2 {
		return series.FrequencySeries[complex128]{}, fmt.Errorf("%w: df=%v, bins=%d", ErrInvalidShape, deltaF, bins)
	}

	k := int(math.Round(g.Frequency / deltaF))
	if k < 1 || k >= bins-1 {
		return series.FrequencySeries[complex128]{}, fmt.Errorf("%w: %v Hz at df=%v", ErrOutOfBand, g.Frequency, deltaF)
	}

	amp := g.Amplitude
	if amp == 0 {
		amp = 1
	}

	n := 2 * (bins - 1)
	out := make([]complex128, bins)
	out[k] = complex(amp*float64(n)/2, 0)
	return series.FrequencySeries[complex128]{Data: out, DeltaF: deltaF}, nil
}

// SPAChirp is a stationary-phase inspiral at leading post-Newtonian
// order: amplitude falling as f^(-7/6) between the low-frequency cutoff
// and the innermost stable circular orbit, with the leading chirp-mass
// phase evolution. Good enough to exercise broadband filtering and the
// chi-squared binning; not a production approximant.
type SPAChirp struct {
	Amplitude float64 // overall scale; zero means unit
}

// Generate evaluates the chirp on the requested frequency grid.
func (g SPAChirp) Generate(p Params, deltaF float64, bins int) (series.FrequencySeries[complex128], error) {
	if deltaF <= 0 || bins < 2 {
		return series.FrequencySeries[complex128]{}, fmt.Errorf("%w: df=%v, bins=%d", ErrInvalidShape, deltaF, bins)
	}
	if p.Mass1 <= 0 || p.Mass2 <= 0 {
		return series.FrequencySeries[complex128]{}, fmt.Errorf("%w: masses (%v, %v)", ErrInvalidParams, p.Mass1, p.Mass2)
	}

	mTotal := (p.Mass1 + p.Mass2) * massSun
	mChirp := p.ChirpMass() * massSun

	fLow := p.FLower
	if fLow <= 0 {
		fLow = deltaF
	}
	fISCO := 1 / (math.Pow(6, 1.5) * math.Pi * mTotal)

	if fLow >= fISCO {
		return series.FrequencySeries[complex128]{}, fmt.Errorf("%w: f_low %v above ISCO %v", ErrInvalidParams, fLow, fISCO)
	}

	amp := g.Amplitude
	if amp == 0 {
		amp = 1
	}

	out := make([]complex128, bins)
	for k := 1; k < bins; k++ {
		f := float64(k) * deltaF
		if f < fLow || f > fISCO {
			continue
		}
		// Leading-order stationary phase.
		v := math.Pi * mChirp * f
		psi := 3.0 / 128.0 * math.Pow(v, -5.0/3.0)
		a := amp * math.Pow(f, -7.0/6.0)
		s, c := math.Sincos(psi)
		out[k] = complex(a*c, -a*s)
	}

	return series.FrequencySeries[complex128]{Data: out, DeltaF: deltaF}, nil
}
