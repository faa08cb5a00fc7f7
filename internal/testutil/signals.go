package testutil

import (
	"math"
	"math/rand"
)

// GaussianStrain returns a deterministic white Gaussian strain series.
func GaussianStrain(seed int64, sigma float64, length int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, length)
	for i := range out {
		out[i] = sigma * rng.NormFloat64()
	}
	return out
}

// RandomSpectrum returns a deterministic complex spectrum with standard
// Gaussian quadratures, the frequency-domain picture of white noise.
func RandomSpectrum(seed int64, length int) []complex128 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]complex128, length)
	for i := range out {
		out[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return out
}

// Tone returns amplitude*cos(2*pi*cycles*i/length), a pure tone landing
// exactly on frequency bin `cycles` of a length-`length` segment.
func Tone(cycles int, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * float64(cycles) / float64(length)
	for i := range out {
		out[i] = amplitude * math.Cos(step*float64(i))
	}
	return out
}

// Impulse returns a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}
