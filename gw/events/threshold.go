package events

import (
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Threshold returns the indices of samples whose magnitude strictly
// exceeds value, together with the complex values at those samples.
// Both returned slices are freshly allocated; the input is not modified.
func Threshold[C algofft.Complex](v []C, value float64) ([]int, []C) {
	limit := value * value
	if value < 0 {
		limit = -1
	}

	var indices []int
	var values []C

	if sv, ok := any(v).([]complex128); ok {
		buf := powerPool.Get().(*powerBuf)
		buf.grow(2 * len(sv))
		re, im := buf.data[:len(sv)], buf.data[len(sv):2*len(sv)]
		power := buf.power[:len(sv)]
		for i, c := range sv {
			re[i] = real(c)
			im[i] = imag(c)
		}
		vecmath.Power(power, re, im)
		for i, p := range power {
			if p > limit {
				indices = append(indices, i)
				values = append(values, v[i])
			}
		}
		powerPool.Put(buf)
		return indices, values
	}

	for i, c := range v {
		z := complex128(c)
		if real(z)*real(z)+imag(z)*imag(z) > limit {
			indices = append(indices, i)
			values = append(values, c)
		}
	}
	return indices, values
}

// powerBuf holds pooled scratch for the vectorized magnitude path.
type powerBuf struct {
	data  []float64
	power []float64
}

func (b *powerBuf) grow(n int) {
	if cap(b.data) < n {
		b.data = make([]float64, n)
		b.power = make([]float64, n/2)
	}
	b.data = b.data[:n]
	b.power = b.power[:n/2]
}

var powerPool = sync.Pool{
	New: func() any { return &powerBuf{} },
}

// abs2 is the squared magnitude used throughout the clustering code.
func abs2[C algofft.Complex](c C) float64 {
	z := complex128(c)
	return real(z)*real(z) + imag(z)*imag(z)
}
