// Package fft wraps the transform backend behind a plan-caching engine.
//
// Plans are cached per (size, kind) for the lifetime of the engine and are
// never evicted: the number of distinct transform shapes in a single
// analysis run is small and bounded, so the cache grows monotonically to a
// handful of entries. Precision is carried by the engine's type parameter,
// so a float32 and a float64 pipeline each hold their own cache.
//
// Two inverse conventions are exposed. Inverse follows the backend and
// normalizes by 1/N, so Inverse(Forward(x)) == x. InverseRaw is the
// unnormalized inverse (FFTW convention); a round trip through it gains a
// factor of N. The matched-filter normalization constant 4*DeltaF/sqrt(h)
// assumes the raw convention.
package fft
