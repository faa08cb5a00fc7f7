// Package filter implements frequency-domain matched filtering: spectral
// utilities (cutoff indices, cumulative template power), the conjugate
// correlation primitive, and the matched-filter core producing complex
// SNR time series.
//
// The hot path works entirely on a reusable Workspace so that the many
// (template x segment) filter calls of a search run allocation-free in
// the steady state. A Workspace is owned by exactly one goroutine at a
// time; a parallel search gives each worker its own (see package search).
//
// # Normalization convention
//
// MatchedFilterCore returns the raw, unnormalized complex SNR together
// with the scalar norm 4*DeltaF/sqrt(hNorm). The physical SNR is the raw
// series multiplied by norm; the multiply is deferred so repeated
// per-template loops can skip it for samples below threshold.
package filter
