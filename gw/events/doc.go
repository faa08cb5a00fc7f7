// Package events turns SNR time series into trigger records: thresholding,
// FindChirp-style window clustering, chi-squared re-weighting (newSNR),
// and the per-template event accumulation lifecycle.
//
// The clustering algorithm is deliberately the greedy single-pass walk of
// the legacy FindChirp code, including its earliest-wins tie-break and its
// non-optimal anchoring behavior. Downstream trigger consumers expect this
// exact reduction; do not replace it with a globally optimal windowed
// maximum.
package events
