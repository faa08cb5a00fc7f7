package events

import "math"

// NewSNR re-weights an SNR magnitude by its reduced chi-squared with the
// standard index choices q=6, n=2. Values with reduced chi-squared at or
// below one pass through unchanged.
func NewSNR(snr, reducedChisq float64) float64 {
	return NewSNRQ(snr, reducedChisq, 6, 2)
}

// NewSNRQ is NewSNR with explicit re-weighting indices:
//
//	newsnr = snr * ((1 + rchisq^(q/n)) / 2)^(-1/q)   for rchisq > 1
//	newsnr = snr                                      otherwise
func NewSNRQ(snr, reducedChisq, q, n float64) float64 {
	if reducedChisq > 1 {
		return snr * math.Pow(0.5*(1+math.Pow(reducedChisq, q/n)), -1/q)
	}
	return snr
}
