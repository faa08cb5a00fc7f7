// Package series provides the labeled sample-buffer types shared by the
// matched-filtering pipeline: uniformly sampled time series and one-sided
// frequency series, generic over single and double precision.
//
// A real time series of length N round-trips through a one-sided spectrum
// of length N/2+1, so for a conjugate-symmetric spectrum the time-domain
// length is always 2*(len-1) and DeltaF*N = 1/DeltaT holds.
package series
