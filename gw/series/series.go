package series

import "math"

// Sample is the set of element types a series can carry.
type Sample interface {
	~float32 | ~float64 | ~complex64 | ~complex128
}

// TimeSeries is a uniformly sampled signal with a reference epoch.
//
// Epoch is the GPS time (in seconds) of Data[0]; sample i sits at
// Epoch + i*DeltaT.
type TimeSeries[T Sample] struct {
	Data   []T
	DeltaT float64
	Epoch  float64
}

// Len returns the number of samples.
func (ts TimeSeries[T]) Len() int { return len(ts.Data) }

// SampleRate returns 1/DeltaT.
func (ts TimeSeries[T]) SampleRate() float64 { return 1 / ts.DeltaT }

// Duration returns the spanned time in seconds.
func (ts TimeSeries[T]) Duration() float64 {
	return float64(len(ts.Data)) * ts.DeltaT
}

// EndTime returns the GPS time one step past the last sample.
func (ts TimeSeries[T]) EndTime() float64 {
	return ts.Epoch + ts.Duration()
}

// TimeAt returns the GPS time of sample i.
func (ts TimeSeries[T]) TimeAt(i int) float64 {
	return ts.Epoch + float64(i)*ts.DeltaT
}

// FrequencySeries is a uniformly sampled one-sided spectrum.
//
// The implicit start frequency is 0 (bin k sits at k*DeltaF). Epoch is
// the GPS time of the time-domain segment the spectrum was derived from.
type FrequencySeries[T Sample] struct {
	Data   []T
	DeltaF float64
	Epoch  float64
}

// Len returns the number of frequency bins.
func (fs FrequencySeries[T]) Len() int { return len(fs.Data) }

// FrequencyAt returns the physical frequency of bin k in Hz.
func (fs FrequencySeries[T]) FrequencyAt(k int) float64 {
	return float64(k) * fs.DeltaF
}

// TimeLength returns the length N of the real time series this one-sided
// spectrum corresponds to: N = 2*(len-1).
func (fs FrequencySeries[T]) TimeLength() int {
	if len(fs.Data) == 0 {
		return 0
	}
	return 2 * (len(fs.Data) - 1)
}

// DeltaT returns the time-domain sample spacing implied by the spectrum,
// 1/(N*DeltaF).
func (fs FrequencySeries[T]) DeltaT() float64 {
	n := fs.TimeLength()
	if n == 0 || fs.DeltaF == 0 {
		return 0
	}
	return 1 / (float64(n) * fs.DeltaF)
}

// SplitGPS splits a GPS time in seconds into integer seconds and
// nanoseconds, the representation trigger tables use for end times.
func SplitGPS(t float64) (sec int64, nsec int64) {
	s := math.Floor(t)
	ns := math.Round((t - s) * 1e9)
	if ns >= 1e9 {
		s++
		ns = 0
	}
	return int64(s), int64(ns)
}
