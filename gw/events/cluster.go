package events

import algofft "github.com/MeKo-Christian/algo-fft"

// ClusterOverWindow reduces a set of threshold crossings to local maxima
// separated by more than window samples, returning positions into the
// times/values slices of the kept crossings.
//
// The walk is the greedy single pass of the legacy FindChirp cluster: a
// crossing opens a new cluster when it lies at least window samples
// after the current cluster's anchor (the boundary itself does not
// merge), and replaces the anchor when its magnitude is strictly
// larger. Exact magnitude ties keep the earlier crossing. times must be
// sorted ascending. window <= 0 disables clustering and keeps
// everything.
func ClusterOverWindow[C algofft.Complex](times []int, values []C, window int) []int {
	if len(times) == 0 {
		return nil
	}

	indices := make([]int, len(times))
	if window <= 0 {
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	j := 0
	indices[0] = 0
	best := abs2(values[0])
	for i := 1; i < len(times); i++ {
		a := abs2(values[i])
		if times[i]-times[indices[j]] >= window {
			j++
			indices[j] = i
			best = a
		} else if a > best {
			indices[j] = i
			best = a
		}
	}
	return indices[:j+1]
}

// ClusterReduce applies ClusterOverWindow and returns the surviving
// times and values directly.
func ClusterReduce[C algofft.Complex](times []int, values []C, window int) ([]int, []C) {
	keep := ClusterOverWindow(times, values, window)
	outT := make([]int, len(keep))
	outV := make([]C, len(keep))
	for i, k := range keep {
		outT[i] = times[k]
		outV[i] = values[k]
	}
	return outT, outV
}
