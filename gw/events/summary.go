package events

import "github.com/montanaflynn/stats"

// Summary aggregates the finalized events of a run for logging and the
// command line report.
type Summary struct {
	Count     int
	MaxSNR    float64
	MeanSNR   float64
	MedianSNR float64
	P95SNR    float64
}

// SummarizeRecords computes the summary statistics of a trigger list.
// An empty list yields a zero summary and no error.
func SummarizeRecords(recs []Record) (Summary, error) {
	if len(recs) == 0 {
		return Summary{}, nil
	}

	mags := make(stats.Float64Data, len(recs))
	for i, r := range recs {
		mags[i] = r.SNRMag
	}

	var (
		s   = Summary{Count: len(recs)}
		err error
	)
	if s.MaxSNR, err = stats.Max(mags); err != nil {
		return Summary{}, err
	}
	if s.MeanSNR, err = stats.Mean(mags); err != nil {
		return Summary{}, err
	}
	if s.MedianSNR, err = stats.Median(mags); err != nil {
		return Summary{}, err
	}
	if s.P95SNR, err = stats.Percentile(mags, 95); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// Summarize computes the summary statistics of the finalized events.
func (m *Manager) Summarize() (Summary, error) {
	return SummarizeRecords(m.events)
}
