package search

import (
	"context"
	"math"
	"math/cmplx"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-gw/gw/events"
	"github.com/cwbudde/algo-gw/gw/fft"
	"github.com/cwbudde/algo-gw/gw/filter"
	"github.com/cwbudde/algo-gw/gw/series"
	"github.com/cwbudde/algo-gw/gw/waveform"
)

const (
	segLen = 2048
	deltaF = 1.0
)

// injectTemplate synthesizes a noise-free segment holding the template
// waveform scaled by amp and cyclically delayed by shift samples.
func injectTemplate(t *testing.T, e *fft.Engine[complex128], h series.FrequencySeries[complex128], amp float64, shift int) series.TimeSeries[float64] {
	t.Helper()

	n := h.TimeLength()
	full := make([]complex128, n)
	for k := 0; k < len(h.Data); k++ {
		phase := -2 * math.Pi * float64(k) * float64(shift) / float64(n)
		s, c := math.Sincos(phase)
		full[k] = h.Data[k] * complex(amp*c, amp*s)
	}
	for k := 1; k < n/2; k++ {
		full[n-k] = cmplx.Conj(full[k])
	}

	data := make([]float64, n)
	work := make([]complex128, n)
	require.NoError(t, fft.InverseReal(e, data, work, full))

	return series.TimeSeries[float64]{Data: data, DeltaT: 1 / (float64(n) * h.DeltaF)}
}

func bankTemplate(t *testing.T, m1, m2 float64) Template {
	t.Helper()
	p := waveform.Params{Mass1: m1, Mass2: m2, FLower: 20}
	h, err := waveform.SPAChirp{}.Generate(p, deltaF, segLen/2+1)
	require.NoError(t, err)
	return Template{Params: p, H: h}
}

func TestRunFindsInjection(t *testing.T) {
	e := fft.NewEngine[complex128]()
	tmpl := bankTemplate(t, 10, 10)

	sigma, err := filter.Sigma[float64](tmpl.H, nil, 20, -1)
	require.NoError(t, err)

	const (
		amp   = 100.0
		shift = 700
	)
	data := injectTemplate(t, e, tmpl.H, amp, shift)
	expectedSNR := amp * sigma

	cfg := ApplyOptions(
		WithSNRThreshold(0.6*expectedSNR),
		WithClusterWindow(segLen),
		WithBand(20, -1),
		WithWorkers(1),
		WithGPSStartTime(1187008882),
	)

	recs, err := Run(context.Background(), cfg, []Template{tmpl}, data, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1, "one injection, one cluster")

	rec := recs[0]
	assert.Equal(t, 0, rec.TemplateID)
	assert.Equal(t, shift, rec.TimeIndex)
	assert.InDelta(t, expectedSNR, rec.SNRMag, 0.01*expectedSNR)
	assert.InDelta(t, sigma*sigma, rec.SigmaSq, 1e-6*sigma*sigma)

	gotTime := float64(rec.EndTimeSec) + float64(rec.EndTimeNS)/1e9
	assert.InDelta(t, 1187008882+float64(shift)*data.DeltaT, gotTime, 1e-6)
}

func TestRunAppliesVetoes(t *testing.T) {
	e := fft.NewEngine[complex128]()
	tmpl := bankTemplate(t, 10, 10)

	sigma, err := filter.Sigma[float64](tmpl.H, nil, 20, -1)
	require.NoError(t, err)

	data := injectTemplate(t, e, tmpl.H, 100, 512)
	expectedSNR := 100 * sigma

	cfg := ApplyOptions(
		WithSNRThreshold(0.8*expectedSNR),
		WithClusterWindow(segLen),
		WithBand(20, -1),
		WithChisq(16),
		WithAutoChisq(8, 3, false),
		WithWorkers(1),
	)

	recs, err := Run(context.Background(), cfg, []Template{tmpl}, data, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, 30, rec.ChisqDOF)
	assert.GreaterOrEqual(t, rec.Chisq, 0.0)
	// Integer bin edges cannot split the steep chirp spectrum into
	// exactly equal power, so even a clean injection keeps a small
	// residual proportional to snr^2. It must stay far below the
	// reduced chi-squared of a glitch.
	assert.Less(t, rec.Chisq/float64(rec.ChisqDOF), 5.0)

	assert.Equal(t, 16, rec.AutoChisqDOF)
	assert.Less(t, rec.AutoChisq, 0.1, "perfect injection should track the autocorrelation")
}

func TestRunDeterministicAcrossWorkers(t *testing.T) {
	e := fft.NewEngine[complex128]()
	bank := []Template{
		bankTemplate(t, 10, 10),
		bankTemplate(t, 15, 15),
		bankTemplate(t, 20, 20),
	}

	sigma, err := filter.Sigma[float64](bank[0].H, nil, 20, -1)
	require.NoError(t, err)
	data := injectTemplate(t, e, bank[0].H, 100, 900)

	run := func(workers int) []events.Record {
		cfg := ApplyOptions(
			WithSNRThreshold(0.3*100*sigma),
			WithClusterWindow(segLen),
			WithBand(20, -1),
			WithWorkers(workers),
		)
		recs, err := Run(context.Background(), cfg, bank, data, nil)
		require.NoError(t, err)
		// Record ids are freshly minted per run; blank them for the
		// comparison.
		for i := range recs {
			recs[i].ID = uuid.Nil
		}
		return recs
	}

	serial := run(1)
	parallel := run(3)
	require.NotEmpty(t, serial)
	assert.Equal(t, serial, parallel)
}

func TestRunContextCanceled(t *testing.T) {
	e := fft.NewEngine[complex128]()
	tmpl := bankTemplate(t, 10, 10)
	data := injectTemplate(t, e, tmpl.H, 1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, ApplyOptions(WithBand(20, -1)), []Template{tmpl}, data, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEdgeCases(t *testing.T) {
	recs, err := Run(context.Background(), DefaultConfig(), nil,
		series.TimeSeries[float64]{Data: make([]float64, 64), DeltaT: 1.0 / 64}, nil)
	require.NoError(t, err)
	assert.Empty(t, recs, "empty bank yields no triggers")

	_, err = Run(context.Background(), DefaultConfig(),
		[]Template{{}}, series.TimeSeries[float64]{}, nil)
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestApplyOptions(t *testing.T) {
	cfg := ApplyOptions()
	assert.Equal(t, 5.5, cfg.SNRThreshold)
	assert.GreaterOrEqual(t, cfg.Workers, 1)

	cfg = ApplyOptions(
		WithSNRThreshold(8),
		WithClusterWindow(256),
		WithBand(30, 1000),
		WithChisq(16),
		WithAutoChisq(10, 2, true),
		WithWorkers(4),
		WithGPSStartTime(1e9),
		nil,
	)
	assert.Equal(t, 8.0, cfg.SNRThreshold)
	assert.Equal(t, 256, cfg.ClusterWindow)
	assert.Equal(t, 30.0, cfg.FLow)
	assert.Equal(t, 1000.0, cfg.FHigh)
	assert.Equal(t, 16, cfg.ChisqBins)
	assert.Equal(t, 10, cfg.Auto.Points)
	assert.True(t, cfg.Auto.OneSided)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 1e9, cfg.GPSStartTime)

	// Invalid values leave defaults in place.
	cfg = ApplyOptions(WithSNRThreshold(-1), WithWorkers(0))
	assert.Equal(t, 5.5, cfg.SNRThreshold)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}
