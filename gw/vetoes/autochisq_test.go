package vetoes

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-gw/gw/fft"
	"github.com/cwbudde/algo-gw/gw/filter"
	"github.com/cwbudde/algo-gw/gw/series"
)

func TestAutoConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  AutoConfig
		ok   bool
	}{
		{"valid", AutoConfig{Points: 10, Stride: 2}, true},
		{"zero points", AutoConfig{Stride: 2}, false},
		{"zero stride", AutoConfig{Points: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestAutoConfigDOF(t *testing.T) {
	if got := (AutoConfig{Points: 10, Stride: 1}).DOF(); got != 20 {
		t.Errorf("two-sided dof = %d, want 20", got)
	}
	if got := (AutoConfig{Points: 10, Stride: 1, OneSided: true}).DOF(); got != 10 {
		t.Errorf("one-sided dof = %d, want 10", got)
	}
}

func TestAutoVetoZeroForMatchingSignal(t *testing.T) {
	e := fft.NewEngine[complex128]()
	w := filter.NewWorkspace[float64](e)
	n := 1024

	tmpl, err := filter.ToFrequencySeries[float64](e, multiTone(n, 0))
	if err != nil {
		t.Fatal(err)
	}

	cfg := AutoConfig{Points: 8, Stride: 3}
	veto, err := NewAutoVeto(w, tmpl, nil, -1, -1, cfg)
	if err != nil {
		t.Fatal(err)
	}

	for _, shift := range []int{0, 300, n - 5} {
		data, err := filter.ToFrequencySeries[float64](e, multiTone(n, shift))
		if err != nil {
			t.Fatal(err)
		}
		raw, _, norm, err := w.MatchedFilterCore(tmpl, data, nil, -1, -1, 0)
		if err != nil {
			t.Fatal(err)
		}

		snr := make([]complex128, len(raw.Data))
		copy(snr, raw.Data)

		// The SNR around a true peak falls off exactly like the
		// template autocorrelation, even when the lags fold around the
		// segment boundary.
		achisq, err := veto.Value(snr, norm, shift)
		if err != nil {
			t.Fatal(err)
		}
		if achisq > 1e-6*float64(cfg.DOF()) {
			t.Errorf("shift %d: achisq = %v for a perfect match", shift, achisq)
		}
	}
}

func TestAutoVetoFlagsMismatch(t *testing.T) {
	e := fft.NewEngine[complex128]()
	w := filter.NewWorkspace[float64](e)
	n := 1024

	tmpl, err := filter.ToFrequencySeries[float64](e, multiTone(n, 0))
	if err != nil {
		t.Fatal(err)
	}
	cfg := AutoConfig{Points: 8, Stride: 3}
	veto, err := NewAutoVeto(w, tmpl, nil, -1, -1, cfg)
	if err != nil {
		t.Fatal(err)
	}

	// A narrowband burst the template does not describe: its SNR series
	// decays differently from the template autocorrelation.
	burst := make([]float64, n)
	for i := range burst {
		env := math.Exp(-float64((i - 100) * (i - 100)) / 50)
		burst[i] = env * math.Cos(2*math.Pi*30*float64(i)/float64(n))
	}
	data, err := filter.ToFrequencySeries[float64](e, series.TimeSeries[float64]{
		Data: burst, DeltaT: 1.0 / float64(n),
	})
	if err != nil {
		t.Fatal(err)
	}

	raw, _, norm, err := w.MatchedFilterCore(tmpl, data, nil, -1, -1, 0)
	if err != nil {
		t.Fatal(err)
	}
	snr := make([]complex128, len(raw.Data))
	copy(snr, raw.Data)

	var peakIdx int
	var peakMag float64
	for i, z := range snr {
		if m := math.Hypot(real(z), imag(z)); m > peakMag {
			peakMag, peakIdx = m, i
		}
	}

	achisq, err := veto.Value(snr, norm, peakIdx)
	if err != nil {
		t.Fatal(err)
	}
	if achisq <= 1e-3 {
		t.Errorf("achisq = %v for a mismatched burst, want clearly nonzero", achisq)
	}

	vals, dof, err := veto.Values(snr, norm, []int{peakIdx, 0})
	if err != nil {
		t.Fatal(err)
	}
	if dof != cfg.DOF() {
		t.Errorf("dof = %d, want %d", dof, cfg.DOF())
	}
	if vals[0] != achisq {
		t.Errorf("batch value %v differs from single value %v", vals[0], achisq)
	}
}

func TestAutoChisqComposed(t *testing.T) {
	e := fft.NewEngine[complex128]()
	w := filter.NewWorkspace[float64](e)
	n := 1024

	tmpl, err := filter.ToFrequencySeries[float64](e, multiTone(n, 0))
	if err != nil {
		t.Fatal(err)
	}
	data, err := filter.ToFrequencySeries[float64](e, multiTone(n, 300))
	if err != nil {
		t.Fatal(err)
	}

	cfg := AutoConfig{Points: 8, Stride: 3}
	vals, dof, err := AutoChisq(w, tmpl, data, nil, -1, -1, cfg, []int{300})
	if err != nil {
		t.Fatal(err)
	}
	if dof != cfg.DOF() {
		t.Errorf("dof = %d, want %d", dof, cfg.DOF())
	}
	if vals[0] > 1e-6*float64(dof) {
		t.Errorf("achisq = %v for a shifted copy of the template", vals[0])
	}

	if _, _, err := AutoChisq(w, tmpl, data, nil, -1, -1, AutoConfig{}, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("bad config: err = %v", err)
	}
}

func TestAutoVetoErrors(t *testing.T) {
	e := fft.NewEngine[complex128]()
	w := filter.NewWorkspace[float64](e)

	tmpl, err := filter.ToFrequencySeries[float64](e, multiTone(256, 0))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewAutoVeto(w, tmpl, nil, -1, -1, AutoConfig{Points: 0, Stride: 1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("bad config: err = %v", err)
	}
	if _, err := NewAutoVeto(w, tmpl, nil, -1, -1, AutoConfig{Points: 300, Stride: 1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("span too long: err = %v", err)
	}

	veto, err := NewAutoVeto(w, tmpl, nil, -1, -1, AutoConfig{Points: 4, Stride: 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := veto.Value(nil, 1, 0); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("empty snr: err = %v", err)
	}
	if _, err := veto.Value(make([]complex128, 16), 1, 16); !errors.Is(err, ErrInvalidBand) {
		t.Errorf("index range: err = %v", err)
	}
}

func TestSurvivalProbability(t *testing.T) {
	// Two degrees of freedom is the exponential distribution.
	p, err := SurvivalProbability(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p-math.Exp(-1)) > 1e-12 {
		t.Errorf("S(2; 2) = %v, want e^-1", p)
	}

	p0, err := SurvivalProbability(0, 30)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p0-1) > 1e-12 {
		t.Errorf("S(0; 30) = %v, want 1", p0)
	}

	prev := 1.1
	for _, v := range []float64{1, 10, 30, 60, 120} {
		p, err := SurvivalProbability(v, 30)
		if err != nil {
			t.Fatal(err)
		}
		if p >= prev || p < 0 {
			t.Fatalf("survival not decreasing at %v: %v then %v", v, prev, p)
		}
		prev = p
	}

	if _, err := SurvivalProbability(1, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero dof: err = %v", err)
	}
	if _, err := SurvivalProbability(-1, 2); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("negative value: err = %v", err)
	}
}
