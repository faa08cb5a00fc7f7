package psd

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-gw/gw/fft"
	"github.com/cwbudde/algo-gw/gw/series"
)

func TestFlat(t *testing.T) {
	p, err := Flat[float64](513, 0.25, 2.5)
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 513 || p.DeltaF != 0.25 {
		t.Fatalf("shape = (%d, %v)", p.Len(), p.DeltaF)
	}
	for k, v := range p.Data {
		if v != 2.5 {
			t.Fatalf("bin %d = %v, want 2.5", k, v)
		}
	}

	if _, err := Flat[float64](0, 0.25, 1); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("zero length: err = %v", err)
	}
	if _, err := Flat[float64](16, 0, 1); !errors.Is(err, ErrInvalidSpacing) {
		t.Errorf("zero spacing: err = %v", err)
	}
	if _, err := Flat[float64](16, 0.25, 0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("zero value: err = %v", err)
	}
}

func TestAnalyticGroundModel(t *testing.T) {
	const (
		df    = 0.25
		f0    = 150.0
		floor = 1e-46
	)
	p, err := AnalyticGroundModel[float64](4097, df, f0, floor, 10)
	if err != nil {
		t.Fatal(err)
	}

	at := func(f float64) float64 { return p.Data[int(f/df)] }

	if got := at(f0); math.Abs(got-floor)/floor > 1e-12 {
		t.Errorf("S(f0) = %v, want floor %v", got, floor)
	}
	if at(20) <= at(f0) {
		t.Error("seismic side should rise above the floor")
	}
	if at(1000) <= at(f0) {
		t.Error("shot-noise side should rise above the floor")
	}
	if p.Data[0] != p.Data[int(10/df)] {
		t.Error("bins below fLow should clamp to the value at fLow")
	}
	for k, v := range p.Data {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			t.Fatalf("bin %d = %v, want finite positive", k, v)
		}
	}
}

func TestInterpolate(t *testing.T) {
	src := series.FrequencySeries[float64]{Data: []float64{1, 3, 5, 7}, DeltaF: 1}

	fine, err := Interpolate(src, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3, 4, 5, 6, 7}
	if len(fine.Data) != len(want) {
		t.Fatalf("got %d bins, want %d", len(fine.Data), len(want))
	}
	for k := range want {
		if math.Abs(fine.Data[k]-want[k]) > 1e-12 {
			t.Errorf("bin %d = %v, want %v", k, fine.Data[k], want[k])
		}
	}

	// Identity spacing round-trips the values.
	same, err := Interpolate(src, 1)
	if err != nil {
		t.Fatal(err)
	}
	for k := range src.Data {
		if math.Abs(same.Data[k]-src.Data[k]) > 1e-12 {
			t.Errorf("identity bin %d = %v, want %v", k, same.Data[k], src.Data[k])
		}
	}
}

func TestWelchWhiteNoise(t *testing.T) {
	e := fft.NewEngine[complex128]()
	rng := rand.New(rand.NewSource(11))

	const (
		n      = 1 << 16
		deltaT = 1.0 / 1024
		sigma  = 2.0
	)
	data := make([]float64, n)
	for i := range data {
		data[i] = sigma * rng.NormFloat64()
	}
	ts := series.TimeSeries[float64]{Data: data, DeltaT: deltaT}

	p, err := Welch(e, ts, 1024, 512)
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 513 {
		t.Fatalf("got %d bins, want 513", p.Len())
	}
	if math.Abs(p.DeltaF-1.0) > 1e-12 {
		t.Fatalf("DeltaF = %v, want 1", p.DeltaF)
	}

	// White noise of variance sigma^2 has a one-sided PSD of
	// 2*sigma^2*deltaT across the interior band.
	want := 2 * sigma * sigma * deltaT
	mean := 0.0
	for _, v := range p.Data[1 : p.Len()-1] {
		mean += v
	}
	mean /= float64(p.Len() - 2)
	if mean < 0.9*want || mean > 1.1*want {
		t.Errorf("mean PSD = %v, want ~%v", mean, want)
	}
}

func TestWelchErrors(t *testing.T) {
	e := fft.NewEngine[complex128]()
	ts := series.TimeSeries[float64]{Data: make([]float64, 256), DeltaT: 1.0 / 256}

	if _, err := Welch(e, ts, 512, 256); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("segment too long: err = %v", err)
	}
	if _, err := Welch(e, ts, 128, 0); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("zero stride: err = %v", err)
	}
	if _, err := Welch(e, series.TimeSeries[float64]{Data: make([]float64, 256)}, 128, 64); !errors.Is(err, ErrInvalidSpacing) {
		t.Errorf("zero delta_t: err = %v", err)
	}
}
