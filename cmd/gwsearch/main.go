// Command gwsearch runs a matched-filter search over a synthetic noise
// segment and prints the resulting trigger table.
//
// Usage:
//
//	gwsearch [flags]
//
// It synthesizes white Gaussian strain, optionally injects a compact
// binary chirp, estimates the noise spectrum with Welch's method, and
// filters an equal-mass template bank against the segment.
//
// Examples:
//
//	gwsearch
//	gwsearch -inject-m1 25 -inject-m2 25 -inject-amp 40
//	gwsearch -mmin 10 -mmax 40 -templates 16 -workers 4
//	gwsearch -inject-m1 30 -inject-m2 30 -db triggers.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"
	"math/rand"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-gw/gw/events"
	"github.com/cwbudde/algo-gw/gw/events/store"
	"github.com/cwbudde/algo-gw/gw/fft"
	"github.com/cwbudde/algo-gw/gw/psd"
	"github.com/cwbudde/algo-gw/gw/search"
	"github.com/cwbudde/algo-gw/gw/series"
	"github.com/cwbudde/algo-gw/gw/waveform"
)

func main() {
	var (
		rate       = flag.Float64("rate", 4096, "sample rate in Hz")
		seconds    = flag.Float64("seconds", 16, "segment duration in seconds")
		epoch      = flag.Float64("epoch", 1187008882, "GPS start time of the segment")
		seed       = flag.Int64("seed", 1, "noise generator seed")
		sigma      = flag.Float64("sigma", 1, "noise standard deviation per sample")
		mmin       = flag.Float64("mmin", 15, "lightest component mass in the bank, solar masses")
		mmax       = flag.Float64("mmax", 35, "heaviest component mass in the bank, solar masses")
		nTmpl      = flag.Int("templates", 8, "number of equal-mass bank templates")
		fLow       = flag.Float64("flow", 20, "low-frequency cutoff in Hz")
		fHigh      = flag.Float64("fhigh", 0, "high-frequency cutoff in Hz (0 = Nyquist)")
		threshold  = flag.Float64("threshold", 5.5, "SNR trigger threshold")
		window     = flag.Int("window", 0, "cluster window in samples (0 = one second)")
		chisqBins  = flag.Int("chisq-bins", 16, "power chi-squared bins (0 = off)")
		autoPoints = flag.Int("auto-points", 0, "autocorrelation veto points (0 = off)")
		workers    = flag.Int("workers", 0, "filter workers (0 = GOMAXPROCS)")
		injectM1   = flag.Float64("inject-m1", 0, "injected primary mass, solar masses (0 = no injection)")
		injectM2   = flag.Float64("inject-m2", 0, "injected secondary mass, solar masses")
		injectAmp  = flag.Float64("inject-amp", 20, "injected chirp amplitude scale")
		injectAt   = flag.Float64("inject-at", 0.5, "injection time as a fraction of the segment")
		dbPath     = flag.String("db", "", "write triggers to this SQLite database")
		ifo        = flag.String("ifo", "X1", "detector label stored with the run")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gwsearch [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Matched-filter search over a synthetic strain segment.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	n := nextPow2(int(*seconds * *rate))
	deltaT := 1 / *rate
	deltaF := 1 / (float64(n) * deltaT)
	engine := fft.NewEngine[complex128]()

	data := noiseSegment(*seed, *sigma, n, deltaT, *epoch)

	if *injectM1 > 0 && *injectM2 > 0 {
		shift := int(*injectAt * float64(n))
		if err := injectChirp(engine, data, *injectM1, *injectM2, *injectAmp, *fLow, shift); err != nil {
			fatal(err)
		}
		logger.Info("injected chirp",
			"m1", *injectM1, "m2", *injectM2,
			"amp", *injectAmp, "time", data.TimeAt(shift))
	}

	// Estimate the spectrum from an independent noise stretch at the
	// segment's frequency spacing.
	noise := noiseSegment(*seed+1, *sigma, 8*n, deltaT, 0)
	spectrum, err := psd.Welch(engine, noise, n, n/2)
	if err != nil {
		fatal(err)
	}

	bank, err := buildBank(*mmin, *mmax, *nTmpl, *fLow, deltaF, n/2+1)
	if err != nil {
		fatal(err)
	}

	cw := *window
	if cw == 0 {
		cw = int(*rate)
	}
	opts := []search.Option{
		search.WithSNRThreshold(*threshold),
		search.WithClusterWindow(cw),
		search.WithBand(*fLow, *fHigh),
		search.WithChisq(*chisqBins),
		search.WithWorkers(*workers),
		search.WithGPSStartTime(*epoch),
		search.WithLogger(logger),
	}
	if *autoPoints > 0 {
		opts = append(opts, search.WithAutoChisq(*autoPoints, 1, false))
	}
	cfg := search.ApplyOptions(opts...)

	logger.Info("filtering bank",
		"templates", len(bank), "samples", n,
		"rate", *rate, "workers", cfg.Workers)

	recs, err := search.Run(context.Background(), cfg, bank, data, &spectrum)
	if err != nil {
		fatal(err)
	}

	printTriggers(recs)
	printSummary(recs)

	if *dbPath != "" {
		run := store.RunInfo{
			ID:         uuid.New(),
			IFO:        *ifo,
			StartTime:  data.Epoch,
			EndTime:    data.EndTime(),
			SampleRate: *rate,
		}
		if err := writeRun(*dbPath, run, recs); err != nil {
			fatal(err)
		}
		logger.Info("wrote triggers", "db", *dbPath, "run", run.ID, "count", len(recs))
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// noiseSegment returns deterministic white Gaussian strain.
func noiseSegment(seed int64, sigma float64, n int, deltaT, epoch float64) series.TimeSeries[float64] {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, n)
	for i := range data {
		data[i] = sigma * rng.NormFloat64()
	}
	return series.TimeSeries[float64]{Data: data, DeltaT: deltaT, Epoch: epoch}
}

// injectChirp adds a time-shifted chirp to the segment in place.
func injectChirp(
	engine *fft.Engine[complex128],
	data series.TimeSeries[float64],
	m1, m2, amp, fLow float64,
	shift int,
) error {
	n := len(data.Data)
	deltaF := 1 / (float64(n) * data.DeltaT)

	h, err := waveform.SPAChirp{Amplitude: amp}.Generate(
		waveform.Params{Mass1: m1, Mass2: m2, FLower: fLow}, deltaF, n/2+1)
	if err != nil {
		return err
	}

	full := fullSpectrum(h.Data, n, shift)
	work := make([]complex128, n)
	td := make([]float64, n)
	if err := fft.InverseReal(engine, td, work, full); err != nil {
		return err
	}
	for i := range data.Data {
		data.Data[i] += td[i]
	}
	return nil
}

// fullSpectrum expands a one-sided spectrum to the conjugate-symmetric
// full-length spectrum of a real signal delayed by shift samples.
func fullSpectrum(oneSided []complex128, n, shift int) []complex128 {
	full := make([]complex128, n)
	for k := 0; k < len(oneSided); k++ {
		theta := -2 * math.Pi * float64(k) * float64(shift) / float64(n)
		full[k] = oneSided[k] * complex(math.Cos(theta), math.Sin(theta))
		if k > 0 && k < n/2 {
			full[n-k] = cmplx.Conj(full[k])
		}
	}
	return full
}

func buildBank(mmin, mmax float64, count int, fLow, deltaF float64, bins int) ([]search.Template, error) {
	if count < 1 {
		return nil, fmt.Errorf("bank needs at least one template, got %d", count)
	}

	gen := waveform.SPAChirp{}
	bank := make([]search.Template, 0, count)
	for i := 0; i < count; i++ {
		m := mmin
		if count > 1 {
			m += (mmax - mmin) * float64(i) / float64(count-1)
		}
		p := waveform.Params{Mass1: m, Mass2: m, Approximant: "SPAChirp", FLower: fLow}
		h, err := gen.Generate(p, deltaF, bins)
		if err != nil {
			return nil, fmt.Errorf("template %d (m=%v): %w", i, m, err)
		}
		bank = append(bank, search.Template{Params: p, H: h})
	}
	return bank, nil
}

func printTriggers(recs []events.Record) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tmpl\tEnd Time\tSNR\tPhase\tRed Chisq\tAuto Chisq\tNewSNR\tEff Dist\n")
	fmt.Fprintf(tw, "----\t--------\t---\t-----\t---------\t----------\t------\t--------\n")

	for _, r := range recs {
		redChisq, newSNR := 0.0, r.SNRMag
		if r.ChisqDOF > 0 {
			redChisq = r.Chisq / float64(r.ChisqDOF)
			newSNR = events.NewSNR(r.SNRMag, redChisq)
		}
		redAuto := 0.0
		if r.AutoChisqDOF > 0 {
			redAuto = r.AutoChisq / float64(r.AutoChisqDOF)
		}
		fmt.Fprintf(tw, "%d\t%d.%09d\t%.3f\t%+.3f\t%.3f\t%.3f\t%.3f\t%.1f\n",
			r.TemplateID, r.EndTimeSec, r.EndTimeNS,
			r.SNRMag, r.Phase, redChisq, redAuto, newSNR, r.EffDistance)
	}
	if err := tw.Flush(); err != nil {
		fatal(err)
	}
}

func printSummary(recs []events.Record) {
	s, err := events.SummarizeRecords(recs)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("\n%d triggers", s.Count)
	if s.Count > 0 {
		fmt.Printf("  max %.3f  mean %.3f  median %.3f  p95 %.3f", s.MaxSNR, s.MeanSNR, s.MedianSNR, s.P95SNR)
	}
	fmt.Println()
}

func writeRun(path string, run store.RunInfo, recs []events.Record) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.WriteRun(run, recs)
}
