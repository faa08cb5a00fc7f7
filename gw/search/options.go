package search

import (
	"log/slog"
	"runtime"

	"github.com/cwbudde/algo-gw/gw/vetoes"
)

// Config defines one search run over a segment.
type Config struct {
	// SNRThreshold is the normalized trigger threshold.
	SNRThreshold float64
	// ClusterWindow is the trigger clustering window in samples; zero
	// disables clustering.
	ClusterWindow int
	// FLow and FHigh bound the analysis band in Hz; non-positive means
	// unset.
	FLow, FHigh float64
	// ChisqBins enables the power chi-squared veto when positive.
	ChisqBins int
	// Auto enables the autocorrelation veto when Points is positive.
	Auto vetoes.AutoConfig
	// Workers is the number of filtering goroutines.
	Workers int
	// GPSStartTime anchors trigger end times, in seconds.
	GPSStartTime float64
	// Logger receives per-template progress; nil silences it.
	Logger *slog.Logger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the defaults a run starts from.
func DefaultConfig() Config {
	return Config{
		SNRThreshold:  5.5,
		ClusterWindow: 0,
		Workers:       runtime.GOMAXPROCS(0),
	}
}

// WithSNRThreshold sets the trigger threshold.
func WithSNRThreshold(threshold float64) Option {
	return func(cfg *Config) {
		if threshold > 0 {
			cfg.SNRThreshold = threshold
		}
	}
}

// WithClusterWindow sets the clustering window in samples.
func WithClusterWindow(window int) Option {
	return func(cfg *Config) {
		if window > 0 {
			cfg.ClusterWindow = window
		}
	}
}

// WithBand sets the analysis frequency band in Hz.
func WithBand(fLow, fHigh float64) Option {
	return func(cfg *Config) {
		cfg.FLow = fLow
		cfg.FHigh = fHigh
	}
}

// WithChisq enables the power chi-squared veto with the given number of
// equal-power bins.
func WithChisq(bins int) Option {
	return func(cfg *Config) {
		if bins > 0 {
			cfg.ChisqBins = bins
		}
	}
}

// WithAutoChisq enables the autocorrelation veto.
func WithAutoChisq(points, stride int, oneSided bool) Option {
	return func(cfg *Config) {
		if points > 0 && stride > 0 {
			cfg.Auto = vetoes.AutoConfig{Points: points, Stride: stride, OneSided: oneSided}
		}
	}
}

// WithWorkers sets the number of filtering goroutines.
func WithWorkers(workers int) Option {
	return func(cfg *Config) {
		if workers > 0 {
			cfg.Workers = workers
		}
	}
}

// WithGPSStartTime anchors trigger end times.
func WithGPSStartTime(t float64) Option {
	return func(cfg *Config) {
		cfg.GPSStartTime = t
	}
}

// WithLogger sets the progress logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
