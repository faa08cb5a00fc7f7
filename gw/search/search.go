package search

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-gw/gw/events"
	"github.com/cwbudde/algo-gw/gw/fft"
	"github.com/cwbudde/algo-gw/gw/filter"
	"github.com/cwbudde/algo-gw/gw/series"
	"github.com/cwbudde/algo-gw/gw/vetoes"
	"github.com/cwbudde/algo-gw/gw/waveform"
)

// ErrEmptyData is returned when the segment holds no samples.
var ErrEmptyData = errors.New("search: empty data segment")

// Template pairs the physical parameters of a bank entry with its
// generated spectrum.
type Template struct {
	Params waveform.Params
	H      series.FrequencySeries[complex128]
}

// Run filters every template against the segment and returns the merged
// trigger list.
//
// Templates are partitioned into contiguous chunks, one chunk per
// worker, so record template ids always refer to positions in the input
// slice and the merged output is deterministic regardless of worker
// count. The context is honored between templates; a template that has
// started filtering runs to completion.
func Run(
	ctx context.Context,
	cfg Config,
	templates []Template,
	data series.TimeSeries[float64],
	psd *series.FrequencySeries[float64],
) ([]events.Record, error) {
	if len(data.Data) == 0 {
		return nil, ErrEmptyData
	}
	if len(templates) == 0 {
		return nil, nil
	}

	engine := fft.NewEngine[complex128]()
	dataF, err := filter.ToFrequencySeries(engine, data)
	if err != nil {
		return nil, err
	}

	gpsStart := cfg.GPSStartTime
	if gpsStart == 0 {
		gpsStart = data.Epoch
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(templates) {
		workers = len(templates)
	}

	chunks := splitChunks(len(templates), workers)
	results := make([][]events.Record, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	for ci, chunk := range chunks {
		g.Go(func() error {
			recs, err := runChunk(ctx, cfg, engine, templates, chunk, dataF, psd, data.SampleRate(), gpsStart)
			if err != nil {
				return err
			}
			results[ci] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []events.Record
	for _, recs := range results {
		merged = append(merged, recs...)
	}
	return merged, nil
}

type chunk struct{ lo, hi int }

// splitChunks partitions n items into at most workers contiguous ranges
// of near-equal size.
func splitChunks(n, workers int) []chunk {
	chunks := make([]chunk, 0, workers)
	base, rem := n/workers, n%workers
	lo := 0
	for i := 0; i < workers; i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			break
		}
		chunks = append(chunks, chunk{lo: lo, hi: lo + size})
		lo += size
	}
	return chunks
}

// runChunk filters one contiguous template range with worker-private
// state: workspace, chi-squared kernel, and event manager.
func runChunk(
	ctx context.Context,
	cfg Config,
	engine *fft.Engine[complex128],
	templates []Template,
	ch chunk,
	dataF series.FrequencySeries[complex128],
	psd *series.FrequencySeries[float64],
	sampleRate, gpsStart float64,
) ([]events.Record, error) {
	w := filter.NewWorkspace[float64](engine)
	kern := vetoes.NewChisqKernel(engine)
	mgr := events.NewManager(events.Config{
		SampleRate:   sampleRate,
		GPSStartTime: gpsStart,
		ChisqBins:    cfg.ChisqBins,
	})

	for ti := ch.lo; ti < ch.hi; ti++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := filterTemplate(cfg, w, kern, mgr, templates[ti], dataF, psd); err != nil {
			return nil, fmt.Errorf("template %d: %w", ti, err)
		}
	}

	recs := mgr.Events()
	for i := range recs {
		recs[i].TemplateID += ch.lo
	}
	return recs, nil
}

func filterTemplate(
	cfg Config,
	w *filter.Workspace[float64, complex128],
	kern *vetoes.ChisqKernel[complex128],
	mgr *events.Manager,
	tmpl Template,
	dataF series.FrequencySeries[complex128],
	psd *series.FrequencySeries[float64],
) error {
	sigmasq, err := filter.Sigmasq(tmpl.H, psd, cfg.FLow, cfg.FHigh)
	if err != nil {
		return err
	}
	if err := mgr.NewTemplate(sigmasq); err != nil {
		return err
	}

	// The autocorrelation precompute shares the workspace, so it must
	// run before the filter whose buffers the triggers alias.
	var auto *vetoes.AutoVeto
	if cfg.Auto.Points > 0 {
		if auto, err = vetoes.NewAutoVeto(w, tmpl.H, psd, cfg.FLow, cfg.FHigh, cfg.Auto); err != nil {
			return err
		}
	}

	raw, corr, norm, err := w.MatchedFilterCore(tmpl.H, dataF, psd, cfg.FLow, cfg.FHigh, sigmasq)
	if err != nil {
		return err
	}

	indices, rawVals := events.Threshold(raw.Data, cfg.SNRThreshold/norm)
	snrs := make([]complex128, len(rawVals))
	for i, v := range rawVals {
		snrs[i] = v * complex(norm, 0)
	}
	if err := mgr.AddTriggers(indices, snrs); err != nil {
		return err
	}

	if len(indices) > 0 && cfg.ChisqBins > 0 {
		edges, err := vetoes.PowerChisqBins(tmpl.H, psd, cfg.ChisqBins, cfg.FLow, cfg.FHigh)
		if err != nil {
			return err
		}
		chisq, dof, err := kern.PowerChisqFromPrecomputed(corr.Data, rawVals, indices, edges, norm)
		if err != nil {
			return err
		}
		if err := mgr.SetChisq(chisq, dof); err != nil {
			return err
		}
	}

	if len(indices) > 0 && auto != nil {
		vals, dof, err := auto.Values(raw.Data, norm, indices)
		if err != nil {
			return err
		}
		if err := mgr.SetAutoChisq(vals, dof); err != nil {
			return err
		}
	}

	mgr.ClusterTemplateEvents(cfg.ClusterWindow)
	mgr.FinalizeTemplateEvents()

	if cfg.Logger != nil {
		cfg.Logger.Debug("filtered template",
			"triggers", len(indices),
			"sigmasq", sigmasq)
	}
	return nil
}
