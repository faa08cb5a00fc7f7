package events

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-gw/gw/series"
)

// Errors returned by the event accumulation lifecycle.
var (
	ErrNoTemplate    = errors.New("events: no active template, call NewTemplate first")
	ErrUnfinalized   = errors.New("events: previous template has unfinalized triggers")
	ErrBatchMismatch = errors.New("events: value count does not match pending triggers")
	ErrChisqDisabled = errors.New("events: chi-squared re-weighting requires ChisqBins > 0 in the manager config")
)

// Record is one finalized trigger. SNR is the normalized complex SNR at
// the trigger sample; ChisqDOF and friends are true degrees of freedom,
// so the reduced statistic is Chisq/ChisqDOF.
type Record struct {
	ID         uuid.UUID
	TemplateID int
	TimeIndex  int
	EndTimeSec int64
	EndTimeNS  int64

	SNR    complex128
	SNRMag float64
	Phase  float64

	Chisq        float64
	ChisqDOF     int
	BankChisq    float64
	BankChisqDOF int
	AutoChisq    float64
	AutoChisqDOF int

	SigmaSq     float64
	EffDistance float64
}

// Config fixes the per-run parameters the manager needs to turn sample
// indices into physical trigger fields.
type Config struct {
	// SampleRate of the SNR series the trigger indices refer to, in Hz.
	SampleRate float64
	// GPSStartTime of sample zero, in seconds.
	GPSStartTime float64
	// ChisqBins used by the power chi-squared veto; zero means the veto
	// is not running and newSNR-based cuts are unavailable.
	ChisqBins int
}

// Manager accumulates triggers template by template.
//
// The lifecycle per template is strict: NewTemplate, AddTriggers, the
// Set* calls for whichever vetoes ran, ClusterTemplateEvents, then
// FinalizeTemplateEvents. Set* calls apply to the current pending batch
// only, so clustering before setting veto values would mis-align them.
type Manager struct {
	cfg Config

	templateID int
	sigmasq    []float64

	pending []Record
	events  []Record
}

// NewManager returns an empty manager for one analysis segment.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, templateID: -1}
}

// NewTemplate starts the trigger batch for the next template. sigmasq is
// the template's sigma-squared against the segment's PSD, used for the
// effective distance of its triggers.
func (m *Manager) NewTemplate(sigmasq float64) error {
	if len(m.pending) != 0 {
		return fmt.Errorf("%w: %d pending", ErrUnfinalized, len(m.pending))
	}
	m.templateID++
	m.sigmasq = append(m.sigmasq, sigmasq)
	return nil
}

// AddTriggers appends threshold crossings to the current template's
// pending batch. snrs must already be normalized.
func (m *Manager) AddTriggers(indices []int, snrs []complex128) error {
	if m.templateID < 0 {
		return ErrNoTemplate
	}
	if len(indices) != len(snrs) {
		return fmt.Errorf("%w: %d indices, %d values", ErrBatchMismatch, len(indices), len(snrs))
	}
	for i, idx := range indices {
		m.pending = append(m.pending, Record{
			TemplateID: m.templateID,
			TimeIndex:  idx,
			SNR:        snrs[i],
		})
	}
	return nil
}

// SetChisq attaches power chi-squared values to the pending batch, in
// the same order the triggers were added.
func (m *Manager) SetChisq(values []float64, dof int) error {
	return m.setVeto(values, func(r *Record, v float64) {
		r.Chisq = v
		r.ChisqDOF = dof
	})
}

// SetBankChisq attaches bank chi-squared values to the pending batch.
func (m *Manager) SetBankChisq(values []float64, dof int) error {
	return m.setVeto(values, func(r *Record, v float64) {
		r.BankChisq = v
		r.BankChisqDOF = dof
	})
}

// SetAutoChisq attaches autocorrelation chi-squared values to the
// pending batch.
func (m *Manager) SetAutoChisq(values []float64, dof int) error {
	return m.setVeto(values, func(r *Record, v float64) {
		r.AutoChisq = v
		r.AutoChisqDOF = dof
	})
}

func (m *Manager) setVeto(values []float64, set func(*Record, float64)) error {
	if m.templateID < 0 {
		return ErrNoTemplate
	}
	if len(values) != len(m.pending) {
		return fmt.Errorf("%w: %d values, %d pending", ErrBatchMismatch, len(values), len(m.pending))
	}
	for i := range m.pending {
		set(&m.pending[i], values[i])
	}
	return nil
}

// ClusterTemplateEvents reduces the pending batch to window-separated
// local SNR maxima. It must run after the Set* calls so the surviving
// triggers keep their veto values.
func (m *Manager) ClusterTemplateEvents(window int) {
	if len(m.pending) == 0 {
		return
	}
	times := make([]int, len(m.pending))
	values := make([]complex128, len(m.pending))
	for i, r := range m.pending {
		times[i] = r.TimeIndex
		values[i] = r.SNR
	}
	keep := ClusterOverWindow(times, values, window)
	out := m.pending[:0]
	for _, k := range keep {
		out = append(out, m.pending[k])
	}
	m.pending = out
}

// FinalizeTemplateEvents computes the derived fields of the pending
// batch and moves it into the finalized event list.
func (m *Manager) FinalizeTemplateEvents() {
	for i := range m.pending {
		r := &m.pending[i]
		r.ID = uuid.New()
		r.SNRMag = math.Hypot(real(r.SNR), imag(r.SNR))
		r.Phase = math.Atan2(imag(r.SNR), real(r.SNR))
		r.EndTimeSec, r.EndTimeNS = series.SplitGPS(
			m.cfg.GPSStartTime + float64(r.TimeIndex)/m.cfg.SampleRate)
		r.SigmaSq = m.sigmasq[r.TemplateID]
		if r.SNRMag > 0 {
			r.EffDistance = math.Sqrt(r.SigmaSq) / r.SNRMag
		}
	}
	m.events = append(m.events, m.pending...)
	m.pending = nil
}

// ChisqThreshold removes finalized events whose re-scaled chi-squared
// chisq/(dof + delta*|snr|^2) strictly exceeds value; an event exactly
// at the threshold survives. Events without a chi-squared value (dof
// zero) are kept.
func (m *Manager) ChisqThreshold(value, delta float64) {
	out := m.events[:0]
	for _, r := range m.events {
		if r.ChisqDOF != 0 {
			scaled := r.Chisq / (float64(r.ChisqDOF) + delta*r.SNRMag*r.SNRMag)
			if scaled > value {
				continue
			}
		}
		out = append(out, r)
	}
	m.events = out
}

// NewSNRThreshold removes finalized events whose re-weighted SNR falls
// below threshold. It requires the power chi-squared veto to have run.
func (m *Manager) NewSNRThreshold(threshold float64) error {
	if m.cfg.ChisqBins == 0 {
		return ErrChisqDisabled
	}
	out := m.events[:0]
	for _, r := range m.events {
		reduced := r.Chisq / float64(r.ChisqDOF)
		if NewSNR(r.SNRMag, reduced) >= threshold {
			out = append(out, r)
		}
	}
	m.events = out
	return nil
}

// MaximizeOverBank keeps, across all templates, only the loudest event
// within each nanosecond bin of width window samples, with the bins
// restarting at every integer GPS second. Two events compete only when
// they share both the integer second and the bin of their nanosecond
// offset, so nearby events straddling a second boundary are both kept.
// This reproduces the lalapps_inspiral walk that downstream coincidence
// tools expect, quirks included.
func (m *Manager) MaximizeOverBank(window int) {
	if len(m.events) < 2 || window <= 0 || m.cfg.SampleRate <= 0 {
		return
	}
	sort.SliceStable(m.events, func(i, j int) bool {
		a, b := m.events[i], m.events[j]
		if a.EndTimeSec != b.EndTimeSec {
			return a.EndTimeSec < b.EndTimeSec
		}
		return a.EndTimeNS < b.EndTimeNS
	})

	wnsec := int64(float64(window) * 1e9 / m.cfg.SampleRate)
	if wnsec <= 0 {
		return
	}
	bin := func(r Record) int64 { return r.EndTimeNS / wnsec }

	out := m.events[:1]
	for _, r := range m.events[1:] {
		anchor := &out[len(out)-1]
		if r.EndTimeSec == anchor.EndTimeSec && bin(r) == bin(*anchor) {
			if r.SNRMag > anchor.SNRMag {
				*anchor = r
			}
		} else {
			out = append(out, r)
		}
	}
	m.events = out
}

// Events returns the finalized events in accumulation order.
func (m *Manager) Events() []Record { return m.events }
