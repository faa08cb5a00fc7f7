package fft

import (
	"errors"
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Errors returned by the transform engine.
var (
	ErrLengthMismatch = errors.New("fft: buffer length mismatch")
	ErrEmptyInput     = errors.New("fft: empty input")
)

// Kind identifies the logical transform shape.
//
// Real transforms of a length-N signal are executed as packed
// complex-to-complex transforms of the same length, but they are cached
// under their own kind so a real and a complex pipeline of equal length
// never share a plan entry.
type Kind int

const (
	KindComplexToComplex Kind = iota
	KindRealToComplex
	KindComplexToReal
)

type planKey struct {
	size int
	kind Kind
}

// Engine caches transform plans and executes them into caller-provided
// buffers. After warm-up every call is allocation-free.
//
// The plan cache is guarded by a mutex, so looking up plans from several
// goroutines is safe; executing a plan writes only to the caller's
// buffers, so concurrent execution is safe as long as each goroutine owns
// its own in/out slices.
type Engine[C algofft.Complex] struct {
	mu    sync.Mutex
	plans map[planKey]*algofft.Plan[C]
}

// NewEngine returns an engine with an empty plan cache.
func NewEngine[C algofft.Complex]() *Engine[C] {
	return &Engine[C]{plans: make(map[planKey]*algofft.Plan[C])}
}

// plan returns the cached plan for (size, kind), creating it on first use.
func (e *Engine[C]) plan(size int, kind Kind) (*algofft.Plan[C], error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrEmptyInput, size)
	}

	key := planKey{size: size, kind: kind}

	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.plans[key]; ok {
		return p, nil
	}

	p, err := algofft.NewPlanT[C](size)
	if err != nil {
		return nil, fmt.Errorf("fft: plan (size=%d, kind=%d): %w", size, kind, err)
	}
	e.plans[key] = p
	return p, nil
}

// PlanCount returns the number of cached plans.
func (e *Engine[C]) PlanCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.plans)
}

// Forward runs the forward complex transform of src into dst.
// dst and src must have equal length; they may be the same slice.
func (e *Engine[C]) Forward(dst, src []C) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: dst %d, src %d", ErrLengthMismatch, len(dst), len(src))
	}
	p, err := e.plan(len(src), KindComplexToComplex)
	if err != nil {
		return err
	}
	return p.Forward(dst, src)
}

// Inverse runs the normalized inverse complex transform of src into dst,
// so that Inverse(Forward(x)) recovers x.
func (e *Engine[C]) Inverse(dst, src []C) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: dst %d, src %d", ErrLengthMismatch, len(dst), len(src))
	}
	p, err := e.plan(len(src), KindComplexToComplex)
	if err != nil {
		return err
	}
	return p.Inverse(dst, src)
}

// InverseRaw runs the unnormalized inverse transform of src into dst.
// The result is N times the normalized inverse.
func (e *Engine[C]) InverseRaw(dst, src []C) error {
	if err := e.Inverse(dst, src); err != nil {
		return err
	}
	scale := C(complex(float64(len(dst)), 0))
	for i := range dst {
		dst[i] *= scale
	}
	return nil
}

// ForwardReal transforms a real signal into its complex spectrum.
//
// src is packed into dst, which must have the same length, and transformed
// in place under KindRealToComplex. The one-sided spectrum occupies
// dst[:len(src)/2+1]; the remaining bins carry the conjugate-symmetric
// half.
func ForwardReal[F algofft.Float, C algofft.Complex](e *Engine[C], dst []C, src []F) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: dst %d, src %d", ErrLengthMismatch, len(dst), len(src))
	}
	p, err := e.plan(len(src), KindRealToComplex)
	if err != nil {
		return err
	}
	packReal(dst, src)
	return p.Forward(dst, dst)
}

// InverseReal runs the normalized inverse of a conjugate-symmetric
// spectrum and unpacks the real parts into dst. work must have the same
// length as src and is overwritten.
func InverseReal[F algofft.Float, C algofft.Complex](e *Engine[C], dst []F, work, src []C) error {
	if len(dst) != len(src) || len(work) != len(src) {
		return fmt.Errorf("%w: dst %d, work %d, src %d",
			ErrLengthMismatch, len(dst), len(work), len(src))
	}
	p, err := e.plan(len(src), KindComplexToReal)
	if err != nil {
		return err
	}
	if err := p.Inverse(work, src); err != nil {
		return err
	}
	unpackReal(dst, work)
	return nil
}

// packReal fills dst with src values as purely real complex samples.
func packReal[F algofft.Float, C algofft.Complex](dst []C, src []F) {
	for i, v := range src {
		dst[i] = C(complex(float64(v), 0))
	}
}

// unpackReal copies the real parts of src into dst.
func unpackReal[F algofft.Float, C algofft.Complex](dst []F, src []C) {
	for i, v := range src {
		dst[i] = F(real(complex128(v)))
	}
}
