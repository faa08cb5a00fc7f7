// Package search runs a template bank against one strain segment: it
// whitens the data, fans the templates out over a worker pool, matched
// filters each one, applies the configured vetoes, and merges the
// resulting triggers into a single deterministic record list.
//
// Parallelism lives entirely here. The filtering and veto kernels
// underneath are single-goroutine by design; each worker owns a private
// workspace and the transform plan cache is the only shared state.
package search
