// Package psd supplies one-sided power spectral densities for noise
// weighting: closed-form models for tests and demos, a Welch estimator
// for measured strain, and spacing interpolation.
package psd
