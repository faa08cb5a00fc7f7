// Package waveform defines the template-generation boundary. The search
// treats generators as black boxes that turn physical parameters into a
// one-sided frequency series; the generators shipped here are the
// closed-form ones the tests and the demo use, not production
// approximants.
package waveform
