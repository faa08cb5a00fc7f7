// Package vetoes separates real signals from instrumental glitches.
//
// A loud matched-filter crossing only says the data correlates with the
// template somewhere; a glitch can do that too. The power chi-squared
// splits the template into equal-power frequency bands and checks that
// the SNR accumulated band by band in the expected proportions, and the
// autocorrelation chi-squared checks that the SNR time series around a
// trigger falls off the way the template's own autocorrelation says it
// must. Both statistics follow a chi-squared distribution on Gaussian
// noise, so their survival probability doubles as a significance.
package vetoes
