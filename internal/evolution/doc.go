// Package evolution follows the central density of a discharge through
// time by fitting the profile once per sweep and recording the peak
// density with its uncertainty.
package evolution
