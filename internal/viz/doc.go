// Package viz renders fit results and evolution runs in the terminal:
// styled summaries with lipgloss, line plots with asciigraph, and a live
// Bubble Tea monitor that follows an evolution run as frames are fitted.
//
// # Monitor keys
//
//	q     - stop following (the run is cancelled)
//	t     - cycle color themes
//	p     - toggle the n_max plot
package viz
