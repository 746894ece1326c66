// Package dtd builds delay-time-distribution tables for r-process events.
//
// A delay-time distribution (DTD) gives the rate of an enrichment event as a
// function of time since star formation. The external chemical evolution
// engine consumes it as a piecewise-linear curve per metallicity bin, grouped
// per enrichment source:
//
//   - [Curve]: ordered (time, rate) points, first rate 0
//   - [Grid]: metallicity values, one curve instantiated per value
//   - [Table]: sources x metallicity bins x curves
//
// Two scenario shapes are provided:
//
//   - [BuildPrompt]: a single flat window between a start and stop delay
//   - [BuildStochastic]: one flat-topped spike per discrete event time
//
// # Example
//
//	grid := dtd.Grid{1e-4, 5e-4, 1e-3}
//	table, err := dtd.BuildPrompt(grid, dtd.Window{Start: 3e6, Stop: 3e8}, 13e9)
//	if err != nil {
//	    return err
//	}
//	nested := table.Nested() // engine's [][][][2]float64 layout
//
// Every metallicity slot holds its own copy of the curve, so a consumer that
// mutates one slot never affects another.
package dtd
