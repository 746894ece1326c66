// Package engine is the boundary to the external chemical evolution code.
//
// The integrator itself (stellar lifetimes, yields, supernova rates) lives
// outside this module. An [Engine] receives a [Config] carrying the r-process
// DTD table and returns an abundance [track.Track].
//
//   - [Func]: adapts a plain function, used by tests and dry runs
//   - [Command]: runs an external program, JSON request on stdin, track CSV on stdout
//
// # Thread Safety
//
// Config values are not shared between runs: [Config.Clone] gives every run
// its own DTD table, so an engine that mutates its input cannot affect others.
package engine
