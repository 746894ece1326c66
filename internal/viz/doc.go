// Package viz provides a terminal browser over stored runs.
//
// The browser is a Bubble Tea program: a list of runs ranked by RMS residual,
// and a detail view plotting the selected run's target ratio.
//
// # Key Bindings
//
//	j/k, up/down - Move through runs
//	enter        - Show the selected run
//	x            - Toggle the x axis between [Fe/H] and time
//	t            - Cycle color themes
//	esc          - Back to the list
//	q            - Quit
package viz
