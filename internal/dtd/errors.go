package dtd

import "errors"

// Construction errors. All are returned before any engine run is attempted.
var (
	// ErrInvalidWindow indicates misordered or non-positive times.
	ErrInvalidWindow = errors.New("dtd: invalid time window")

	// ErrEmptyGrid indicates an empty metallicity grid.
	ErrEmptyGrid = errors.New("dtd: empty metallicity grid")

	// ErrEmptyEvents indicates a stochastic DTD without event times.
	ErrEmptyEvents = errors.New("dtd: no event times")

	// ErrNonPositiveWidth indicates a spike width <= 0.
	ErrNonPositiveWidth = errors.New("dtd: spike width must be positive")

	// ErrMalformedCurve indicates a curve that breaks the ordering or rate invariants.
	ErrMalformedCurve = errors.New("dtd: malformed curve")
)
