package compare

import "errors"

var (
	// ErrOutOfRange indicates a position outside the interpolated track's domain.
	ErrOutOfRange = errors.New("compare: position outside track range")

	// ErrNoObservations indicates no star had usable values for the target.
	ErrNoObservations = errors.New("compare: no usable observations")

	// ErrTooFewSamples indicates a track with no usable samples.
	ErrTooFewSamples = errors.New("compare: track has no usable samples")
)
