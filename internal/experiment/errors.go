package experiment

import "errors"

var (
	// ErrUnknownKind indicates a scenario DTD kind with no registered builder.
	ErrUnknownKind = errors.New("experiment: unknown DTD kind")

	// ErrUnknownParam indicates an override that no scenario field accepts.
	ErrUnknownParam = errors.New("experiment: unknown parameter")

	// ErrNotSetup indicates Run was called before a successful Setup.
	ErrNotSetup = errors.New("experiment: not set up")
)
