package engine

import "errors"

var (
	// ErrMissingYieldTable indicates the configured yield table file does not exist.
	ErrMissingYieldTable = errors.New("engine: yield table not found")

	// ErrEngineFailed indicates the external engine exited or answered abnormally.
	ErrEngineFailed = errors.New("engine: run failed")

	// ErrNoDTD indicates an enabled r-process source without a DTD table.
	ErrNoDTD = errors.New("engine: r-process source enabled without a DTD table")
)
