package types

import "errors"

// Failure taxonomy for the pipeline. Errors local to one unit of work (one
// segment, one day, one window) are logged and the run continues; errors in
// run-level parameters abort the run.
var (
	// ErrMalformedSegment indicates a source file could not be parsed as a
	// valid fixed-duration segment.
	ErrMalformedSegment = errors.New("malformed segment")

	// ErrChannelMetadataMismatch indicates segments claiming the same stream
	// reported inconsistent sample rates.
	ErrChannelMetadataMismatch = errors.New("channel metadata mismatch")

	// ErrMissingDayArchive indicates a required day archive file is absent
	// for an in-range day.
	ErrMissingDayArchive = errors.New("missing day archive")

	// ErrInvalidWindowLength indicates the metric window does not evenly
	// divide one UTC day.
	ErrInvalidWindowLength = errors.New("invalid window length")

	// ErrUnknownMetric indicates a requested metric name is not registered
	// or not a column of the loaded table.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrEmptySelection indicates a time-range filter excluded all records.
	ErrEmptySelection = errors.New("empty selection")
)
