package recommender

import "errors"

var (
	// ErrSummaryNotFound is returned when the summary that is the
	// primary subject of an operation does not exist.
	ErrSummaryNotFound = errors.New("summary not found")

	// ErrInvalidDuration is returned for negative view durations.
	ErrInvalidDuration = errors.New("duration must be a non-negative integer")
)
