package domain

import "errors"

var (
	// ErrTooManyCategories is returned when a category map is asked for more
	// categories than the palette has colors.
	ErrTooManyCategories = errors.New("too many categories")

	// ErrColumnNotFound is returned when a row lacks a requested column.
	ErrColumnNotFound = errors.New("column not found")

	// ErrColumnType is returned when a cell cannot be converted to the requested type.
	ErrColumnType = errors.New("column type mismatch")

	// ErrInvalidCoordinate is returned for rows whose coordinates are NaN or out of range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrJobPending is returned while an async render job has no result yet.
	ErrJobPending = errors.New("render job pending")

	// ErrJobFailed is returned when the worker recorded a failure for a job.
	ErrJobFailed = errors.New("render job failed")

	// ErrInvalidJob is returned for jobs with an unknown kind or missing parameters.
	ErrInvalidJob = errors.New("invalid render job")

	// ErrCacheMiss is returned by caches for absent keys.
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotConfigured is returned when an optional backend was not set up.
	ErrNotConfigured = errors.New("not configured")
)
