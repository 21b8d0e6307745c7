package errors

import "errors"

var (
	ErrNotFound = errors.New("availability block not found")

	ErrInvalidID = errors.New("invalid availability block ID format")

	ErrDatesUnavailable = errors.New("requested dates overlap an existing block")

	ErrPropertyLocked = errors.New("another availability write for this property is in flight")

	ErrInvalidDateRange = errors.New("date end must not precede date start")
)
