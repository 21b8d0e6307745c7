package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrDuplicateBooking = errors.New("user already holds an overlapping reservation for this property")

	ErrNotGuest = errors.New("only the booking guest may perform this action")

	ErrPaymentMissing = errors.New("no payment entry recorded for this reservation")
)
