package errors

import "errors"

var (
	ErrNotFound = errors.New("ledger entry not found")

	ErrHashReused = errors.New("transaction hash already recorded for another reservation")

	ErrAlreadyFinal = errors.New("ledger entry already in a final state")
)
