package model

import (
	"time"
)

const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCheckedIn = "CHECKED_IN"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusRejected  = "REJECTED"
)

// ReservationStatuses lists every status a reservation document may carry.
var ReservationStatuses = []string{
	StatusPending,
	StatusConfirmed,
	StatusCheckedIn,
	StatusCompleted,
	StatusCancelled,
	StatusRejected,
}

// Reservation dates are calendar days stored as UTC midnight; the stay is
// the inclusive range [CheckInDate, CheckOutDate].
type Reservation struct {
	ID                  int64      `json:"id" bson:"_id"`
	PropertyID          int64      `json:"property_id" bson:"property_id" validate:"required,gt=0"`
	UserID              int64      `json:"user_id" bson:"user_id" validate:"required,gt=0"`
	CheckInDate         time.Time  `json:"check_in_date" bson:"check_in_date" validate:"required"`
	CheckOutDate        time.Time  `json:"check_out_date" bson:"check_out_date" validate:"required,gtfield=CheckInDate"`
	Status              string     `json:"status" bson:"status" validate:"required,oneof=PENDING CONFIRMED CHECKED_IN COMPLETED CANCELLED REJECTED"`
	AmountEth           float64    `json:"amount_eth" bson:"amount_eth" validate:"required,gt=0"`
	BlockchainTxHash    string     `json:"blockchain_tx_hash,omitempty" bson:"blockchain_tx_hash,omitempty"`
	EscrowReleased      bool       `json:"escrow_released" bson:"escrow_released"`
	EscrowReleaseTxHash string     `json:"escrow_release_tx_hash,omitempty" bson:"escrow_release_tx_hash,omitempty"`
	CancellationReason  string     `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at" bson:"created_at"`
}

// ReservationRequest is the booking command a guest submits. The guest
// identity comes from the request context, not the body.
type ReservationRequest struct {
	PropertyID         int64     `json:"property_id" validate:"required,gt=0"`
	CheckInDate        time.Time `json:"check_in_date" validate:"required"`
	CheckOutDate       time.Time `json:"check_out_date" validate:"required,gtfield=CheckInDate"`
	AmountEth          float64   `json:"amount_eth" validate:"required,gt=0"`
	GuestWalletAddress string    `json:"guest_wallet_address" validate:"required,eth_addr"`
}

// ToUTCDate truncates a timestamp to its calendar day at UTC midnight.
func ToUTCDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsTerminal reports whether no further transitions are possible.
func (r *Reservation) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusCancelled || r.Status == StatusRejected
}
