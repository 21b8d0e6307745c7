package model

import "time"

const (
	BlockReasonBooked     = "booked"
	BlockReasonOwnerBlock = "owner_block"
)

// AvailabilityBlock marks a date range of a property as unavailable.
// Blocks are retired rather than deleted so history stays queryable.
type AvailabilityBlock struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	PropertyID    int64     `json:"property_id" bson:"property_id" validate:"required,gt=0"`
	DateStart     time.Time `json:"date_start" bson:"date_start" validate:"required"`
	DateEnd       time.Time `json:"date_end" bson:"date_end" validate:"required,gtefield=DateStart"`
	Reason        string    `json:"reason" bson:"reason" validate:"required,oneof=booked owner_block"`
	ReservationID int64     `json:"reservation_id,omitempty" bson:"reservation_id,omitempty"`
	Retired       bool      `json:"retired" bson:"retired"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}
