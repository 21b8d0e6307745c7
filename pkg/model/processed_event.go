package model

import "time"

// ProcessedEvent records a consumed event so redelivery is a no-op.
// The _id is "<eventType>:<reservationID>:<eventID>".
type ProcessedEvent struct {
	ID          string    `json:"id" bson:"_id"`
	ProcessedAt time.Time `json:"processed_at" bson:"processed_at"`
}
