package model

import "time"

// ReservationStatusHistory is one row per state transition, appended in
// the same transaction that changes the reservation.
type ReservationStatusHistory struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	ReservationID int64     `json:"reservation_id" bson:"reservation_id"`
	OldStatus     string    `json:"old_status" bson:"old_status"`
	NewStatus     string    `json:"new_status" bson:"new_status"`
	ChangedBy     int64     `json:"changed_by" bson:"changed_by"`
	Reason        string    `json:"reason,omitempty" bson:"reason,omitempty"`
	ChangedAt     time.Time `json:"changed_at" bson:"changed_at"`
}
