package model

import "time"

// PropertyLock serializes racing availability writes for one property.
// The _id is the property identifier; a duplicate key insert means
// another writer holds the lock.
type PropertyLock struct {
	ID        string    `json:"id" bson:"_id"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
